package simserver

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customlog "github.com/open-teleop/simviz/pkg/log"
	"github.com/open-teleop/simviz/pkg/scene"
	"github.com/open-teleop/simviz/pkg/wire"
)

func roundTrip(t *testing.T, conn net.Conn, buf *wire.Buffer, op wire.ClientMessageType) (*wire.Cursor, wire.Header) {
	t.Helper()
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))
	_, err := conn.Write(wire.EncodeRequest(op))
	require.NoError(t, err)
	payload, err := wire.ReadChunked(conn, buf)
	require.NoError(t, err)
	assert.Zero(t, len(payload)%wire.ChunkPayloadSize, "final chunk is padded")

	c := wire.NewCursor(payload)
	h, err := wire.ReadHeader(c)
	require.NoError(t, err)
	return c, h
}

func TestServerAnswersFromWorld(t *testing.T) {
	srv := New(NewWorld(), customlog.Discard())
	require.NoError(t, srv.Start("127.0.0.1:0"))
	defer srv.Close()

	conn, err := net.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer conn.Close()
	buf := wire.NewBuffer(0)

	c, h := roundTrip(t, conn, buf, wire.RequestConfigXML)
	assert.Equal(t, wire.MessageConfigXML, h.Type)
	doc, err := c.String("doc")
	require.NoError(t, err)
	assert.Contains(t, doc, "<raisim")

	c, h = roundTrip(t, conn, buf, wire.RequestInitialization)
	require.Equal(t, wire.MessageInitialization, h.Type)
	init, err := scene.DecodeInitialization(c)
	require.NoError(t, err)
	assert.Len(t, init.Objects, 5)

	c, h = roundTrip(t, conn, buf, wire.RequestObjectPosition)
	require.Equal(t, wire.MessageObjectPositionUpdate, h.Type)
	poses, err := scene.DecodePositions(c)
	require.NoError(t, err)
	assert.Len(t, poses.Poses, 8)

	c, h = roundTrip(t, conn, buf, wire.RequestContactInfos)
	require.Equal(t, wire.MessageContactInfoUpdate, h.Type)
	contacts, err := scene.DecodeContacts(c)
	require.NoError(t, err)
	assert.Greater(t, contacts.ConfigurationNumber, poses.ConfigurationNumber)

	_, h = roundTrip(t, conn, buf, wire.RequestChangeRealtimeFactor)
	assert.Equal(t, wire.MessageNoMessage, h.Type)

	assert.Equal(t, []wire.ClientMessageType{
		wire.RequestConfigXML,
		wire.RequestInitialization,
		wire.RequestObjectPosition,
		wire.RequestContactInfos,
		wire.RequestChangeRealtimeFactor,
	}, srv.Requests())
}

func TestServerDropsOnRequest(t *testing.T) {
	script := NewScript().PushError(wire.RequestObjectPosition, ErrDrop)
	srv := New(script, customlog.Discard())
	require.NoError(t, srv.Start("127.0.0.1:0"))
	defer srv.Close()

	conn, err := net.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(wire.EncodeRequest(wire.RequestObjectPosition))
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = wire.ReadChunked(conn, wire.NewBuffer(0))
	assert.ErrorIs(t, err, wire.ErrConnectionClosed)
}

func TestScriptQueuesBeforeDefaults(t *testing.T) {
	script := NewScript().
		Set(wire.RequestPause, StatusMessage(wire.StatusHibernating)).
		Push(wire.RequestPause, Terminating())

	first, err := script.Respond(wire.RequestPause)
	require.NoError(t, err)
	assert.Equal(t, Terminating(), first)

	second, err := script.Respond(wire.RequestPause)
	require.NoError(t, err)
	assert.Equal(t, StatusMessage(wire.StatusHibernating), second)

	other, err := script.Respond(wire.RequestResource)
	require.NoError(t, err)
	assert.Equal(t, NoMessage(wire.StatusRendering), other)
}

func TestWorldPauseFreezesTime(t *testing.T) {
	now := time.Unix(100, 0)
	w := newWorldAt(func() time.Time { return now })

	now = now.Add(time.Second)
	_, err := w.Respond(wire.RequestPause)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, w.elapsed(), 1e-9)

	now = now.Add(5 * time.Second)
	assert.InDelta(t, 1.0, w.elapsed(), 1e-9)

	payload, err := w.Respond(wire.RequestObjectPosition)
	require.NoError(t, err)
	h, err := wire.ReadHeader(wire.NewCursor(payload))
	require.NoError(t, err)
	assert.Equal(t, wire.StatusHibernating, h.Status)

	_, err = w.Respond(wire.RequestResume)
	require.NoError(t, err)
	now = now.Add(time.Second)
	assert.InDelta(t, 2.0, w.elapsed(), 1e-9)
}

func TestWorldTerminate(t *testing.T) {
	w := NewWorld()
	w.Terminate()
	payload, err := w.Respond(wire.RequestObjectPosition)
	require.NoError(t, err)
	assert.Equal(t, Terminating(), payload)
}

func TestBallContactsOnlyNearGround(t *testing.T) {
	w := NewWorld()
	// sin(pi*t) is zero at t=1, the ball touches down
	assert.Len(t, w.contacts(1), 5)
	assert.Len(t, w.contacts(0.5), 4)
}
