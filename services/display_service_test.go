package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	customlog "github.com/open-teleop/simviz/pkg/log"
	"github.com/open-teleop/simviz/pkg/scene"
)

type changeRecorder struct {
	changes chan scene.DisplayFlags
}

func (r *changeRecorder) PublishDisplayChanged(flags scene.DisplayFlags) error {
	r.changes <- flags
	return nil
}

func TestDisplayServiceWithoutPersistence(t *testing.T) {
	svc, err := NewDisplayService(scene.DefaultDisplayFlags(), "", customlog.Discard())
	require.NoError(t, err)
	assert.Equal(t, scene.DefaultDisplayFlags(), svc.DisplayFlags())

	rec := &changeRecorder{changes: make(chan scene.DisplayFlags, 1)}
	svc.SetPublisher(rec)

	want := scene.DisplayFlags{Collision: true}
	require.NoError(t, svc.UpdateFlags(want))
	assert.Equal(t, want, svc.DisplayFlags())

	select {
	case got := <-rec.changes:
		assert.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatal("display change was not published")
	}

	// unchanged flags publish nothing
	require.NoError(t, svc.UpdateFlags(want))
	select {
	case got := <-rec.changes:
		t.Fatalf("unexpected publish %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDisplayServicePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "display.yaml")

	svc, err := NewDisplayService(scene.DefaultDisplayFlags(), path, customlog.Discard())
	require.NoError(t, err)
	assert.NoFileExists(t, path)

	require.NoError(t, svc.UpdateFlagsYAML([]byte("collision: true\ncontact_forces: false\n")))
	want := scene.DisplayFlags{Visual: true, Collision: true, ContactPoints: true}
	assert.Equal(t, want, svc.DisplayFlags())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk scene.DisplayFlags
	require.NoError(t, yaml.Unmarshal(data, &onDisk))
	assert.Equal(t, want, onDisk)

	reloaded, err := NewDisplayService(scene.DefaultDisplayFlags(), path, customlog.Discard())
	require.NoError(t, err)
	assert.Equal(t, want, reloaded.DisplayFlags())

	out, err := reloaded.GetCurrentStateYAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "collision: true")
}

func TestDisplayServiceRejectsBadState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "display.yaml")
	require.NoError(t, os.WriteFile(path, []byte("visual: ["), 0644))

	_, err := NewDisplayService(scene.DefaultDisplayFlags(), path, customlog.Discard())
	assert.ErrorContains(t, err, "error parsing display state file")

	svc, err := NewDisplayService(scene.DefaultDisplayFlags(), "", customlog.Discard())
	require.NoError(t, err)
	assert.ErrorIs(t, svc.UpdateFlagsYAML([]byte("visual: [")), ErrInvalidDisplayState)
	assert.Equal(t, scene.DefaultDisplayFlags(), svc.DisplayFlags())
}

func TestDisplayServiceWriteFailureKeepsFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "display.yaml")
	svc, err := NewDisplayService(scene.DefaultDisplayFlags(), path, customlog.Discard())
	require.NoError(t, err)

	assert.Error(t, svc.UpdateFlags(scene.DisplayFlags{}))
	assert.Equal(t, scene.DefaultDisplayFlags(), svc.DisplayFlags())
}
