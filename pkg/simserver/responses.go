package simserver

import (
	"github.com/open-teleop/simviz/pkg/scene"
	"github.com/open-teleop/simviz/pkg/wire"
)

func header(status wire.ServerStatus, mt wire.ServerMessageType) *wire.Writer {
	w := wire.NewWriter()
	w.PutHeader(wire.Header{Status: status, Type: mt})
	return w
}

// Terminating is the payload of a server shutting down.
func Terminating() []byte {
	return header(wire.StatusTerminating, 0).Bytes()
}

// NoMessage answers a request the server has nothing for.
func NoMessage(status wire.ServerStatus) []byte {
	return header(status, wire.MessageNoMessage).Bytes()
}

// StatusMessage answers a control request.
func StatusMessage(status wire.ServerStatus) []byte {
	return header(status, wire.MessageStatus).Bytes()
}

// ConfigXML carries the appearance document.
func ConfigXML(status wire.ServerStatus, doc string) []byte {
	w := header(status, wire.MessageConfigXML)
	w.PutString(doc)
	return w.Bytes()
}

// Initialization carries the full scene.
func Initialization(status wire.ServerStatus, init *scene.Initialization) ([]byte, error) {
	w := header(status, wire.MessageInitialization)
	if err := scene.EncodeInitialization(w, init); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Positions carries one pose group per object.
func Positions(status wire.ServerStatus, configurationNumber uint64, groups [][]scene.PoseUpdate) []byte {
	w := header(status, wire.MessageObjectPositionUpdate)
	scene.EncodePositions(w, configurationNumber, groups)
	return w.Bytes()
}

// Contacts carries the complete contact list.
func Contacts(status wire.ServerStatus, configurationNumber uint64, contacts []scene.ContactEvent) []byte {
	w := header(status, wire.MessageContactInfoUpdate)
	scene.EncodeContacts(w, configurationNumber, contacts)
	return w.Bytes()
}
