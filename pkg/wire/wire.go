// Package wire holds the byte-level contract with the simulation server.
//
// Requests are a single native-endian int32 opcode. Responses are split into
// PacketSize chunks whose last byte is a continuation sentinel; the logical
// payload starts with a ServerStatus and, unless the server is terminating,
// a ServerMessageType.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Framing constants.
const (
	PacketSize       = 4096
	SentinelSize     = 1
	ChunkPayloadSize = PacketSize - SentinelSize
	MaxBufferSize    = 32 << 20

	// SentinelMore marks a chunk that is followed by another chunk.
	SentinelMore byte = 'c'
	// SentinelEnd marks the final chunk. Any byte other than SentinelMore ends the response.
	SentinelEnd byte = 'e'
)

// ByteOrder is the order used for every multi-byte field.
var ByteOrder = binary.NativeEndian

// ServerStatus is the first field of every response.
type ServerStatus int32

const (
	StatusRendering   ServerStatus = 0
	StatusHibernating ServerStatus = 1
	StatusTerminating ServerStatus = 2
)

func (s ServerStatus) String() string {
	switch s {
	case StatusRendering:
		return "rendering"
	case StatusHibernating:
		return "hibernating"
	case StatusTerminating:
		return "terminating"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// ServerMessageType tags the payload that follows the status.
type ServerMessageType int32

const (
	MessageInitialization       ServerMessageType = 0
	MessageObjectPositionUpdate ServerMessageType = 1
	MessageStatus               ServerMessageType = 2
	MessageNoMessage            ServerMessageType = 3
	MessageContactInfoUpdate    ServerMessageType = 4
	MessageConfigXML            ServerMessageType = 5
)

func (m ServerMessageType) String() string {
	switch m {
	case MessageInitialization:
		return "initialization"
	case MessageObjectPositionUpdate:
		return "object_position_update"
	case MessageStatus:
		return "status"
	case MessageNoMessage:
		return "no_message"
	case MessageContactInfoUpdate:
		return "contact_info_update"
	case MessageConfigXML:
		return "config_xml"
	default:
		return fmt.Sprintf("message(%d)", int32(m))
	}
}

// ClientMessageType is the request opcode.
type ClientMessageType int32

const (
	RequestObjectPosition       ClientMessageType = 0
	RequestInitialization       ClientMessageType = 1
	RequestResource             ClientMessageType = 2
	RequestChangeRealtimeFactor ClientMessageType = 3
	RequestContactSolverDetails ClientMessageType = 4
	RequestPause                ClientMessageType = 5
	RequestResume               ClientMessageType = 6
	RequestContactInfos         ClientMessageType = 7
	RequestConfigXML            ClientMessageType = 8
)

func (c ClientMessageType) String() string {
	switch c {
	case RequestObjectPosition:
		return "request_object_position"
	case RequestInitialization:
		return "request_initialization"
	case RequestResource:
		return "request_resource"
	case RequestChangeRealtimeFactor:
		return "request_change_realtime_factor"
	case RequestContactSolverDetails:
		return "request_contact_solver_details"
	case RequestPause:
		return "request_pause"
	case RequestResume:
		return "request_resume"
	case RequestContactInfos:
		return "request_contact_infos"
	case RequestConfigXML:
		return "request_config_xml"
	default:
		return fmt.Sprintf("request(%d)", int32(c))
	}
}

// OpcodeSize is the length of an encoded request.
const OpcodeSize = 4

// EncodeRequest returns the bytes of one request.
func EncodeRequest(op ClientMessageType) []byte {
	buf := make([]byte, OpcodeSize)
	ByteOrder.PutUint32(buf, uint32(op))
	return buf
}

// DecodeRequest is the server side of EncodeRequest.
func DecodeRequest(b []byte) (ClientMessageType, error) {
	if len(b) != OpcodeSize {
		return 0, fmt.Errorf("wire: invalid opcode length: %d", len(b))
	}
	op := ClientMessageType(int32(ByteOrder.Uint32(b)))
	if op < RequestObjectPosition || op > RequestConfigXML {
		return 0, fmt.Errorf("wire: unknown opcode %d", int32(op))
	}
	return op, nil
}
