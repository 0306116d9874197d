package wire

// Header is the common prefix of every response.
type Header struct {
	Status ServerStatus
	// Type is only meaningful when Status is not StatusTerminating.
	Type ServerMessageType
}

// Terminating reports whether the server is shutting down. No further fields follow.
func (h Header) Terminating() bool {
	return h.Status == StatusTerminating
}

// ReadHeader decodes the status and, unless terminating, the message type.
func ReadHeader(c *Cursor) (Header, error) {
	status, err := c.Int32("server_status")
	if err != nil {
		return Header{}, err
	}
	h := Header{Status: ServerStatus(status)}
	if h.Terminating() {
		return h, nil
	}
	mt, err := c.Int32("server_message_type")
	if err != nil {
		return Header{}, err
	}
	h.Type = ServerMessageType(mt)
	return h, nil
}
