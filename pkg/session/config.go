package session

import (
	"time"

	"github.com/open-teleop/simviz/pkg/wire"
)

// Config holds the connection parameters of a Session.
type Config struct {
	Address        string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxBufferSize  int
	// DropStaleFrames skips applying pose and contact frames whose
	// configuration number does not increase.
	DropStaleFrames bool
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		Address:        "127.0.0.1:8080",
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   2 * time.Second,
		MaxBufferSize:  wire.MaxBufferSize,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.MaxBufferSize < wire.PacketSize || c.MaxBufferSize > wire.MaxBufferSize {
		c.MaxBufferSize = d.MaxBufferSize
	}
	return c
}
