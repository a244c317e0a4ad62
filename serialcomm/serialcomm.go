// Package serialcomm wraps a serial device as a Channel: open it, push whole
// frames through it, read what comes back, and release it.
package serialcomm

import (
	"io"
	"time"
)

const (
	DefaultDevice = "COM1_out"
	DefaultBaud   = 9600
)

// SerialConfig names the device and line settings used to open a Channel.
type SerialConfig struct {
	PortName    string
	BaudRate    int
	ReadTimeout time.Duration
}

// Channel is an open serial endpoint. Port in tarm/serial satisfies it.
type Channel interface {
	io.Reader
	io.Writer
	io.Closer
}

// Opener acquires a Channel. Open is the production implementation.
type Opener func(cfg SerialConfig) (Channel, error)

// SerialSender pushes complete frames onto an open channel.
type SerialSender interface {
	Send(frame []byte) error
	Close() error
}
