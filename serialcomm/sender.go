package serialcomm

import (
	"errors"
	"io"
	"sync"

	"github.com/tarm/serial"
)

var openPort = func(c *serial.Config) (Channel, error) {
	return serial.OpenPort(c)
}

// Open acquires the device named in cfg. Failures are *ChannelUnavailableError.
func Open(cfg SerialConfig) (Channel, error) {
	portCfg := &serial.Config{
		Name:        cfg.PortName,
		Baud:        cfg.BaudRate,
		Parity:      serial.ParityNone,
		ReadTimeout: cfg.ReadTimeout,
	}
	port, err := openPort(portCfg)
	if err != nil {
		return nil, unavailable(cfg.PortName, err)
	}
	return port, nil
}

// WriteFull writes frame to w until every byte is accepted. A write that makes
// no progress without an error is reported as io.ErrShortWrite.
func WriteFull(w io.Writer, frame []byte) (int, error) {
	written := 0
	for written < len(frame) {
		n, err := w.Write(frame[written:])
		written += n
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}

type serialSenderImpl struct {
	device    string
	ch        Channel
	closeOnce sync.Once
	closeErr  error
}

// NewSerialSender opens cfg with open (Open when nil) and returns a sender
// bound to the channel.
func NewSerialSender(cfg SerialConfig, open Opener) (SerialSender, error) {
	if open == nil {
		open = Open
	}
	ch, err := open(cfg)
	if err != nil {
		var cu *ChannelUnavailableError
		if errors.As(err, &cu) {
			return nil, err
		}
		return nil, unavailable(cfg.PortName, err)
	}
	return &serialSenderImpl{device: cfg.PortName, ch: ch}, nil
}

func (s *serialSenderImpl) Send(frame []byte) error {
	n, err := WriteFull(s.ch, frame)
	if err != nil {
		return &TransmissionError{Device: s.device, Frame: frame, Written: n, Err: err}
	}
	return nil
}

// Close releases the channel. Only the first call reaches the device.
func (s *serialSenderImpl) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.ch.Close()
	})
	return s.closeErr
}
