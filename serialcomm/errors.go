package serialcomm

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Reason classifies why a device could not be opened.
type Reason string

const (
	ReasonNotFound   Reason = "not-found"
	ReasonBusy       Reason = "busy"
	ReasonPermission Reason = "permission"
	ReasonUnknown    Reason = "unknown"
)

// ChannelUnavailableError is returned when a device cannot be acquired.
type ChannelUnavailableError struct {
	Device string
	Reason Reason
	Err    error
}

func (e *ChannelUnavailableError) Error() string {
	return fmt.Sprintf("channel %q unavailable (%s): %v", e.Device, e.Reason, e.Err)
}

func (e *ChannelUnavailableError) Unwrap() error { return e.Err }

// TransmissionError is returned when a frame could not be fully written to an
// open channel.
type TransmissionError struct {
	Device  string
	Frame   []byte
	Written int
	Err     error
}

func (e *TransmissionError) Error() string {
	return fmt.Sprintf("write to %q failed after %d/%d bytes: %v", e.Device, e.Written, len(e.Frame), e.Err)
}

func (e *TransmissionError) Unwrap() error { return e.Err }

func classifyOpenError(err error) Reason {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ReasonNotFound
	case errors.Is(err, fs.ErrPermission):
		return ReasonPermission
	case errors.Is(err, syscall.EBUSY):
		return ReasonBusy
	default:
		return ReasonUnknown
	}
}

func unavailable(device string, err error) *ChannelUnavailableError {
	return &ChannelUnavailableError{Device: device, Reason: classifyOpenError(err), Err: err}
}
