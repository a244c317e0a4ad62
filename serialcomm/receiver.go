package serialcomm

import (
	"context"
	"errors"
	"io"
)

// ChunkHandler receives every non-empty chunk read from the channel. The
// slice is only valid for the duration of the call.
type ChunkHandler func(chunk []byte)

// SerialReceiver drains a channel and hands what it reads to a ChunkHandler.
type SerialReceiver struct {
	ch      Channel
	handler ChunkHandler
	bufSize int
}

func NewSerialReceiver(ch Channel, handler ChunkHandler) *SerialReceiver {
	return &SerialReceiver{ch: ch, handler: handler, bufSize: 1024}
}

// Run reads until ctx is cancelled or the channel fails. A read that returns
// io.EOF with no data is a read timeout and is retried.
func (r *SerialReceiver) Run(ctx context.Context) error {
	data := make([]byte, r.bufSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := r.ch.Read(data)
		if n > 0 && r.handler != nil {
			r.handler(data[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) && n == 0 {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}
