// Package writer owns the serial channel for the life of the process and
// emits one frame per interval until it is cancelled or a write fails.
package writer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"serialgreet/message"
	"serialgreet/metrics"
	"serialgreet/serialcomm"
)

const DefaultInterval = 500 * time.Millisecond

// Options configures a writer session.
type Options struct {
	Serial   serialcomm.SerialConfig
	Interval time.Duration
	Pattern  message.Pattern
	Clock    Clock
	Logger   zerolog.Logger
	// Open acquires the channel; serialcomm.Open when nil.
	Open serialcomm.Opener
}

// Writer emits frames from a Pattern onto an already open sender.
type Writer struct {
	sender   serialcomm.SerialSender
	pattern  message.Pattern
	interval time.Duration
	clock    Clock
	log      zerolog.Logger
}

func New(sender serialcomm.SerialSender, opts Options) *Writer {
	w := &Writer{
		sender:   sender,
		pattern:  opts.Pattern,
		interval: opts.Interval,
		clock:    opts.Clock,
		log:      opts.Logger,
	}
	if w.pattern == nil {
		w.pattern = message.Invisibles{}
	}
	if w.interval <= 0 {
		w.interval = DefaultInterval
	}
	if w.clock == nil {
		w.clock = RealClock{}
	}
	return w
}

// Run sleeps, builds a frame and writes it, forever. It returns ctx.Err() once
// ctx is done and a *serialcomm.TransmissionError when a write fails.
func (w *Writer) Run(ctx context.Context) error {
	for {
		if err := w.clock.Sleep(ctx, w.interval); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		frame := w.pattern.Frame()
		w.log.Debug().
			Str("pattern", w.pattern.Name()).
			Str("frame", serialcomm.Escape(frame)).
			Str("crc16", fmt.Sprintf("%04x", serialcomm.Checksum(frame))).
			Msg("sending message")

		if err := w.sender.Send(frame); err != nil {
			metrics.RecordWriteError(metrics.ErrorTransmission)
			return err
		}
		metrics.RecordFrame(len(frame))
	}
}

// Session opens the channel, runs a Writer on it and releases the channel on
// every exit path. An open failure is a *serialcomm.ChannelUnavailableError
// and nothing is written.
func Session(ctx context.Context, opts Options) error {
	sender, err := serialcomm.NewSerialSender(opts.Serial, opts.Open)
	if err != nil {
		metrics.RecordWriteError(metrics.ErrorOpen)
		return err
	}
	log := opts.Logger.With().Str("device", opts.Serial.PortName).Logger()
	log.Info().Int("baud", opts.Serial.BaudRate).Dur("interval", opts.Interval).Msg("channel open")

	defer func() {
		if cerr := sender.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("close channel")
			return
		}
		log.Info().Msg("channel closed")
	}()

	err = New(sender, opts).Run(ctx)
	var te *serialcomm.TransmissionError
	if errors.As(err, &te) {
		log.Error().Err(te.Err).Int("written", te.Written).Int("frame_len", len(te.Frame)).Msg("transmission failed")
	}
	return err
}
