package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"serialgreet/config"
	"serialgreet/logging"
	"serialgreet/serialcomm"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code, err := execute(ctx, os.Args[1:], color.Output, os.Stderr, nil)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "receive: %v\n", err)
	}
	os.Exit(code)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer, open serialcomm.Opener) (int, error) {
	var (
		configPath  string
		envFile     string
		baud        int
		readTimeout time.Duration
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:           "receive [device]",
		Short:         "Print what arrives on a serial port, highlighting invisible bytes",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var o config.Overrides
			if len(args) == 1 {
				o.Device = &args[0]
			}
			if cmd.Flags().Changed("baud") {
				o.Baud = &baud
			}
			if cmd.Flags().Changed("read-timeout") {
				o.ReadTimeout = &readTimeout
			}
			if cmd.Flags().Changed("log-level") {
				o.LogLevel = &logLevel
			}
			cfg, err := config.Resolve(configPath, envFile, o)
			if err != nil {
				return &configError{err}
			}
			return monitor(cmd.Context(), cfg, stdout, stderr, open)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	fl := cmd.Flags()
	fl.StringVar(&configPath, "config", "", "TOML config file (default ./"+config.DefaultFile+" when present)")
	fl.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading SERIALGREET_* variables")
	fl.IntVar(&baud, "baud", serialcomm.DefaultBaud, "baud rate")
	fl.DurationVar(&readTimeout, "read-timeout", 500*time.Millisecond, "poll interval for reads")
	fl.StringVar(&logLevel, "log-level", "info", "trace, debug, info, warn, error or disabled")

	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	var ce *configError
	switch {
	case err == nil:
		return exitOK, nil
	case errors.As(err, &ce):
		return exitConfig, err
	default:
		return exitRuntime, err
	}
}

func monitor(ctx context.Context, cfg config.Config, stdout, stderr io.Writer, open serialcomm.Opener) error {
	log := logging.New("receive", stderr, cfg.LogLevel)
	if open == nil {
		open = serialcomm.Open
	}

	ch, err := open(cfg.Serial())
	if err != nil {
		return err
	}
	defer func() {
		if err := ch.Close(); err != nil {
			log.Error().Err(err).Msg("close channel")
		}
	}()
	log.Info().Str("device", cfg.Device).Int("baud", cfg.Baud).Msg("listening")

	highlight := color.New(color.FgHiMagenta)
	total := 0
	r := serialcomm.NewSerialReceiver(ch, func(chunk []byte) {
		total += len(chunk)
		render(stdout, chunk, highlight)
		log.Debug().Int("bytes", len(chunk)).Int("total", total).Msg("chunk")
	})

	err = r.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info().Int("total", total).Msg("stopped")
		return nil
	}
	return err
}

// render prints chunk with runs of invisible bytes escaped and highlighted.
// A line feed also ends the printed line so frames stay one per line.
func render(w io.Writer, chunk []byte, highlight *color.Color) {
	for _, seg := range serialcomm.Segments(chunk) {
		if seg.Visible {
			fmt.Fprint(w, seg.Text)
			continue
		}
		fmt.Fprint(w, highlight.Sprint(seg.Text))
	}
	if len(chunk) > 0 && chunk[len(chunk)-1] == '\n' {
		fmt.Fprintln(w)
	}
}
