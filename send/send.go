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

	"github.com/spf13/cobra"

	"serialgreet/config"
	"serialgreet/logging"
	"serialgreet/message"
	"serialgreet/metrics"
	"serialgreet/serialcomm"
	"serialgreet/writer"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// deps are the seams tests replace; zero values mean the real thing.
type deps struct {
	open         serialcomm.Opener
	clock        writer.Clock
	listPorts    func() ([]string, error)
	serveMetrics func(ctx context.Context, addr string) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code, err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr, deps{})
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "send: %v\n", err)
	}
	os.Exit(code)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer, d deps) (int, error) {
	root := newRootCmd(stdout, stderr, d)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return exitCode(err), err
}

func exitCode(err error) int {
	var ce *configError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ce):
		return exitConfig
	default:
		return exitRuntime
	}
}

type rootFlags struct {
	configPath  string
	envFile     string
	baud        int
	interval    time.Duration
	pattern     string
	metricsAddr string
	logLevel    string
}

func newRootCmd(stdout, stderr io.Writer, d deps) *cobra.Command {
	var f rootFlags

	cmd := &cobra.Command{
		Use:   "send [device]",
		Short: "Write the greeting frame to a serial port twice a second",
		Long: `send opens a serial device and writes a fixed test frame to it on a fixed
interval until interrupted. The default frame is "Hello, " followed by "World"
with every byte shifted by 0x7E, then " \0Again\r\n", which exercises how a
monitor renders invisible and high bytes.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolve(cmd, f, args)
			if err != nil {
				return err
			}
			return runWriter(cmd.Context(), cfg, stderr, d)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "TOML config file (default ./"+config.DefaultFile+" when present)")
	pf.StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before reading SERIALGREET_* variables")
	pf.StringVar(&f.pattern, "pattern", message.PatternInvisibles, "frame pattern: invisibles or colors")
	pf.StringVar(&f.logLevel, "log-level", "info", "trace, debug, info, warn, error or disabled")

	fl := cmd.Flags()
	fl.IntVar(&f.baud, "baud", serialcomm.DefaultBaud, "baud rate")
	fl.DurationVar(&f.interval, "interval", writer.DefaultInterval, "delay before each frame")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this host:port")

	cmd.AddCommand(newPortsCmd(stdout, d), newFrameCmd(stdout, &f))
	return cmd
}

func resolve(cmd *cobra.Command, f rootFlags, args []string) (config.Config, error) {
	var o config.Overrides
	if len(args) == 1 {
		o.Device = &args[0]
	}
	if changed(cmd, "baud") {
		o.Baud = &f.baud
	}
	if changed(cmd, "interval") {
		o.Interval = &f.interval
	}
	if changed(cmd, "pattern") {
		o.Pattern = &f.pattern
	}
	if changed(cmd, "metrics-addr") {
		o.MetricsAddr = &f.metricsAddr
	}
	if changed(cmd, "log-level") {
		o.LogLevel = &f.logLevel
	}
	cfg, err := config.Resolve(f.configPath, f.envFile, o)
	if err != nil {
		return config.Config{}, &configError{err}
	}
	return cfg, nil
}

func changed(cmd *cobra.Command, name string) bool {
	fl := cmd.Flags().Lookup(name)
	return fl != nil && fl.Changed
}

func runWriter(ctx context.Context, cfg config.Config, stderr io.Writer, d deps) error {
	log := logging.New("send", stderr, cfg.LogLevel)

	pattern, err := message.New(cfg.Pattern, nil)
	if err != nil {
		return &configError{err}
	}

	if cfg.MetricsAddr != "" {
		serve := d.serveMetrics
		if serve == nil {
			serve = metrics.Serve
		}
		metricsCtx, stopMetrics := context.WithCancel(ctx)
		stopped := make(chan struct{})
		go func() {
			defer close(stopped)
			if err := serve(metricsCtx, cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics listener")
			}
		}()
		defer func() {
			stopMetrics()
			<-stopped
		}()
	}

	err = writer.Session(ctx, writer.Options{
		Serial:   cfg.Serial(),
		Interval: cfg.Interval,
		Pattern:  pattern,
		Clock:    d.clock,
		Logger:   log,
		Open:     d.open,
	})
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("interrupted")
		return nil
	}
	return err
}
