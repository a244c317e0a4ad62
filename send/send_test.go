package main

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serialgreet/message"
	"serialgreet/serialcomm"
)

type countingClock struct {
	left   int
	cancel context.CancelFunc
}

func (c *countingClock) Sleep(ctx context.Context, d time.Duration) error {
	if c.left == 0 {
		c.cancel()
		return ctx.Err()
	}
	c.left--
	return nil
}

type loopback struct {
	bytes.Buffer
	name   string
	closes int
}

func (l *loopback) Close() error {
	l.closes++
	return nil
}

func TestSendWritesFramesUntilInterrupted(t *testing.T) {
	t.Setenv("SERIALGREET_LOG_LEVEL", "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	port := &loopback{}
	d := deps{
		open: func(cfg serialcomm.SerialConfig) (serialcomm.Channel, error) {
			port.name = cfg.PortName
			return port, nil
		},
		clock: &countingClock{left: 3, cancel: cancel},
	}

	var stdout, stderr bytes.Buffer
	code, err := execute(ctx, []string{"/dev/ttyUSB7", "--baud", "115200"}, &stdout, &stderr, d)

	require.NoError(t, err)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "/dev/ttyUSB7", port.name)
	assert.Equal(t, bytes.Repeat(message.Greeting(), 3), port.Bytes())
	assert.Equal(t, 1, port.closes)
	assert.Contains(t, stderr.String(), "channel open")
	assert.Contains(t, stderr.String(), "channel closed")
}

func TestSendOpenFailureExitsRuntime(t *testing.T) {
	d := deps{
		open: func(serialcomm.SerialConfig) (serialcomm.Channel, error) {
			return nil, &fs.PathError{Op: "open", Path: "COM1_out", Err: fs.ErrNotExist}
		},
		clock: &countingClock{left: 10, cancel: func() {}},
	}

	var stdout, stderr bytes.Buffer
	code, err := execute(context.Background(), nil, &stdout, &stderr, d)

	assert.Equal(t, exitRuntime, code)
	var cu *serialcomm.ChannelUnavailableError
	require.ErrorAs(t, err, &cu)
	assert.Equal(t, "COM1_out", cu.Device)
	assert.Equal(t, serialcomm.ReasonNotFound, cu.Reason)
}

type brokenPort struct{ loopback }

func (b *brokenPort) Write(p []byte) (int, error) { return 0, errors.New("cable pulled") }

func TestSendWriteFailureExitsRuntime(t *testing.T) {
	port := &brokenPort{}
	d := deps{
		open:  func(serialcomm.SerialConfig) (serialcomm.Channel, error) { return port, nil },
		clock: &countingClock{left: 10, cancel: func() {}},
	}

	var stdout, stderr bytes.Buffer
	code, err := execute(context.Background(), nil, &stdout, &stderr, d)

	assert.Equal(t, exitRuntime, code)
	var te *serialcomm.TransmissionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 1, port.closes)
}

func TestSendConfigErrorsExitConfig(t *testing.T) {
	cases := [][]string{
		{"--pattern", "rainbow"},
		{"--interval", "0s"},
		{"--baud", "0"},
		{"--config", "/nonexistent/serialgreet.toml"},
	}
	for _, args := range cases {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			d := deps{open: func(serialcomm.SerialConfig) (serialcomm.Channel, error) {
				t.Fatal("port opened despite bad config")
				return nil, nil
			}}
			var stdout, stderr bytes.Buffer
			code, err := execute(context.Background(), args, &stdout, &stderr, d)
			require.Error(t, err)
			assert.Equal(t, exitConfig, code)
		})
	}
}

func TestFrameCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code, err := execute(context.Background(), []string{"frame"}, &stdout, &stderr, deps{})
	require.NoError(t, err)
	assert.Equal(t, exitOK, code)

	out := stdout.String()
	assert.Contains(t, out, "pattern: invisibles")
	assert.Contains(t, out, "length:  21")
	assert.Contains(t, out, "hex:     48 65 6c 6c 6f 2c 20 d5 ed f0 ea e2 20 00 41 67 61 69 6e 0d 0a")
	assert.Contains(t, out, `text:    Hello, \xd5\xed\xf0\xea\xe2 \x00Again\r\n`)
}

func TestFrameCommandUnknownPattern(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code, err := execute(context.Background(), []string{"frame", "--pattern", "nope"}, &stdout, &stderr, deps{})
	require.Error(t, err)
	assert.Equal(t, exitConfig, code)
}

func TestPortsCommand(t *testing.T) {
	d := deps{listPorts: func() ([]string, error) { return []string{"/dev/ttyACM0", "/dev/ttyUSB0"}, nil }}
	var stdout, stderr bytes.Buffer
	code, err := execute(context.Background(), []string{"ports"}, &stdout, &stderr, d)
	require.NoError(t, err)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "/dev/ttyACM0\n/dev/ttyUSB0\n", stdout.String())

	stdout.Reset()
	d.listPorts = func() ([]string, error) { return nil, nil }
	_, err = execute(context.Background(), []string{"ports"}, &stdout, &stderr, d)
	require.NoError(t, err)
	assert.Equal(t, "no serial ports found\n", stdout.String())
}

func TestSendLogLevelFlagBeatsEnvironment(t *testing.T) {
	t.Setenv("SERIALGREET_LOG_LEVEL", "debug")
	t.Setenv("SERIALGREET_LOG_NOCOLOR", "1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := deps{
		open:  func(serialcomm.SerialConfig) (serialcomm.Channel, error) { return &loopback{}, nil },
		clock: &countingClock{left: 1, cancel: cancel},
	}

	var stdout, stderr bytes.Buffer
	code, err := execute(ctx, []string{"--log-level", "error"}, &stdout, &stderr, d)

	require.NoError(t, err)
	assert.Equal(t, exitOK, code)
	assert.NotContains(t, stderr.String(), "sending message")
	assert.NotContains(t, stderr.String(), "channel open")
}

func TestSendEnvironmentLogLevelApplies(t *testing.T) {
	t.Setenv("SERIALGREET_LOG_LEVEL", "debug")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := deps{
		open:  func(serialcomm.SerialConfig) (serialcomm.Channel, error) { return &loopback{}, nil },
		clock: &countingClock{left: 1, cancel: cancel},
	}

	var stdout, stderr bytes.Buffer
	_, err := execute(ctx, nil, &stdout, &stderr, d)
	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "sending message")
}

func TestSendServesMetricsForTheSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var gotAddr string
	served := false
	d := deps{
		open:  func(serialcomm.SerialConfig) (serialcomm.Channel, error) { return &loopback{}, nil },
		clock: &countingClock{left: 2, cancel: cancel},
		serveMetrics: func(ctx context.Context, addr string) error {
			gotAddr = addr
			<-ctx.Done()
			served = true
			return nil
		},
	}

	var stdout, stderr bytes.Buffer
	code, err := execute(ctx, []string{"--metrics-addr", "127.0.0.1:9102"}, &stdout, &stderr, d)

	require.NoError(t, err)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "127.0.0.1:9102", gotAddr)
	assert.True(t, served, "metrics listener still running after send returned")
}

func TestSendWithoutMetricsAddrDoesNotServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := deps{
		open:  func(serialcomm.SerialConfig) (serialcomm.Channel, error) { return &loopback{}, nil },
		clock: &countingClock{left: 1, cancel: cancel},
		serveMetrics: func(context.Context, string) error {
			t.Error("metrics served without --metrics-addr")
			return nil
		},
	}

	var stdout, stderr bytes.Buffer
	_, err := execute(ctx, nil, &stdout, &stderr, d)
	require.NoError(t, err)
}

func TestFrameCommandUsesEnvironmentPattern(t *testing.T) {
	t.Setenv("SERIALGREET_PATTERN", "colors")

	var stdout, stderr bytes.Buffer
	_, err := execute(context.Background(), []string{"frame"}, &stdout, &stderr, deps{})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "pattern: colors")
}

func TestFrameCommandUsesConfigFilePattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serialgreet.toml")
	require.NoError(t, os.WriteFile(path, []byte(`pattern = "colors"`), 0o600))

	var stdout, stderr bytes.Buffer
	_, err := execute(context.Background(), []string{"frame", "--config", path}, &stdout, &stderr, deps{})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "pattern: colors")

	stdout.Reset()
	_, err = execute(context.Background(), []string{"frame", "--config", path, "--pattern", "invisibles"}, &stdout, &stderr, deps{})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "pattern: invisibles")
}
