package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ErrorOpen         = "open"
	ErrorTransmission = "transmission"
)

var (
	registerOnce sync.Once

	framesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "serialgreet",
			Subsystem: "writer",
			Name:      "frames_total",
			Help:      "Frames fully written to the serial channel.",
		},
	)
	bytesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "serialgreet",
			Subsystem: "writer",
			Name:      "bytes_total",
			Help:      "Bytes written to the serial channel.",
		},
	)
	writeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "serialgreet",
			Subsystem: "writer",
			Name:      "errors_total",
			Help:      "Channel failures by kind.",
		},
		[]string{"kind"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesSent, bytesSent, writeErrors)
	})
}

func RecordFrame(n int) {
	framesSent.Inc()
	bytesSent.Add(float64(n))
}

func RecordWriteError(kind string) {
	writeErrors.WithLabelValues(kind).Inc()
}

// Serve exposes the default registry on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", addr, err)
	}
	return ServeListener(ctx, ln)
}

// ServeListener serves /metrics on ln until ctx is done, then shuts down and
// returns nil.
func ServeListener(ctx context.Context, ln net.Listener) error {
	RegisterMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	err := srv.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-stopped
	return nil
}
