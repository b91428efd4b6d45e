package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
)

var droppedLogTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "dropped_log_events_total",
		Help: "Log messages dropped by the non-blocking writer",
	},
)

func init() {
	prometheus.MustRegister(droppedLogTotal)
}

type Options struct {
	Env    string
	Debug  bool
	Writer io.Writer
}

// New builds the process logger. Local runs get a console writer; other
// environments write JSON through a ring buffer that drops on contention.
func New(opts Options) zerolog.Logger {
	var w io.Writer
	switch {
	case opts.Writer != nil:
		w = opts.Writer
	case opts.Env == "" || opts.Env == "local":
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	default:
		w = diode.NewWriter(os.Stdout, 1000, 20*time.Millisecond, func(missed int) {
			droppedLogTotal.Add(float64(missed))
		})
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "castingcall").Logger()
}

// Setup builds a logger and attaches it to ctx.
func Setup(ctx context.Context, opts Options) (context.Context, *zerolog.Logger) {
	l := New(opts)
	return l.WithContext(ctx), &l
}
