// Package logging builds the zerolog logger used for diagnostics. User-facing
// command output never goes through it.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Output destinations other than a file path.
const (
	Stdout = "stdout"
	Stderr = "stderr"
)

// Options configures a logger.
type Options struct {
	Level      string // trace, debug, info, warn, error or disabled
	Format     string // console or json
	Output     string // stdout, stderr or a file path; empty means stderr
	TimeFormat string
	NoColor    bool
}

// New returns a logger configured by opts. The returned closer releases the
// log file when Output names one and is a no-op otherwise.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("logging: invalid level %q: %w", opts.Level, err)
	}

	var (
		out    io.Writer
		closer io.Closer = nopCloser{}
	)
	switch opts.Output {
	case "", Stderr:
		out = os.Stderr
	case Stdout:
		out = os.Stdout
	default:
		f, err := os.OpenFile(opts.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("logging: open %s: %w", opts.Output, err)
		}
		out, closer = f, f
	}

	return build(out, level, opts), closer, nil
}

// NewWriter returns a logger writing to w, for tests and embedding.
func NewWriter(w io.Writer, opts Options) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("logging: invalid level %q: %w", opts.Level, err)
	}
	return build(w, level, opts), nil
}

func build(out io.Writer, level zerolog.Level, opts Options) zerolog.Logger {
	tf := opts.TimeFormat
	if tf == "" {
		tf = time.RFC3339
	}
	if opts.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: tf, NoColor: opts.NoColor}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
