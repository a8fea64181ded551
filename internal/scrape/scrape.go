package scrape

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/neox5/doglessdata/emitter"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// DefaultMaxLineSize bounds a single log line. Longer lines are skipped.
const DefaultMaxLineSize = 1 << 20

// Handler receives every parsed sample.
type Handler func(emitter.Sample)

// Stats counts what a Scanner has seen so far.
type Stats struct {
	Lines       int64
	Samples     int64
	Malformed   int64
	Oversized   int64
	Passthrough int64
}

// Scanner reads a log stream, hands MONITORING lines to a Handler and copies
// every other line to an optional passthrough writer.
type Scanner struct {
	passthrough io.Writer
	logger      *slog.Logger
	jsonField   string
	maxLineSize int

	// warn throttles malformed line warnings on noisy streams.
	warn rate.Sometimes

	lines     atomic.Int64
	samples   atomic.Int64
	malformed atomic.Int64
	oversized atomic.Int64
	forwarded atomic.Int64
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithJSONField unwraps JSON log records, reading the metric line from the
// gjson path (e.g. "message"). Lines that are not JSON are scanned as is.
func WithJSONField(path string) Option {
	return func(s *Scanner) {
		s.jsonField = path
	}
}

// WithMaxLineSize changes the longest line read, newline excluded.
func WithMaxLineSize(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.maxLineSize = n
		}
	}
}

// New creates a Scanner. passthrough may be nil to drop non-metric lines.
func New(passthrough io.Writer, logger *slog.Logger, opts ...Option) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scanner{
		passthrough: passthrough,
		logger:      logger,
		maxLineSize: DefaultMaxLineSize,
		warn:        rate.Sometimes{First: 10, Interval: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scans r until EOF or until ctx is cancelled. Malformed and oversized
// lines are logged and counted, never fatal.
func (s *Scanner) Run(ctx context.Context, r io.Reader, handle Handler) error {
	br := bufio.NewReaderSize(r, 64*1024)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, oversized, n, err := s.readLine(br)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read input: %w", err)
		}
		// A final read at EOF with nothing consumed is not a line.
		if err == nil || n > 0 {
			s.handleLine(line, oversized, n, handle)
		}
		if err != nil {
			return nil
		}
	}
}

// readLine returns the next line without its line ending and the number of
// bytes consumed. A line longer than maxLineSize is drained and reported as
// oversized without its content.
func (s *Scanner) readLine(br *bufio.Reader) (line string, oversized bool, n int, err error) {
	var buf []byte
	for {
		var chunk []byte
		chunk, err = br.ReadSlice('\n')
		n += len(chunk)
		if !oversized {
			// +2 leaves room for a "\r\n" line ending
			if len(buf)+len(chunk) > s.maxLineSize+2 {
				oversized = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			break
		}
	}

	line = strings.TrimRight(string(buf), "\r\n")
	if len(line) > s.maxLineSize {
		oversized = true
		line = ""
	}
	return line, oversized, n, err
}

func (s *Scanner) handleLine(line string, oversized bool, n int, handle Handler) {
	s.lines.Add(1)

	if oversized {
		s.oversized.Add(1)
		s.warn.Do(func() {
			s.logger.Warn("skipping oversized line", "bytes", n, "max", s.maxLineSize, "oversized_total", s.oversized.Load())
		})
		return
	}

	sample, err := emitter.ParseLine(s.unwrap(line))
	switch {
	case err == nil:
		s.samples.Add(1)
		handle(sample)
	case errors.Is(err, emitter.ErrNotMetricLine):
		s.forward(line)
	default:
		s.malformed.Add(1)
		s.warn.Do(func() {
			s.logger.Warn("skipping malformed metric line", "error", err, "malformed_total", s.malformed.Load())
		})
	}
}

// Stats returns the current counters.
func (s *Scanner) Stats() Stats {
	return Stats{
		Lines:       s.lines.Load(),
		Samples:     s.samples.Load(),
		Malformed:   s.malformed.Load(),
		Oversized:   s.oversized.Load(),
		Passthrough: s.forwarded.Load(),
	}
}

// unwrap returns the configured JSON field of a JSON record, or line itself.
func (s *Scanner) unwrap(line string) string {
	if s.jsonField == "" || !strings.HasPrefix(line, "{") {
		return line
	}
	if v := gjson.Get(line, s.jsonField); v.Type == gjson.String {
		return v.String()
	}
	return line
}

func (s *Scanner) forward(line string) {
	if s.passthrough == nil {
		return
	}
	s.forwarded.Add(1)
	if _, err := fmt.Fprintln(s.passthrough, line); err != nil {
		s.logger.Debug("failed to forward log line", "error", err)
	}
}
