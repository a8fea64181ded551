package emitter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNotMetricLine is returned for lines that do not start with the MONITORING token.
	ErrNotMetricLine = errors.New("not a metric line")

	// ErrMalformedLine is returned for MONITORING lines that do not follow the grammar.
	ErrMalformedLine = errors.New("malformed metric line")
)

// Sample is one parsed metric line.
type Sample struct {
	Timestamp int64
	Value     float64
	Type      MetricType
	Name      string
	Tags      []string
	Message   string
}

// ParseLine parses a line produced by an Emitter. A trailing newline is ignored.
func ParseLine(line string) (Sample, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, linePrefix+"|") {
		return Sample{}, ErrNotMetricLine
	}

	// The message may itself contain pipes, so split only up to it.
	fields := strings.SplitN(line, "|", 7)
	if len(fields) < 6 {
		return Sample{}, fmt.Errorf("%w: expected at least 6 fields, got %d", ErrMalformedLine, len(fields))
	}

	ts, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Sample{}, fmt.Errorf("%w: timestamp %q: %v", ErrMalformedLine, fields[1], err)
	}

	value, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Sample{}, fmt.Errorf("%w: value %q: %v", ErrMalformedLine, fields[2], err)
	}

	metricType := MetricType(fields[3])
	switch metricType {
	case TypeCount, TypeGauge, TypeHistogram, TypeCheck:
	default:
		return Sample{}, fmt.Errorf("%w: unknown metric type %q", ErrMalformedLine, fields[3])
	}

	if !strings.HasPrefix(fields[5], "#") {
		return Sample{}, fmt.Errorf("%w: tag field must start with '#'", ErrMalformedLine)
	}

	s := Sample{
		Timestamp: ts,
		Value:     value,
		Type:      metricType,
		Name:      fields[4],
	}
	if tags := strings.TrimPrefix(fields[5], "#"); tags != "" {
		s.Tags = strings.Split(tags, ",")
	}

	if len(fields) == 7 {
		msg, ok := strings.CutPrefix(fields[6], "m:")
		if !ok || metricType != TypeCheck {
			return Sample{}, fmt.Errorf("%w: unexpected trailing field %q", ErrMalformedLine, fields[6])
		}
		s.Message = msg
	}

	if metricType == TypeCheck && !Status(int(value)).Valid() {
		return Sample{}, fmt.Errorf("%w: check status %v", ErrMalformedLine, value)
	}

	return s, nil
}
