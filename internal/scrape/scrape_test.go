package scrape

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/neox5/doglessdata/emitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const input = `START RequestId: 1 Version: $LATEST
MONITORING|1700000000|1|count|lambda.jobs.run|#lambda,jobs,jobs.run
MONITORING|1700000000|oops|gauge|lambda.queue|#lambda
MONITORING|1700000001|2|check|lambda.db|#lambda|m:slow
END RequestId: 1
`

func TestScannerRun(t *testing.T) {
	passthrough := &bytes.Buffer{}
	s := New(passthrough, nil)

	var samples []emitter.Sample
	err := s.Run(context.Background(), strings.NewReader(input), func(sample emitter.Sample) {
		samples = append(samples, sample)
	})
	require.NoError(t, err)

	require.Len(t, samples, 2)
	assert.Equal(t, "lambda.jobs.run", samples[0].Name)
	assert.Equal(t, emitter.TypeCheck, samples[1].Type)
	assert.Equal(t, "slow", samples[1].Message)

	assert.Equal(t, "START RequestId: 1 Version: $LATEST\nEND RequestId: 1\n", passthrough.String())
	assert.Equal(t, Stats{Lines: 5, Samples: 2, Malformed: 1, Passthrough: 2}, s.Stats())
}

func TestScannerRun_NoPassthrough(t *testing.T) {
	s := New(nil, nil)

	err := s.Run(context.Background(), strings.NewReader(input), func(emitter.Sample) {})
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.Stats().Passthrough)
}

func TestScannerRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(nil, nil)
	err := s.Run(ctx, strings.NewReader(input), func(emitter.Sample) {
		t.Fatal("handler must not be called after cancellation")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScannerRun_EmitterOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	em := emitter.New(emitter.Options{FunctionName: "worker", Output: buf})
	em.Increment("jobs.run")
	em.Gauge("queue.depth", 3)
	em.ServiceCheck("db", emitter.Critical, "down")

	s := New(nil, nil)
	var names []string
	require.NoError(t, s.Run(context.Background(), buf, func(sample emitter.Sample) {
		names = append(names, sample.Name)
	}))

	assert.Equal(t, []string{"lambda.jobs.run", "lambda.queue.depth", "lambda.db"}, names)
}

func TestScannerRun_JSONField(t *testing.T) {
	records := strings.Join([]string{
		`{"timestamp":"2024-01-01T00:00:00Z","level":"INFO","message":"MONITORING|10|4|count|lambda.jobs|#lambda"}`,
		`{"timestamp":"2024-01-01T00:00:01Z","level":"INFO","message":"cold start"}`,
		`{"level":"INFO","message":{"nested":true}}`,
		`MONITORING|11|1|count|lambda.jobs|#lambda`,
	}, "\n")

	passthrough := &bytes.Buffer{}
	s := New(passthrough, nil, WithJSONField("message"))

	var total float64
	require.NoError(t, s.Run(context.Background(), strings.NewReader(records), func(sample emitter.Sample) {
		total += sample.Value
	}))

	assert.Equal(t, float64(5), total)
	assert.Equal(t, Stats{Lines: 4, Samples: 2, Passthrough: 2}, s.Stats())
	assert.Contains(t, passthrough.String(), "cold start")
}

func TestScannerRun_MalformedWarningsThrottled(t *testing.T) {
	logs := &bytes.Buffer{}
	s := New(nil, slog.New(slog.NewTextHandler(logs, nil)))

	bad := strings.Repeat("MONITORING|x\n", 25)
	require.NoError(t, s.Run(context.Background(), strings.NewReader(bad), func(emitter.Sample) {}))

	assert.Equal(t, int64(25), s.Stats().Malformed)
	assert.Equal(t, 10, strings.Count(logs.String(), "skipping malformed metric line"))
}

func TestScannerRun_OversizedLinesSkipped(t *testing.T) {
	huge := strings.Repeat("x", 2*DefaultMaxLineSize)
	stream := "MONITORING|10|1|count|lambda.jobs|#lambda\n" +
		huge + "\n" +
		"MONITORING|11|2|count|lambda.jobs|#lambda\n" +
		"MONITORING|12|" + huge + "|count|lambda.jobs|#lambda"

	passthrough := &bytes.Buffer{}
	s := New(passthrough, nil)

	var total float64
	err := s.Run(context.Background(), strings.NewReader(stream), func(sample emitter.Sample) {
		total += sample.Value
	})
	require.NoError(t, err)

	assert.Equal(t, float64(3), total)
	assert.Equal(t, Stats{Lines: 4, Samples: 2, Oversized: 2}, s.Stats())
	assert.Empty(t, passthrough.String())
}

func TestScannerRun_MaxLineSize(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantSamples   int64
		wantOversized int64
	}{
		{
			name:        "exactly at the limit",
			input:       "MONITORING|1|1|count|lambda.a|#\n",
			wantSamples: 1,
		},
		{
			name:        "at the limit with crlf",
			input:       "MONITORING|1|1|count|lambda.a|#\r\n",
			wantSamples: 1,
		},
		{
			name:          "one byte over",
			input:         "MONITORING|1|1|count|lambda.ab|#\n",
			wantOversized: 1,
		},
		{
			name:          "over the limit without newline",
			input:         "MONITORING|1|1|count|lambda.ab|#",
			wantOversized: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// "MONITORING|1|1|count|lambda.a|#" is 31 bytes.
			s := New(nil, nil, WithMaxLineSize(31))
			require.NoError(t, s.Run(context.Background(), strings.NewReader(tt.input), func(emitter.Sample) {}))

			stats := s.Stats()
			assert.Equal(t, int64(1), stats.Lines)
			assert.Equal(t, tt.wantSamples, stats.Samples)
			assert.Equal(t, tt.wantOversized, stats.Oversized)
		})
	}
}
