package emitter

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCheck(t *testing.T) {
	tests := []struct {
		name       string
		service    string
		status     Status
		message    string
		wantName   string
		wantSuffix string
	}{
		{
			name:       "warning with message",
			service:    "disk",
			status:     Warning,
			message:    "disk full",
			wantName:   "lambda.disk",
			wantSuffix: "|m:disk full",
		},
		{
			name:     "ok without message",
			service:  "api.health",
			status:   OK,
			wantName: "lambda.api.health",
		},
		{
			name:     "empty service",
			service:  "",
			status:   Unknown,
			wantName: "lambda.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, buf, _ := newTestEmitter(t, Options{FunctionName: "worker"})

			line := e.ServiceCheck(tt.service, tt.status, tt.message, "dep:db")
			assert.Equal(t, line+"\n", buf.String())

			if tt.wantSuffix != "" {
				assert.True(t, strings.HasSuffix(line, tt.wantSuffix), line)
			} else {
				assert.NotContains(t, line, "|m:")
			}

			s, err := ParseLine(line)
			require.NoError(t, err)
			assert.Equal(t, TypeCheck, s.Type)
			assert.Equal(t, float64(tt.status), s.Value)
			assert.Equal(t, tt.wantName, s.Name)
			assert.Equal(t, tt.message, s.Message)
			assert.Contains(t, s.Tags, "dep:db")
			assert.Contains(t, s.Tags, "host:worker")
		})
	}
}

func TestServiceCheck_TagsUseRawServiceName(t *testing.T) {
	e, _, _ := newTestEmitter(t, Options{})

	line := e.ServiceCheck("api.health", OK, "")
	s, err := ParseLine(line)
	require.NoError(t, err)

	assert.Contains(t, s.Tags, "api")
	assert.Contains(t, s.Tags, "api.health")
	assert.NotContains(t, s.Tags, "lambda.api")
}

func TestServiceCheck_CollapsesDoubledSeparators(t *testing.T) {
	e, _, _ := newTestEmitter(t, Options{})

	line := e.ServiceCheck(".db..conn", Critical, "refused")
	s, err := ParseLine(line)
	require.NoError(t, err)

	assert.Equal(t, "lambda.db.conn", s.Name)
	assert.Equal(t, "refused", s.Message)

	// Name tags are prefixes of the raw service name, not the collapsed one.
	assert.Contains(t, s.Tags, ".db")
	assert.Contains(t, s.Tags, ".db.")
	assert.Contains(t, s.Tags, ".db..conn")
	assert.NotContains(t, s.Tags, "db.conn")
}

func TestServiceCheck_InvalidStatusPanics(t *testing.T) {
	e, buf, _ := newTestEmitter(t, Options{})

	for _, status := range []Status{-1, 4, 5} {
		func() {
			defer func() {
				r := recover()
				require.NotNil(t, r)
				err, ok := r.(error)
				require.True(t, ok)
				assert.True(t, errors.Is(err, ErrInvalidStatus))
			}()
			e.ServiceCheck("svc", status, "")
		}()
	}

	assert.Empty(t, buf.String())
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{in: "0", want: OK},
		{in: "warning", want: Warning},
		{in: "2", want: Critical},
		{in: "unknown", want: Unknown},
		{in: "5", wantErr: true},
		{in: "bad", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "critical", Critical.String())
	assert.Equal(t, "status(7)", Status(7).String())
}
