package emitter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/benbjohnson/clock"
)

const (
	// EnvFunctionName holds the Lambda function name.
	EnvFunctionName = "AWS_LAMBDA_FUNCTION_NAME"
	// EnvRegion holds the AWS region the function runs in.
	EnvRegion = "AWS_REGION"

	// NoStack is the stack tag value used when the function name carries no stack.
	NoStack = "no_stack"

	linePrefix = "MONITORING"
	namePrefix = "lambda."
)

// MetricType is the type token written in the third field of a line.
type MetricType string

const (
	TypeCount     MetricType = "count"
	TypeGauge     MetricType = "gauge"
	TypeHistogram MetricType = "histogram"
	TypeCheck     MetricType = "check"
)

// functionNamePattern splits "<region><digits>_<stack>_<name>" function names.
var functionNamePattern = regexp.MustCompile(
	`^(?P<region>[\w-]+\d+)[_-](?P<stack>[a-z]+[_-][a-z]+(?:[_-]staging)?)[_-](?P<name>.+)`,
)

// Options configures an Emitter. The zero value is valid.
type Options struct {
	// GlobalTags are added to every line ahead of the derived tags.
	GlobalTags []string

	// FunctionName is the raw function identifier, usually AWS_LAMBDA_FUNCTION_NAME.
	FunctionName string

	// Region is added as an aws_region tag when non-empty.
	Region string

	// Output receives the lines. Defaults to os.Stdout.
	Output io.Writer

	// Clock provides timestamps and durations. Defaults to the wall clock.
	Clock clock.Clock

	// Logger reports write failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// Option mutates Options before construction.
type Option func(*Options)

// WithGlobalTags appends tags added to every line.
func WithGlobalTags(tags ...string) Option {
	return func(o *Options) { o.GlobalTags = append(o.GlobalTags, tags...) }
}

// WithOutput replaces the destination writer.
func WithOutput(w io.Writer) Option {
	return func(o *Options) { o.Output = w }
}

// WithClock replaces the clock.
func WithClock(c clock.Clock) Option {
	return func(o *Options) { o.Clock = c }
}

// WithLogger replaces the logger used for write failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// FromEnv builds Options from the Lambda environment variables and applies opts on top.
func FromEnv(opts ...Option) Options {
	o := Options{
		FunctionName: os.Getenv(EnvFunctionName),
		Region:       os.Getenv(EnvRegion),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Emitter formats metrics and writes them to its output. It is immutable after
// New and safe for concurrent use as long as the writer is.
type Emitter struct {
	defaultTags []string
	name        string
	stack       string
	out         io.Writer
	clock       clock.Clock
	logger      *slog.Logger
}

// New creates an Emitter. It never fails: unknown or missing function names
// degrade to the no_stack tag.
func New(opts Options) *Emitter {
	name, stack := ParseFunctionName(opts.FunctionName)

	tags := make([]string, 0, len(opts.GlobalTags)+5)
	tags = append(tags, opts.GlobalTags...)
	tags = append(tags,
		"h:"+name,
		"host:"+name,
		"stack:"+stack,
		"lambda",
	)
	if opts.Region != "" {
		tags = append(tags, "aws_region:"+opts.Region)
	}

	e := &Emitter{
		defaultTags: tags,
		name:        name,
		stack:       stack,
		out:         opts.Output,
		clock:       opts.Clock,
		logger:      opts.Logger,
	}
	if e.out == nil {
		e.out = os.Stdout
	}
	if e.clock == nil {
		e.clock = clock.New()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// ParseFunctionName extracts the function name and stack from a function
// identifier. Identifiers that do not follow the naming pattern are returned
// unchanged with NoStack.
func ParseFunctionName(id string) (name, stack string) {
	if id == "" {
		return "", NoStack
	}

	m := functionNamePattern.FindStringSubmatch(id)
	if m == nil {
		return id, NoStack
	}
	return m[functionNamePattern.SubexpIndex("name")], m[functionNamePattern.SubexpIndex("stack")]
}

// DefaultTags returns a copy of the tags added to every line.
func (e *Emitter) DefaultTags() []string {
	return append([]string(nil), e.defaultTags...)
}

// FunctionName returns the function name used for the host tags.
func (e *Emitter) FunctionName() string { return e.name }

// Stack returns the stack used for the stack tag.
func (e *Emitter) Stack() string { return e.stack }

// Increment adds one to a counter.
func (e *Emitter) Increment(name string, tags ...string) string {
	return e.Count(name, 1, tags...)
}

// Count adds count to a counter.
func (e *Emitter) Count(name string, count int64, tags ...string) string {
	return e.emit(TypeCount, name, strconv.FormatInt(count, 10), e.Tags(tags, name))
}

// Gauge records a snapshot value. The backend keeps the last one.
func (e *Emitter) Gauge(name string, value float64, tags ...string) string {
	return e.emit(TypeGauge, name, formatValue(value), e.Tags(tags, name))
}

// Histogram records one sample of a distribution. The backend derives max,
// avg, median, 95th percentile and count from the samples.
func (e *Emitter) Histogram(name string, value float64, tags ...string) string {
	return e.emit(TypeHistogram, name, formatValue(value), e.Tags(tags, name))
}

// Tags returns the caller tags merged with the default tags and one tag per
// dotted prefix of name, without duplicates. The order is not part of the contract.
func (e *Emitter) Tags(tags []string, name string) []string {
	merged := make([]string, 0, len(tags)+len(e.defaultTags)+strings.Count(name, ".")+1)
	merged = append(merged, tags...)
	merged = append(merged, e.defaultTags...)
	merged = append(merged, namePrefixes(name)...)
	return dedupe(merged)
}

func (e *Emitter) emit(metricType MetricType, name, value string, tags []string) string {
	line := e.format(metricType, qualifiedName(name), value, tags)
	e.write(line)
	return line
}

func (e *Emitter) format(metricType MetricType, name, value string, tags []string) string {
	var b strings.Builder
	b.WriteString(linePrefix)
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(e.clock.Now().Unix(), 10))
	b.WriteByte('|')
	b.WriteString(value)
	b.WriteByte('|')
	b.WriteString(string(metricType))
	b.WriteByte('|')
	b.WriteString(name)
	b.WriteString("|#")
	b.WriteString(strings.Join(tags, ","))
	return b.String()
}

func (e *Emitter) write(line string) {
	if _, err := fmt.Fprintln(e.out, line); err != nil {
		e.logger.Warn("failed to write metric line", "error", err)
	}
}

// qualifiedName prefixes the metric name and collapses the doubled separator
// left by an empty segment.
func qualifiedName(name string) string {
	return strings.ReplaceAll(namePrefix+name, "..", ".")
}

// namePrefixes returns "a", "a.b", "a.b.c" for "a.b.c".
func namePrefixes(name string) []string {
	if name == "" {
		return nil
	}
	parts := strings.Split(name, ".")
	prefixes := make([]string, len(parts))
	for i := range parts {
		prefixes[i] = strings.Join(parts[:i+1], ".")
	}
	return prefixes
}

func dedupe(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := tags[:0]
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
