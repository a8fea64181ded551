package emitter

import (
	"context"
	"math"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Timing records a duration as a histogram sample in whole milliseconds,
// rounded to the nearest millisecond with ties to even.
func (e *Emitter) Timing(name string, delta time.Duration, tags ...string) string {
	return e.Histogram(name, float64(millis(delta)), tags...)
}

// Timer measures wall-clock time from StartTimer until the first Stop.
type Timer struct {
	emitter *Emitter
	start   time.Time
	name    string
	tags    []string
	once    sync.Once
}

// StartTimer starts a timing scope. Stop emits the elapsed time exactly once,
// so it is safe to both defer it and call it explicitly:
//
//	t := em.StartTimer("db.query")
//	defer t.Stop()
func (e *Emitter) StartTimer(name string, tags ...string) *Timer {
	return &Timer{
		emitter: e,
		start:   e.clock.Now(),
		name:    name,
		tags:    append([]string(nil), tags...),
	}
}

// Stop emits the elapsed time. Calls after the first are no-ops.
func (t *Timer) Stop() {
	t.once.Do(func() {
		t.emitter.Timing(t.name, t.emitter.clock.Since(t.start), t.tags...)
	})
}

// TimeFunc runs fn inside a timing scope. The timing is emitted whether fn
// returns normally, returns an error or panics.
func (e *Emitter) TimeFunc(name string, fn func() error, tags ...string) error {
	t := e.StartTimer(name, tags...)
	defer t.Stop()
	return fn()
}

// TimeitFunc wraps fn so each call emits a timing named after fn. A panic in
// fn propagates without emitting.
func (e *Emitter) TimeitFunc(fn func()) func() {
	name := FuncName(fn)
	return func() {
		start := e.clock.Now()
		fn()
		e.Timing(name, e.clock.Since(start))
	}
}

// Timeit wraps fn so each call emits a timing named after fn and returns fn's
// results unchanged. Error returns are timed; a panic propagates without emitting.
func Timeit[T any](e *Emitter, fn func() (T, error)) func() (T, error) {
	name := FuncName(fn)
	return func() (T, error) {
		start := e.clock.Now()
		v, err := fn()
		e.Timing(name, e.clock.Since(start))
		return v, err
	}
}

// TimeitHandler wraps a Lambda-style handler the same way Timeit does.
func TimeitHandler[In, Out any](e *Emitter, fn func(context.Context, In) (Out, error)) func(context.Context, In) (Out, error) {
	name := FuncName(fn)
	return func(ctx context.Context, in In) (Out, error) {
		start := e.clock.Now()
		out, err := fn(ctx, in)
		e.Timing(name, e.clock.Since(start))
		return out, err
	}
}

// FuncName builds a metric name from a function's identity: its kind, its
// package-qualified name and its simple name, joined by ".". For
// example.(*Service).Handle it returns "func.example.Service.Handle.Handle".
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return v.Kind().String()
	}

	names := []string{"func"}
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		qualified := f.Name()
		if i := strings.LastIndex(qualified, "/"); i >= 0 {
			qualified = qualified[i+1:]
		}
		qualified = strings.NewReplacer("(*", "", "(", "", ")", "", "[...]", "").Replace(qualified)
		qualified = strings.TrimSuffix(qualified, "-fm")
		names = append(names, qualified)
		if i := strings.LastIndex(qualified, "."); i >= 0 {
			names = append(names, qualified[i+1:])
		}
	}
	return strings.Join(names, ".")
}

// millis rounds half to even, so 0.5ms is 0 and 1.5ms is 2.
func millis(d time.Duration) int64 {
	return int64(math.RoundToEven(float64(d) / float64(time.Millisecond)))
}
