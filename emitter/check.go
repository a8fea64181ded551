package emitter

import (
	"errors"
	"fmt"
	"strconv"
)

// Status is the severity reported by a service check.
type Status int

const (
	OK Status = iota
	Warning
	Critical
	Unknown
)

// ErrInvalidStatus is the panic value for a service check with an undefined status.
var ErrInvalidStatus = errors.New("invalid service check status")

var statusNames = map[Status]string{
	OK:       "ok",
	Warning:  "warning",
	Critical: "critical",
	Unknown:  "unknown",
}

// Valid reports whether s is one of the four defined statuses.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

// ParseStatus accepts either the numeric code or the lower-case name.
func ParseStatus(s string) (Status, error) {
	for status, name := range statusNames {
		if s == name {
			return status, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || !Status(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return Status(n), nil
}

// ServiceCheck reports a health status for a service. The message is appended
// as "|m:<message>" when non-empty. An invalid status panics before anything is
// written, since the backend cannot interpret it.
func (e *Emitter) ServiceCheck(service string, status Status, message string, tags ...string) string {
	if !status.Valid() {
		panic(fmt.Errorf("%w: %d", ErrInvalidStatus, int(status)))
	}

	line := e.format(TypeCheck, qualifiedName(service), strconv.Itoa(int(status)), e.Tags(tags, service))
	if message != "" {
		line += "|m:" + message
	}
	e.write(line)
	return line
}
