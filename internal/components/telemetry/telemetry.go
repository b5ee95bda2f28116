package telemetry

import (
	"fmt"
)

// API is an abstraction over logging, it lets tests assert on what a component reported.
type API interface {
	// ReportBroken reports a component that broke in a way that should be addressed.
	//
	// `id` names the broken **component**, not the line that broke, formatted as
	// `<struct or interface>.<method>` in lowercase with dashes between words,
	// ex. `client.select-calendar`. Use params (or a wrapped error) for detail,
	// the id does not need to say that something failed.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something that still worked but may need a look,
	// ex. a menu label that only matched approximately.
	ReportWarning(id string, params ...any)

	// ReportDebug reports debug information that is dropped unless debug logging is on.
	ReportDebug(msg string, params ...any)

	// ReportCount reports a count observed at the current time.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with a namespace, like a sub-logger.
type ScopedAPI struct {
	namespace string
	inner     API
}

// NewScopedAPI creates a ScopedAPI out of a given namespace and another api.
func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(fmt.Sprintf("%s: %s", s.namespace, msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(fmt.Sprintf("%s: %s", s.namespace, id), count)
}
