// Package diag collects per-entry and per-context problems reported during a
// conversion.
//
// Recoverable problems never surface as returned errors. Engine code reports
// them through a [Sink] with an [errors.Code] as the kind and carries on;
// callers decide whether to log, count or display them.
package diag

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tokensync/pkg/errors"
)

// Sink receives diagnostics.
type Sink interface {
	Report(kind errors.Code, message string)
}

// Diagnostic is one reported problem.
type Diagnostic struct {
	Kind    errors.Code `json:"kind"`
	Message string      `json:"message"`
}

// String formats the diagnostic as "KIND: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// Reportf formats a message and reports it to s. A nil sink discards.
func Reportf(s Sink, kind errors.Code, format string, args ...any) {
	if s == nil {
		return
	}
	s.Report(kind, fmt.Sprintf(format, args...))
}

// Collector stores diagnostics in report order. It is safe for concurrent
// use.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

// NewCollector creates an empty collector.
func NewCollector() *Collector { return &Collector{} }

// Report implements Sink.
func (c *Collector) Report(kind errors.Code, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, Diagnostic{Kind: kind, Message: message})
}

// All returns a copy of the collected diagnostics.
func (c *Collector) All() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of collected diagnostics.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Count returns how many diagnostics of kind were collected.
func (c *Collector) Count(kind errors.Code) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.items {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Has reports whether any diagnostic of kind was collected.
func (c *Collector) Has(kind errors.Code) bool { return c.Count(kind) > 0 }

// LogSink forwards diagnostics to a logger. Informational kinds are logged
// at info level, everything else as warnings.
type LogSink struct {
	Logger *log.Logger
}

// Report implements Sink.
func (s LogSink) Report(kind errors.Code, message string) {
	l := s.Logger
	if l == nil {
		l = log.Default()
	}
	if errors.IsInformational(kind) {
		l.Info(message, "kind", kind)
		return
	}
	l.Warn(message, "kind", kind)
}

// Multi fans a report out to several sinks. Nil sinks are skipped.
type Multi []Sink

// Report implements Sink.
func (m Multi) Report(kind errors.Code, message string) {
	for _, s := range m {
		if s != nil {
			s.Report(kind, message)
		}
	}
}

// Discard drops every diagnostic.
var Discard Sink = discard{}

type discard struct{}

func (discard) Report(errors.Code, string) {}
