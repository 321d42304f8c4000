// Package meshlog is the small operational-logging helper used across
// substructure/strategy/snowflake. The one event the module logs is the
// UnknownAction fallback in substructure.Base.GetPredictedNumTargetLinks
// (spec §7); mirror shutdown, link create/teardown and graft/sever are
// not logged. No package in the retrieved
// reference corpus depends on a structured-logging library — every one
// of them reports state through documented return values and sentinel
// errors instead — so this wrapper stays on the standard library's
// log.Logger rather than introducing an ungrounded dependency; see
// DESIGN.md for the full reasoning.
package meshlog

import (
	"io"
	"log"
	"os"
)

// Logger is a minimal leveled wrapper over *log.Logger. The zero value
// is not usable; use New or Discard.
type Logger struct {
	std *log.Logger
}

// New returns a Logger writing to w with the given prefix (e.g. a
// strategy or component name), one line per event.
func New(w io.Writer, prefix string) *Logger {
	return &Logger{std: log.New(w, prefix+" ", log.LstdFlags)}
}

// Default returns a Logger writing to os.Stderr, used when a caller
// does not supply one.
func Default(prefix string) *Logger {
	return New(os.Stderr, prefix)
}

// Discard returns a Logger that drops every event; safe zero-cost
// default for tests and library embedding where the caller does not
// want planner chatter.
func Discard() *Logger {
	return New(io.Discard, "")
}

// Debugf logs a low-volume diagnostic event (e.g. a graft or sever).
// Never call this from inside a hot per-pair
// reconciliation loop (spec §4.2.2) — only once per structural decision.
func (l *Logger) Debugf(format string, args ...any) {
	if l == nil || l.std == nil {
		return
	}
	l.std.Printf("DEBUG "+format, args...)
}

// Infof logs a structural state transition: mirror shutdown, link
// create/teardown, a completed graft or sever.
func (l *Logger) Infof(format string, args ...any) {
	if l == nil || l.std == nil {
		return
	}
	l.std.Printf("INFO "+format, args...)
}

// Warnf logs a recoverable anomaly, such as getPredictedNumTargetLinks
// falling back to getNumTargetLinks for an UnknownAction (spec §7).
func (l *Logger) Warnf(format string, args ...any) {
	if l == nil || l.std == nil {
		return
	}
	l.std.Printf("WARN "+format, args...)
}
