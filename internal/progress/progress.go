// Package progress delivers the human-readable status messages emitted while
// a crash report is being submitted.
//
// A Notifier receives two kinds of messages: updates, which name the step
// that is about to run, and warnings, which describe data that was skipped.
// Several sinks exist (console, structured JSON, Cloud Logging) and can be
// combined with Multi.
package progress

import (
	"github.com/andywolf/crashreporter/internal/security"
)

// Severity levels for structured logs
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// Notifier receives progress messages.
type Notifier interface {
	Update(msg string)
	Warn(msg string)
}

// ErrorNotifier is implemented by sinks that also record failures.
type ErrorNotifier interface {
	Notifier
	Error(msg string)
}

// Nop discards all messages.
type Nop struct{}

func (Nop) Update(string) {}
func (Nop) Warn(string)   {}

// Multi fans messages out to every notifier in order.
type Multi []Notifier

func (m Multi) Update(msg string) {
	for _, n := range m {
		n.Update(msg)
	}
}

func (m Multi) Warn(msg string) {
	for _, n := range m {
		n.Warn(msg)
	}
}

// Error forwards to every member that records errors.
func (m Multi) Error(msg string) {
	for _, n := range m {
		if en, ok := n.(ErrorNotifier); ok {
			en.Error(msg)
		}
	}
}

// Sanitized redacts credentials from every message before passing it on.
type Sanitized struct {
	Next      Notifier
	Sanitizer *security.LogSanitizer
}

func (s Sanitized) Update(msg string) { s.Next.Update(s.Sanitizer.Sanitize(msg)) }
func (s Sanitized) Warn(msg string)   { s.Next.Warn(s.Sanitizer.Sanitize(msg)) }

// Error forwards to Next if it records errors.
func (s Sanitized) Error(msg string) {
	if en, ok := s.Next.(ErrorNotifier); ok {
		en.Error(s.Sanitizer.Sanitize(msg))
	}
}

// ReportError sends msg to n if it records errors.
func ReportError(n Notifier, msg string) {
	if en, ok := n.(ErrorNotifier); ok {
		en.Error(msg)
	}
}
