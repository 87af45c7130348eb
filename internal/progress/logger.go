package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogEntry is one structured log line. The field names follow the Cloud
// Logging structured-payload convention so the output can be shipped as is.
type LogEntry struct {
	Severity  Severity          `json:"severity"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	RunID     string            `json:"run_id"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// Logger writes notifications as JSON lines.
type Logger struct {
	writer io.Writer
	runID  string
	labels map[string]string
	now    func() time.Time
	mu     sync.Mutex
}

// LoggerOption allows configuring the Logger
type LoggerOption func(*Logger)

// WithLabels adds custom labels to all log entries
func WithLabels(labels map[string]string) LoggerOption {
	return func(l *Logger) {
		for k, v := range labels {
			l.labels[k] = v
		}
	}
}

// WithWriter sets a custom writer for log output
func WithWriter(w io.Writer) LoggerOption {
	return func(l *Logger) {
		l.writer = w
	}
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) LoggerOption {
	return func(l *Logger) {
		l.now = now
	}
}

// NewLogger creates a Logger that writes to stderr unless overridden.
func NewLogger(runID string, opts ...LoggerOption) *Logger {
	l := &Logger{
		writer: os.Stderr,
		runID:  runID,
		labels: map[string]string{
			"run_id":    runID,
			"component": "crashreporter",
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Log writes a structured log entry
func (l *Logger) Log(severity Severity, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := LogEntry{
		Severity:  severity,
		Message:   message,
		Timestamp: l.now().UTC(),
		RunID:     l.runID,
		Labels:    l.labels,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.writer, `{"severity":"ERROR","message":"failed to marshal log entry: %v"}`+"\n", err)
		return
	}
	fmt.Fprintf(l.writer, "%s\n", data)
}

// Update writes an INFO level entry
func (l *Logger) Update(msg string) { l.Log(SeverityInfo, msg) }

// Warn writes a WARNING level entry
func (l *Logger) Warn(msg string) { l.Log(SeverityWarning, msg) }

// Error writes an ERROR level entry
func (l *Logger) Error(msg string) { l.Log(SeverityError, msg) }

// Console prints plain progress lines, the way an interactive front end
// shows them.
type Console struct {
	Out io.Writer
}

// NewConsole returns a Console writing to stderr.
func NewConsole() *Console {
	return &Console{Out: os.Stderr}
}

func (c *Console) Update(msg string) { fmt.Fprintln(c.Out, msg) }
func (c *Console) Warn(msg string)   { fmt.Fprintln(c.Out, "Warning: "+msg) }
func (c *Console) Error(msg string)  { fmt.Fprintln(c.Out, "Error: "+msg) }

var (
	_ ErrorNotifier = (*Logger)(nil)
	_ ErrorNotifier = (*Console)(nil)
	_ ErrorNotifier = Multi(nil)
	_ ErrorNotifier = Sanitized{}
)
