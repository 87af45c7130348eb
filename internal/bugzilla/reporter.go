package bugzilla

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/andywolf/crashreporter/internal/config"
	"github.com/andywolf/crashreporter/internal/crash"
	"github.com/andywolf/crashreporter/internal/progress"
	"github.com/andywolf/crashreporter/internal/telemetry"
)

// State is a step of the submission workflow.
type State int

const (
	StateInit State = iota
	StateSessionOpen
	StateDuplicateChecked
	StateUpdating
	StateCreating
	StateLoggedOut
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSessionOpen:
		return "session_open"
	case StateDuplicateChecked:
		return "duplicate_checked"
	case StateUpdating:
		return "updating"
	case StateCreating:
		return "creating"
	case StateLoggedOut:
		return "logged_out"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Opener connects to an XML-RPC endpoint.
type Opener func(endpoint string, skipVerify bool) (Conn, error)

// Reporter files crash reports with one Bugzilla instance.
type Reporter struct {
	settings config.Settings
	notifier progress.Notifier
	open     Opener
	rules    []Rule
	runID    string
	onState  func(State)
	tracer   trace.Tracer
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithProgress sets the notifier that receives progress messages.
func WithProgress(n progress.Notifier) ReporterOption {
	return func(r *Reporter) {
		r.notifier = n
	}
}

// WithOpener replaces how sessions are opened (useful for testing).
func WithOpener(open Opener) ReporterOption {
	return func(r *Reporter) {
		r.open = open
	}
}

// WithRules replaces the product/version rules.
func WithRules(rules []Rule) ReporterOption {
	return func(r *Reporter) {
		r.rules = rules
	}
}

// WithRunID sets the id recorded on the workflow span. A random one is
// generated otherwise.
func WithRunID(id string) ReporterOption {
	return func(r *Reporter) {
		r.runID = id
	}
}

// WithStateHook registers a function called on every state transition.
func WithStateHook(fn func(State)) ReporterOption {
	return func(r *Reporter) {
		r.onState = fn
	}
}

// NewReporter creates a Reporter for settings.
func NewReporter(settings config.Settings, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		settings: settings,
		notifier: progress.Nop{},
		rules:    DefaultRules,
		onState:  func(State) {},
		tracer:   telemetry.Tracer(""),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.open == nil {
		r.open = func(endpoint string, skipVerify bool) (Conn, error) {
			return Open(endpoint, skipVerify,
				WithTimeout(r.settings.Timeout),
				WithNotifier(r.notifier),
			)
		}
	}
	if r.runID == "" {
		r.runID = uuid.New().String()
	}

	return r
}

// RunID returns the id of this reporter's submissions.
func (r *Reporter) RunID() string { return r.runID }

func (r *Reporter) prefix() string {
	if r.settings.SummaryPrefix == "" {
		return config.DefaultSummaryPrefix
	}
	return r.settings.SummaryPrefix
}

// Report submits report and returns the URL of the new or existing issue.
// The session is closed on every path. Any failure is returned wrapped as
// "bugzilla report: <cause>".
func (r *Reporter) Report(ctx context.Context, report crash.Report) (string, error) {
	ctx, span := r.tracer.Start(ctx, "bugzilla.report",
		trace.WithAttributes(attribute.String("crashreporter.run_id", r.runID)))
	defer span.End()

	url, err := r.report(ctx, span, report)
	if err != nil {
		r.transition(span, StateFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("bugzilla report: %w", err)
	}
	return url, nil
}

func (r *Reporter) report(ctx context.Context, span trace.Span, report crash.Report) (url string, err error) {
	r.transition(span, StateInit)

	component, err := report.Component()
	if err != nil {
		return "", &DataError{Op: "report", Err: err}
	}
	hash, err := report.UUID()
	if err != nil {
		return "", &DataError{Op: "report", Err: err}
	}
	if err := CheckCredentials(r.settings.Login, r.settings.Password); err != nil {
		return "", err
	}

	conn, err := r.open(r.settings.XMLRPCURL(), r.settings.NoSSLVerify)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			// The result stands.
			r.notifier.Warn(fmt.Sprintf("Failed to close session: %v", cerr))
		}
		if err == nil {
			r.transition(span, StateClosed)
		}
	}()
	r.transition(span, StateSessionOpen)

	r.notifier.Update("Checking for duplicates...")
	id, found, err := FindExisting(ctx, conn, r.notifier, component, hash)
	if err != nil {
		return "", err
	}
	r.transition(span, StateDuplicateChecked)

	r.notifier.Update("Logging into bugzilla...")
	if err := Login(ctx, conn, r.settings.Login, r.settings.Password); err != nil {
		return "", err
	}

	if found {
		r.transition(span, StateUpdating)
		r.notifier.Update("Checking CC...")
		interested, err := IsInterested(ctx, conn, id, r.settings.Login)
		if err != nil {
			return "", err
		}
		if !interested {
			if err := AddInterested(ctx, conn, id, r.settings.Login); err != nil {
				return "", err
			}
		}
		span.SetAttributes(attribute.Int("bugzilla.bug_id", id), attribute.Bool("bugzilla.duplicate", true))
		return r.settings.BugURL(id), nil
	}

	r.transition(span, StateCreating)
	r.notifier.Update("Creating new bug...")
	issue, err := NewIssue(report, r.prefix(), r.rules, r.notifier)
	if err != nil {
		return "", err
	}
	id, err = Create(ctx, conn, r.notifier, issue)
	if err != nil {
		return "", err
	}
	if id > 0 {
		if err := UploadAll(ctx, conn, id, report); err != nil {
			return "", err
		}
	}

	r.notifier.Update("Logging out...")
	if err := Logout(ctx, conn); err != nil {
		// The bug is filed; the URL is still the result.
		r.notifier.Warn(fmt.Sprintf("Logout failed: %v", err))
	}
	r.transition(span, StateLoggedOut)

	span.SetAttributes(attribute.Int("bugzilla.bug_id", id), attribute.Bool("bugzilla.duplicate", false))
	return r.settings.BugURL(id), nil
}

func (r *Reporter) transition(span trace.Span, s State) {
	span.AddEvent(s.String())
	r.onState(s)
}
