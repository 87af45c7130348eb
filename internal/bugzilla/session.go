// Package bugzilla submits crash reports to a Bugzilla instance over XML-RPC.
//
// A Session owns one HTTP client bound to the server's xmlrpc.cgi endpoint.
// The free functions in this package (Login, FindExisting, Create, ...) each
// issue calls through a Caller, and Reporter sequences them into the full
// submission workflow.
package bugzilla

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/kolo/xmlrpc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/andywolf/crashreporter/internal/config"
	"github.com/andywolf/crashreporter/internal/progress"
	"github.com/andywolf/crashreporter/internal/telemetry"
	"github.com/andywolf/crashreporter/internal/version"
)

// Caller issues a single remote method call. reply may be nil when the
// result is not needed.
type Caller interface {
	Call(ctx context.Context, method string, reply interface{}, args ...interface{}) error
}

// Conn is a Caller that must be released after use.
type Conn interface {
	Caller
	Close() error
}

// Session is an XML-RPC client bound to one endpoint. It is not safe for
// concurrent use; each submission opens its own.
type Session struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	notifier   progress.Notifier
	tracer     trace.Tracer
	calls      metric.Int64Counter
	closed     bool
}

// Option configures a Session.
type Option func(*Session)

// WithHTTPClient replaces the HTTP client. The client is used as given:
// the TLS and timeout settings passed to Open are not applied to it.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Session) {
		s.httpClient = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithNotifier sets where fault log lines are reported.
func WithNotifier(n progress.Notifier) Option {
	return func(s *Session) {
		s.notifier = n
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Session) {
		s.userAgent = ua
	}
}

// Open creates a session for endpoint. When skipVerify is set the server
// certificate is not checked.
func Open(endpoint string, skipVerify bool, opts ...Option) (*Session, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, &TransportError{Op: "open", Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &TransportError{Op: "open", Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}

	calls, err := telemetry.Meter("").Int64Counter("crashreporter.rpc.calls",
		metric.WithDescription("XML-RPC calls issued to Bugzilla"))
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc call counter: %w", err)
	}

	s := &Session{
		endpoint:  endpoint,
		timeout:   config.DefaultTimeout,
		userAgent: version.UserAgent(),
		notifier:  progress.Nop{},
		tracer:    telemetry.Tracer(""),
		calls:     calls,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, &TransportError{Op: "open", Err: err}
		}

		transport := http.DefaultTransport.(*http.Transport).Clone()
		if skipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 NoSSLVerify=yes
		}

		s.httpClient = &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   s.timeout,
		}
	}

	return s, nil
}

// Call posts an XML-RPC request and decodes the response into reply.
// A fault response is returned as a *Fault wrapped with the method name.
func (s *Session) Call(ctx context.Context, method string, reply interface{}, args ...interface{}) (err error) {
	if s.closed {
		return ErrSessionClosed
	}

	ctx, span := s.tracer.Start(ctx, "bugzilla "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.system", "xmlrpc"),
			attribute.String("rpc.method", method),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	s.calls.Add(ctx, 1, metric.WithAttributes(attribute.String("rpc.method", method)))

	body, err := xmlrpc.EncodeMethodCall(method, args...)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Op: method, Err: err}
	}
	req.Header.Set("Content-Type", "text/xml")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: method, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &TransportError{Op: method, Err: fmt.Errorf("unexpected HTTP status %s", resp.Status)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: method, Err: err}
	}

	response := xmlrpc.Response(data)
	if err := response.Err(); err != nil {
		var fe xmlrpc.FaultError
		if !errors.As(err, &fe) {
			return &TransportError{Op: method, Err: err}
		}
		fault := &Fault{Code: fe.Code, Message: fe.String}
		progress.ReportError(s.notifier, fault.Error())
		return fmt.Errorf("%s: %w", method, fault)
	}

	if reply == nil {
		return nil
	}
	if err := response.Unmarshal(reply); err != nil {
		return &DataError{Op: method, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// Close releases idle connections. A second Close returns ErrSessionClosed.
func (s *Session) Close() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	s.httpClient.CloseIdleConnections()
	return nil
}
