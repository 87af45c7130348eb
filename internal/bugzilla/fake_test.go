package bugzilla

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
)

// call is one recorded invocation on fakeConn.
type call struct {
	Method string
	Args   []interface{}
}

// fakeConn is an in-memory Conn. Handlers fill reply for a method; methods
// without a handler succeed with an empty reply.
type fakeConn struct {
	handlers map[string]func(args []interface{}, reply interface{}) error
	calls    []call
	closes   int
	closeErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{handlers: make(map[string]func([]interface{}, interface{}) error)}
}

func (f *fakeConn) Call(ctx context.Context, method string, reply interface{}, args ...interface{}) error {
	f.calls = append(f.calls, call{Method: method, Args: args})
	if h, ok := f.handlers[method]; ok {
		return h(args, reply)
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.closes++
	if f.closes > 1 {
		return ErrSessionClosed
	}
	return f.closeErr
}

func (f *fakeConn) count(method string) int {
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *fakeConn) methods() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Method
	}
	return out
}

// searchReturns makes Bug.search answer with the given bug ids.
func (f *fakeConn) searchReturns(ids ...int) {
	f.handlers["Bug.search"] = func(_ []interface{}, reply interface{}) error {
		r := reply.(*searchResult)
		for _, id := range ids {
			r.Bugs = append(r.Bugs, searchHit{ID: id})
		}
		return nil
	}
}

// bugHas makes bugzilla.getBug answer with reporter and cc.
func (f *fakeConn) bugHas(reporter string, cc ...string) {
	f.handlers["bugzilla.getBug"] = func(_ []interface{}, reply interface{}) error {
		r := reply.(*bugInfo)
		r.Reporter = reporter
		r.CC = cc
		return nil
	}
}

// createReturns makes Bug.create answer with id.
func (f *fakeConn) createReturns(id int) {
	f.handlers["Bug.create"] = func(_ []interface{}, reply interface{}) error {
		reply.(*createResult).ID = id
		return nil
	}
}

func (f *fakeConn) fails(method string, err error) {
	f.handlers[method] = func([]interface{}, interface{}) error { return err }
}

// recorder collects progress messages.
type recorder struct {
	updates []string
	warns   []string
	errors  []string
}

func (r *recorder) Update(msg string) { r.updates = append(r.updates, msg) }
func (r *recorder) Warn(msg string)   { r.warns = append(r.warns, msg) }
func (r *recorder) Error(msg string)  { r.errors = append(r.errors, msg) }

var methodNameRx = regexp.MustCompile(`<methodName>([^<]+)</methodName>`)

// rpcRequest is a request received by xmlrpcServer.
type rpcRequest struct {
	Method string
	Body   string
	Header http.Header
}

// xmlrpcServer answers XML-RPC posts with canned bodies keyed by method name.
type xmlrpcServer struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]string
	requests  []rpcRequest
}

func newXMLRPCServer(t *testing.T, responses map[string]string) *xmlrpcServer {
	t.Helper()

	s := &xmlrpcServer{responses: responses}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *xmlrpcServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	m := methodNameRx.FindSubmatch(body)
	if m == nil {
		http.Error(w, "no methodName", http.StatusBadRequest)
		return
	}
	method := string(m[1])

	s.mu.Lock()
	s.requests = append(s.requests, rpcRequest{Method: method, Body: string(body), Header: r.Header.Clone()})
	resp, ok := s.responses[method]
	s.mu.Unlock()

	if method == "User.login" {
		http.SetCookie(w, &http.Cookie{Name: "Bugzilla_logincookie", Value: "c00kie", Path: "/"})
	}
	if !ok {
		resp = responseXML(`<string>ok</string>`)
	}
	w.Header().Set("Content-Type", "text/xml")
	_, _ = io.WriteString(w, resp)
}

func (s *xmlrpcServer) recorded() []rpcRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]rpcRequest(nil), s.requests...)
}

// responseXML wraps a single XML-RPC value in a methodResponse.
func responseXML(value string) string {
	return `<?xml version="1.0"?><methodResponse><params><param><value>` +
		value + `</value></param></params></methodResponse>`
}

// faultXML builds a fault methodResponse.
func faultXML(code int, msg string) string {
	return fmt.Sprintf(`<?xml version="1.0"?><methodResponse><fault><value><struct>`+
		`<member><name>faultCode</name><value><int>%d</int></value></member>`+
		`<member><name>faultString</name><value><string>%s</string></value></member>`+
		`</struct></value></fault></methodResponse>`, code, msg)
}

// structXML renders members given as name, value pairs.
func structXML(pairs ...string) string {
	var b strings.Builder
	b.WriteString("<struct>")
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString("<member><name>" + pairs[i] + "</name><value>" + pairs[i+1] + "</value></member>")
	}
	b.WriteString("</struct>")
	return b.String()
}

// arrayXML renders values as an XML-RPC array.
func arrayXML(values ...string) string {
	var b strings.Builder
	b.WriteString("<array><data>")
	for _, v := range values {
		b.WriteString("<value>" + v + "</value>")
	}
	b.WriteString("</data></array>")
	return b.String()
}
