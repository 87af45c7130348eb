package bugzilla

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned when a closed session is used or closed again.
var ErrSessionClosed = errors.New("bugzilla: session already closed")

// ConfigError reports settings that make a submission impossible.
// It is raised before any network traffic.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// Fault is a fault response returned by the remote service.
type Fault struct {
	Code    int
	Message string
}

func (e *Fault) Error() string {
	return fmt.Sprintf("XML-RPC Fault: %s(%d)", e.Message, e.Code)
}

// TransportError wraps connection, TLS and HTTP level failures.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DataError reports a crash report or response that lacks data the
// workflow needs.
type DataError struct {
	Op  string
	Err error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }
