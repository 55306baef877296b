package toolproto

import (
	"errors"
	"fmt"
)

// ErrTimeout marks a call that did not receive a response in time. Timeouts
// are treated as transport failures and are eligible for retry.
var ErrTimeout = errors.New("call timed out")

// TransportError reports a channel or process level failure: broken pipe,
// malformed frame, timeout. These are retryable.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %q: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CallError is a structured failure reported by the tool server itself.
// It is retryable only when the server flags it so (rate limiting, for
// example).
type CallError struct {
	Op        string
	Kind      string
	Message   string
	Retryable bool
}

func (e *CallError) Error() string {
	return fmt.Sprintf("tool call %q failed: %s: %s", e.Op, e.Kind, e.Message)
}

// Retryable classifies an error for the retry policy: transport failures are
// always retryable, tool-reported failures only when explicitly flagged.
func Retryable(err error) bool {
	var transport *TransportError
	if errors.As(err, &transport) {
		return true
	}

	var call *CallError
	if errors.As(err, &call) {
		return call.Retryable
	}

	return false
}
