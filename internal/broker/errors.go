package broker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"

	"github.com/eclipse/paho.mqtt.golang/packets"
)

// FailureKind is the coarse classification of a session failure
type FailureKind int

const (
	// KindUnreachable means the broker could not be reached at the
	// network level: dial, DNS, or socket failure. Retryable.
	KindUnreachable FailureKind = iota

	// KindRejected means the broker answered and refused the session:
	// bad credentials, rejected client identifier, or protocol mismatch.
	// Not retryable; operator intervention is required.
	KindRejected

	// KindTimeout means an operation ran out of time. Retryable.
	KindTimeout
)

// String returns a human-readable name for the failure kind
func (k FailureKind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindRejected:
		return "rejected"
	case KindTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("FailureKind(%d)", k)
	}
}

// SessionError is a classified broker failure
type SessionError struct {
	Kind      FailureKind
	Broker    string // host:port, for context
	Retryable bool
	Err       error
}

// Error implements the error interface
func (e *SessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("broker %s (%s): %v", e.Kind, e.Broker, e.Err)
	}
	return fmt.Sprintf("broker %s (%s)", e.Kind, e.Broker)
}

// Unwrap returns the underlying error
func (e *SessionError) Unwrap() error {
	return e.Err
}

// Classify wraps a connect failure in a SessionError. CONNACK refusals
// become Rejected; everything at or below the socket becomes Unreachable
// or Timeout.
func Classify(err error, broker string) *SessionError {
	if err == nil {
		return nil
	}

	// Broker-level refusals from the CONNACK return code
	switch {
	case errors.Is(err, packets.ErrorRefusedBadUsernameOrPassword),
		errors.Is(err, packets.ErrorRefusedNotAuthorised),
		errors.Is(err, packets.ErrorRefusedIDRejected),
		errors.Is(err, packets.ErrorRefusedBadProtocolVersion):
		return &SessionError{Kind: KindRejected, Broker: broker, Retryable: false, Err: err}

	case errors.Is(err, packets.ErrorRefusedServerUnavailable):
		// The broker answered but cannot serve right now; worth retrying
		return &SessionError{Kind: KindUnreachable, Broker: broker, Retryable: true, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return &SessionError{Kind: KindTimeout, Broker: broker, Retryable: true, Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &SessionError{Kind: KindUnreachable, Broker: broker, Retryable: true, Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return &SessionError{Kind: KindTimeout, Broker: broker, Retryable: true, Err: err}
		}
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) ||
			errors.Is(opErr.Err, syscall.EHOSTUNREACH) ||
			errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &SessionError{Kind: KindUnreachable, Broker: broker, Retryable: true, Err: err}
		}
	}

	// Anything else at the transport level is treated as unreachable so
	// a transient outage gets its retries
	return &SessionError{Kind: KindUnreachable, Broker: broker, Retryable: true, Err: err}
}

// IsRetryable reports whether an error should be retried. This is the
// single gate the boot orchestrator consults between attempts.
func IsRetryable(err error) bool {
	var sessionErr *SessionError
	if errors.As(err, &sessionErr) {
		return sessionErr.Retryable
	}
	return false
}

// IsRejected reports whether the broker actively refused the session
func IsRejected(err error) bool {
	var sessionErr *SessionError
	return errors.As(err, &sessionErr) && sessionErr.Kind == KindRejected
}
