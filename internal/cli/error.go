package cli

import (
	"errors"
	"fmt"
	"time"

	"jdwpcheck/pkg/proto"
)

// IRetryable is implemented by errors that know whether the failed
// operation may be tried again.
type IRetryable interface {
	Retryable() bool
}

type Error struct {
	What string
}

func (e *Error) Retryable() bool { return false }

func (e *Error) Error() string {
	return "error: " + e.What
}

var (
	ErrTimeout           = &Error{"timeout"}
	ErrProtocolViolation = &Error{"protocol violation"}
	ErrCorrelationReuse  = &Error{"correlation id reused while pending"}
	ErrConnectionLost    = &Error{"connection lost"}
	ErrSessionClosed     = &Error{"session closed"}
	ErrRemote            = &Error{"target reported an error"}
)

// TimeoutError is returned when a reply or event does not arrive in time.
// The session stays usable.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("error: %s timed out after %v", e.Op, e.After)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

func (e *TimeoutError) Retryable() bool { return true }

// RemoteError carries a non-zero error code from a reply.
type RemoteError struct {
	Command proto.Command
	Code    proto.ErrorCode
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("error: %s failed with %s (%d)", e.Command, e.Code, uint16(e.Code))
}

func (e *RemoteError) Unwrap() error { return ErrRemote }

// ProtocolViolationError reports a packet that is neither a reply nor an
// event, or a packet with a malformed length.
type ProtocolViolationError struct {
	Reason string
	Header proto.Header
	Err    error
}

func (e *ProtocolViolationError) Error() string {
	msg := "error: protocol violation: " + e.Reason
	if e.Header.Length != 0 {
		msg += fmt.Sprintf(" (id=%d,flags=%#x,len=%d)", e.Header.ID, e.Header.Flags, e.Header.Length)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProtocolViolationError) Retryable() bool { return false }

func (e *ProtocolViolationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrProtocolViolation, e.Err}
	}
	return []error{ErrProtocolViolation}
}

type CorrelationReuseError struct {
	ID uint32
}

func (e *CorrelationReuseError) Error() string {
	return fmt.Sprintf("error: packet id %d reused while a request is pending", e.ID)
}

func (e *CorrelationReuseError) Unwrap() error { return ErrCorrelationReuse }

// IOError wraps a transport failure. Once seen, the session is unusable.
type IOError struct {
	Err error
}

func (e *IOError) Error() string {
	return "IOError: " + e.Err.Error()
}

func (e *IOError) Unwrap() []error { return []error{ErrConnectionLost, e.Err} }

func (e *IOError) Retryable() bool { return false }

// IsRetryable reports whether the operation that failed with err may be
// tried again. Errors that do not implement IRetryable are retryable.
func IsRetryable(err error) bool {
	var r IRetryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsFatal reports whether err leaves the session unusable.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConnectionLost) ||
		errors.Is(err, ErrCorrelationReuse) ||
		errors.Is(err, ErrSessionClosed)
}
