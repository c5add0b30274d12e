package debugee

import (
	"fmt"

	"jdwpcheck/internal/cli"
	"jdwpcheck/pkg/proto"
)

var (
	ErrNotFound              = &cli.Error{What: "not found"}
	ErrUnexpectedEvent       = &cli.Error{What: "unexpected event"}
	ErrVMDeath               = &cli.Error{What: "target VM died"}
	ErrZeroRequestID         = &cli.Error{What: "zero request id"}
	ErrUnexpectedTag         = &cli.Error{What: "unexpected value tag"}
	ErrExitStatusUnavailable = &cli.Error{What: "exit status unavailable"}
)

// NotFoundError reports a class, method, field or line the target does
// not know.
type NotFoundError struct {
	What string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("error: %s %s not found", e.What, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// UnexpectedEventError reports an event set that is not the awaited one.
// When the set carries VM_DEATH it also matches ErrVMDeath.
type UnexpectedEventError struct {
	Expected  proto.EventKind
	RequestID int32
	Set       *proto.EventSet
}

func (e *UnexpectedEventError) Error() string {
	got := make([]string, 0, len(e.Set.Events))
	for i := range e.Set.Events {
		got = append(got, e.Set.Events[i].String())
	}
	return fmt.Sprintf("error: expected %s (rid=%d), got %v", e.Expected, e.RequestID, got)
}

func (e *UnexpectedEventError) Unwrap() []error {
	if hasVMDeath(e.Set) {
		return []error{ErrUnexpectedEvent, ErrVMDeath}
	}
	return []error{ErrUnexpectedEvent}
}

// UnexpectedEventDataError reports an event whose decoded data is not
// what its kind decodes to, as with a replaced event decoder.
type UnexpectedEventDataError struct {
	Kind proto.EventKind
	Data proto.EventData
}

func (e *UnexpectedEventDataError) Error() string {
	return fmt.Sprintf("error: %s event carries %T", e.Kind, e.Data)
}

func (e *UnexpectedEventDataError) Unwrap() error { return ErrUnexpectedEvent }

func hasVMDeath(set *proto.EventSet) bool {
	for i := range set.Events {
		if set.Events[i].Kind == proto.EventVMDeath {
			return true
		}
	}
	return false
}

type UnexpectedTagError struct {
	Field    string
	Tag      proto.Tag
	Expected proto.Tag
}

func (e *UnexpectedTagError) Error() string {
	return fmt.Sprintf("error: value of %s has tag %s, expected %s", e.Field, e.Tag, e.Expected)
}

func (e *UnexpectedTagError) Unwrap() error { return ErrUnexpectedTag }
