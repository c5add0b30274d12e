package cli

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jdwpcheck/pkg/proto"
)

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&TimeoutError{Op: "handshake", After: time.Second}))
	assert.True(t, IsRetryable(fmt.Errorf("attempt 2: %w", &TimeoutError{Op: "event"})))
	assert.True(t, IsRetryable(io.EOF))

	assert.False(t, IsRetryable(&IOError{Err: io.ErrUnexpectedEOF}))
	assert.False(t, IsRetryable(ErrSessionClosed))
	assert.False(t, IsRetryable(&ProtocolViolationError{Reason: "handshake", Err: proto.ErrBadHandshake}))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(&IOError{Err: io.EOF}))
	assert.True(t, IsFatal(&CorrelationReuseError{ID: 3}))
	assert.True(t, IsFatal(ErrSessionClosed))
	assert.False(t, IsFatal(&TimeoutError{Op: "event"}))
	assert.False(t, IsFatal(&RemoteError{Command: proto.CmdVMResume, Code: proto.ErrorVMDead}))
	assert.True(t, errors.Is(&ProtocolViolationError{Reason: "x"}, ErrProtocolViolation))
}
