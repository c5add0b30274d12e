package ioutil

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsClosed(t *testing.T) {
	assert.True(t, IsClosed(io.EOF))
	assert.True(t, IsClosed(fmt.Errorf("read: %w", net.ErrClosed)))
	assert.True(t, IsClosed(&net.OpError{Op: "read", Err: os.NewSyscallError("read", syscall.ECONNRESET)}))
	assert.False(t, IsClosed(errors.New("boom")))
	assert.False(t, IsClosed(io.ErrUnexpectedEOF))

	LogError(nil)
	LogError(io.EOF)
}
