package ioutil

import (
	"errors"
	"io"
	"net"
	"os"
	"syscall"

	"jdwpcheck/pkg/logging/glog"
)

// LogError logs a stream error at a level matching how expected it is: a
// peer hanging up or a locally closed stream is debug, anything else a
// warning.
func LogError(err error) {
	if err == nil {
		return
	}
	if IsClosed(err) {
		glog.DebugDepth(1, err)
		return
	}
	glog.WarningDepth(1, err)
}

// IsClosed reports whether err means the stream was closed by either side.
func IsClosed(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var sErr *os.SyscallError
	if errors.As(err, &sErr) {
		return sErr.Err == syscall.ECONNRESET || sErr.Err == syscall.EPIPE
	}
	return false
}
