package io

import (
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jdwpcheck/internal/cli"
	"jdwpcheck/pkg/proto"
	"jdwpcheck/pkg/util"
)

// listenAgent accepts connections and answers each handshake with reply.
func listenAgent(t *testing.T, reply string) (*ServiceEndpoint, *int32) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	var accepted int32
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			atomic.AddInt32(&accepted, 1)
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, len(proto.Handshake))
				if _, err := io.ReadFull(c, buf); err != nil {
					return
				}
				c.Write([]byte(reply))
				io.Copy(io.Discard, c)
			}(conn)
		}
	}()
	return &ServiceEndpoint{Addr: ln.Addr().String()}, &accepted
}

func testTransportConfig() *TransportConfig {
	return &TransportConfig{
		ConnectTimeout:        util.Duration{Duration: 200 * time.Millisecond},
		AttachTimeout:         util.Duration{Duration: 500 * time.Millisecond},
		HandshakeTimeout:      util.Duration{Duration: 200 * time.Millisecond},
		ReconnectIntervalBase: 10,
		ReconnectIntervalMax:  50,
	}
}

func TestAttach(t *testing.T) {
	ep, accepted := listenAgent(t, proto.Handshake)

	conn, err := Attach(context.Background(), ep, testTransportConfig())
	require.NoError(t, err)
	conn.Close()
	assert.Equal(t, int32(1), atomic.LoadInt32(accepted))
}

func TestAttachBadHandshakeIsNotRetried(t *testing.T) {
	ep, accepted := listenAgent(t, "HTTP/1.1 400 B")

	_, err := Attach(context.Background(), ep, testTransportConfig())
	assert.True(t, errors.Is(err, proto.ErrBadHandshake))
	assert.True(t, errors.Is(err, cli.ErrProtocolViolation))
	assert.False(t, cli.IsRetryable(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(accepted))
}

func TestAttachRetriesHandshakeTimeout(t *testing.T) {
	ep, accepted := listenAgent(t, "")

	_, err := Attach(context.Background(), ep, testTransportConfig())
	require.Error(t, err)
	assert.True(t, cli.IsTimeout(err), "%v", err)
	assert.GreaterOrEqual(t, atomic.LoadInt32(accepted), int32(2))
}

func TestAttachGivesUpAfterAttachTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ep := &ServiceEndpoint{Addr: ln.Addr().String()}
	ln.Close()

	start := time.Now()
	_, err = Attach(context.Background(), ep, testTransportConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHandshakeOverPipe(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		buf := make([]byte, len(proto.Handshake))
		io.ReadFull(server, buf)
		server.Write(buf)
	}()
	assert.NoError(t, Handshake(client, time.Second))
}

func TestHandshakeShortReply(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		buf := make([]byte, len(proto.Handshake))
		io.ReadFull(server, buf)
		server.Write([]byte("JDWP"))
		server.Close()
	}()
	err := Handshake(client, time.Second)
	assert.True(t, errors.Is(err, proto.ErrBadHandshake))
}

func TestSetFromConnString(t *testing.T) {
	for _, tc := range []struct {
		in, addr string
	}{
		{"8000", "localhost:8000"},
		{":8000", "localhost:8000"},
		{"tcp:10.0.0.1:5005", "10.0.0.1:5005"},
		{"transport=dt_socket,address=host:9000,server=y", "host:9000"},
	} {
		var ep ServiceEndpoint
		require.NoError(t, ep.SetFromConnString(tc.in), tc.in)
		assert.Equal(t, tc.addr, ep.Addr)
	}
	var ep ServiceEndpoint
	assert.Error(t, ep.Validate())
}

func TestTransportConfigDefaults(t *testing.T) {
	cfg := TransportConfig{ConnectTimeout: util.Duration{Duration: time.Minute}}
	assert.True(t, cfg.SetDefaultIfNotDefined())
	assert.Equal(t, time.Minute, cfg.AttachTimeout.Duration)
	assert.Equal(t, DefaultTransportConfig.ResponseTimeout, cfg.ResponseTimeout)
	assert.False(t, cfg.SetDefaultIfNotDefined())

	sc := cfg.SessionConfig("vm")
	assert.Equal(t, "vm", sc.Name)
	assert.Equal(t, cfg.ResponseTimeout.Duration, sc.ResponseTimeout)
}
