package transport_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vitured/pkg/transport"
)

func TestServerDeframe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan []byte, 4)
	srv, err := transport.StartServer(ctx, "127.0.0.1:0", out, transport.WithBufferSize(128))
	require.NoError(t, err)

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(`"Rece`))
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = conn.Write([]byte(`nter";;{"ScaleYaw":2};`))
	require.NoError(t, err)

	require.Equal(t, `"Recenter"`, string(readFrame(t, out)))
	require.Equal(t, `{"ScaleYaw":2}`, string(readFrame(t, out)))
}

func TestSendFrames(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	out := make(chan []byte, 4)
	srv, err := transport.StartServer(ctx, "127.0.0.1:0", out)
	require.NoError(t, err)

	err = transport.SendFrames(ctx, srv.Addr().String(), [][]byte{[]byte("a"), []byte("bc")})
	require.NoError(t, err)

	require.Equal(t, "a", string(readFrame(t, out)))
	require.Equal(t, "bc", string(readFrame(t, out)))

	cancel()
	done := make(chan struct{})
	go func() {
		srv.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("server did not stop")
	}
}

func TestSendFramesDialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	err = transport.SendFrames(context.Background(), addr, [][]byte{[]byte("x")},
		transport.WithDialTimeout(200*time.Millisecond))
	require.Error(t, err)
}

func TestServerCustomDelimiterAndIdleTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errs := make(chan error, 1)
	out := make(chan []byte, 4)
	srv, err := transport.StartServer(ctx, "127.0.0.1:0", out,
		transport.WithDelimiter('\n'),
		transport.WithReadTimeout(50*time.Millisecond),
		transport.WithErrorHandler(func(err error) { errs <- err }),
	)
	require.NoError(t, err)

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("\"Recenter\";x\n"))
	require.NoError(t, err)
	require.Equal(t, `"Recenter";x`, string(readFrame(t, out)))

	select {
	case err := <-errs:
		var nerr net.Error
		require.True(t, errors.As(err, &nerr), "%v", err)
		require.True(t, nerr.Timeout())
	case <-time.After(time.Second):
		t.Fatalf("idle connection was not timed out")
	}
}

func readFrame(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case frame := <-ch:
		return frame
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for frame")
		return nil
	}
}
