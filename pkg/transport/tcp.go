package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// FrameDelimiter terminates control frames on the wire.
const FrameDelimiter byte = ';'

type Server struct {
	ln           net.Listener
	out          chan<- []byte
	delim        byte
	bufSize      int
	dialTimeout  time.Duration
	readTimeout  time.Duration
	errorHandler func(error)
	wg           sync.WaitGroup
}

type Option func(*Server)

func WithBufferSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.bufSize = n
		}
	}
}

func WithDialTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.dialTimeout = d
		}
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.readTimeout = d
		}
	}
}

func WithDelimiter(b byte) Option {
	return func(s *Server) {
		s.delim = b
	}
}

func WithErrorHandler(fn func(error)) Option {
	return func(s *Server) {
		if fn != nil {
			s.errorHandler = fn
		}
	}
}

func newServer(out chan<- []byte, opts ...Option) *Server {
	s := &Server{
		out:         out,
		delim:       FrameDelimiter,
		bufSize:     64 * 1024,
		dialTimeout: 5 * time.Second,
		readTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartServer listens on addr and forwards every delimited frame received
// from any client to out until ctx is done.
func StartServer(ctx context.Context, addr string, out chan<- []byte, opts ...Option) (*Server, error) {
	s := newServer(out, opts...)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	s.ln = ln

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	s.wg.Add(1)
	go s.acceptLoop(ctx)
	return s, nil
}

func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Wait blocks until the accept loop and all connections have finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.handleError(err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			stop := make(chan struct{})
			defer close(stop)
			go func() {
				select {
				case <-ctx.Done():
					_ = conn.Close()
				case <-stop:
				}
			}()
			err := s.handleConn(ctx, conn)
			_ = conn.Close()
			if err != nil && ctx.Err() == nil {
				s.handleError(err)
			}
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) error {
	reader := bufio.NewReaderSize(conn, s.bufSize)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		frame, err := reader.ReadBytes(s.delim)
		if len(frame) > 0 && frame[len(frame)-1] == s.delim {
			frame = frame[:len(frame)-1]
		}
		if len(frame) > 0 {
			payload := append([]byte(nil), frame...)
			select {
			case s.out <- payload:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
	}
}

func (s *Server) handleError(err error) {
	if s.errorHandler != nil {
		s.errorHandler(err)
	}
}

// SendFrames dials addr and writes each frame followed by the delimiter.
func SendFrames(ctx context.Context, addr string, frames [][]byte, opts ...Option) error {
	s := newServer(nil, opts...)
	dialer := net.Dialer{Timeout: s.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	w := bufio.NewWriter(conn)
	for _, frame := range frames {
		if _, err := w.Write(frame); err != nil {
			return err
		}
		if err := w.WriteByte(s.delim); err != nil {
			return err
		}
	}
	return w.Flush()
}
