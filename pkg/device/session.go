package device

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"vitured/pkg/protocol"
)

var (
	ErrClosed     = errors.New("device session closed")
	ErrInitFailed = errors.New("viture sdk init failed")
)

// Session owns one initialized SDK. All control calls go through it and
// Close tears the SDK down exactly once.
type Session struct {
	sdk    SDK
	pub    protocol.Publisher
	logger *log.Entry
	now    func() time.Time

	mu     sync.Mutex
	closed bool

	imuCount  atomic.Uint64
	mcuCount  atomic.Uint64
	dropCount atomic.Uint64
}

type Option func(*Session)

// WithPublisher routes decoded packets to p (usually the engine hub).
func WithPublisher(p protocol.Publisher) Option {
	return func(s *Session) {
		if p != nil {
			s.pub = p
		}
	}
}

func WithLogger(entry *log.Entry) Option {
	return func(s *Session) {
		if entry != nil {
			s.logger = entry
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

type discard struct{}

func (discard) Publish(protocol.Packet) {}

// Open initializes sdk with session-owned callbacks.
func Open(sdk SDK, opts ...Option) (*Session, error) {
	s := &Session{
		sdk:    sdk,
		pub:    discard{},
		logger: log.WithField("component", "device"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if !sdk.Init(s.handleIMU, s.handleMCU) {
		return nil, ErrInitFailed
	}
	s.logger.Debug("sdk initialized")
	return s, nil
}

func (s *Session) handleIMU(data []byte, ts uint32) {
	sample, err := protocol.DecodeIMU(data)
	if err != nil {
		s.dropCount.Add(1)
		s.logger.WithError(err).WithField("len", len(data)).Warn("dropping imu packet")
		return
	}
	s.imuCount.Add(1)
	s.pub.Publish(protocol.Packet{
		Kind:      protocol.KindIMU,
		Timestamp: s.now(),
		DeviceTS:  ts,
		Payload:   append([]byte(nil), data...),
		Data:      sample,
	})
}

func (s *Session) handleMCU(msgID uint16, data []byte, ts uint32) {
	s.mcuCount.Add(1)
	msg := protocol.NewMCUMessage(msgID, data, ts)
	s.pub.Publish(protocol.Packet{
		Kind:      protocol.KindMCU,
		ID:        msgID,
		Timestamp: s.now(),
		DeviceTS:  ts,
		Payload:   msg.Payload,
		Data:      msg,
	})
}

// Stats reports callback counters since Open.
type Stats struct {
	IMU     uint64
	MCU     uint64
	Dropped uint64
}

func (s *Session) Stats() Stats {
	return Stats{
		IMU:     s.imuCount.Load(),
		MCU:     s.mcuCount.Load(),
		Dropped: s.dropCount.Load(),
	}
}

func (s *Session) do(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	fn()
	return nil
}

func (s *Session) SetIMU(on bool) (Result, error) {
	var r Result
	err := s.do(func() { r = s.sdk.SetIMU(on) })
	return r, err
}

func (s *Session) IMUState() (State, error) {
	var st State
	err := s.do(func() { st = s.sdk.IMUState() })
	return st, err
}

func (s *Session) Set3D(on bool) (Result, error) {
	var r Result
	err := s.do(func() { r = s.sdk.Set3D(on) })
	return r, err
}

func (s *Session) State3D() (State, error) {
	var st State
	err := s.do(func() { st = s.sdk.State3D() })
	return st, err
}

func (s *Session) SetIMUFrequency(f Frequency) (Result, error) {
	var r Result
	err := s.do(func() { r = s.sdk.SetIMUFrequency(f) })
	return r, err
}

func (s *Session) IMUFrequency() (Frequency, error) {
	var f Frequency
	err := s.do(func() { f = s.sdk.IMUFrequency() })
	return f, err
}

// Close turns the IMU off and deinitializes the SDK. Later calls are no-ops.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if r := s.sdk.SetIMU(false); !r.OK() {
		s.logger.WithField("result", r).Warn("imu off on close")
	}
	s.sdk.Deinit()
	s.logger.Debug("sdk deinitialized")
	return nil
}
