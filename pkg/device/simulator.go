package device

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"vitured/pkg/protocol"
)

const (
	simRollAmplitudeDeg  = 35.0
	simPitchAmplitudeDeg = 25.0
	simYawAmplitudeDeg   = 40.0

	simRollFreqHz  = 0.23
	simPitchFreqHz = 0.31
	simYawFreqHz   = 0.17

	simRollPhaseRad  = 0.0
	simPitchPhaseRad = math.Pi / 3.0
	simYawPhaseRad   = 2.0 * math.Pi / 3.0

	// SimHeartbeatID is the MCU message id the simulator emits once a second.
	SimHeartbeatID uint16 = 0x0301
)

// Call is one recorded control call on the simulator.
type Call struct {
	Name string
	Arg  any
}

func (c Call) String() string {
	if c.Arg == nil {
		return c.Name
	}
	return fmt.Sprintf("%s(%v)", c.Name, c.Arg)
}

// Simulator is an in-process SDK that generates orientation packets in the
// device wire format. It records every control call it receives.
type Simulator struct {
	mu       sync.Mutex
	imu      IMUHandler
	mcu      MCUHandler
	active   bool
	imuOn    bool
	mode3D   bool
	freq     Frequency
	calls    []Call
	stop     chan struct{}
	wg       sync.WaitGroup
	generate bool
	start    time.Time

	// InitResult is returned by Init; tests flip it to simulate failures.
	InitResult bool
}

type SimulatorOption func(*Simulator)

// WithoutGenerator disables the background packet generator; packets are
// only produced through EmitIMU and EmitMCU.
func WithoutGenerator() SimulatorOption {
	return func(s *Simulator) {
		s.generate = false
	}
}

func WithFrequency(f Frequency) SimulatorOption {
	return func(s *Simulator) {
		s.freq = f
	}
}

func NewSimulator(opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		freq:       Frequency60,
		generate:   true,
		InitResult: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) record(name string, arg any) {
	s.calls = append(s.calls, Call{Name: name, Arg: arg})
}

// Calls returns a copy of the recorded control calls.
func (s *Simulator) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Simulator) ResetCalls() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

func (s *Simulator) Init(imu IMUHandler, mcu MCUHandler) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("init", nil)
	if !s.InitResult || s.active {
		return false
	}
	s.imu = imu
	s.mcu = mcu
	s.active = true
	s.start = time.Now()
	if s.generate {
		s.stop = make(chan struct{})
		s.wg.Add(1)
		go s.run(s.stop)
	}
	return true
}

func (s *Simulator) Deinit() {
	s.mu.Lock()
	s.record("deinit", nil)
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.imuOn = false
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Simulator) SetIMU(on bool) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("set_imu", on)
	if !s.active {
		return ResultWriteFail
	}
	s.imuOn = on
	return ResultSuccess
}

func (s *Simulator) IMUState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("get_imu_state", nil)
	return StateOf(s.imuOn)
}

func (s *Simulator) Set3D(on bool) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("set_3d", on)
	if !s.active {
		return ResultWriteFail
	}
	s.mode3D = on
	return ResultSuccess
}

func (s *Simulator) State3D() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("get_3d_state", nil)
	return StateOf(s.mode3D)
}

func (s *Simulator) SetIMUFrequency(f Frequency) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("set_imu_fq", f)
	if !s.active {
		return ResultWriteFail
	}
	if f.Hz() == 0 {
		return ResultInvalidArgument
	}
	s.freq = f
	return ResultSuccess
}

func (s *Simulator) IMUFrequency() Frequency {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("get_imu_fq", nil)
	return s.freq
}

// EmitIMU delivers data to the registered IMU callback as the SDK would.
func (s *Simulator) EmitIMU(data []byte, ts uint32) {
	s.mu.Lock()
	cb := s.imu
	active := s.active
	s.mu.Unlock()
	if active && cb != nil {
		cb(data, ts)
	}
}

// EmitMCU delivers a message to the registered MCU callback.
func (s *Simulator) EmitMCU(msgID uint16, data []byte, ts uint32) {
	s.mu.Lock()
	cb := s.mcu
	active := s.active
	s.mu.Unlock()
	if active && cb != nil {
		cb(msgID, data, ts)
	}
}

func (s *Simulator) run(stop <-chan struct{}) {
	defer s.wg.Done()

	s.mu.Lock()
	freq := s.freq
	start := s.start
	s.mu.Unlock()

	ticker := time.NewTicker(time.Second / time.Duration(freq.Hz()))
	defer ticker.Stop()
	heartbeat := time.NewTicker(time.Second)
	defer heartbeat.Stop()

	var beats uint32
	for {
		select {
		case <-stop:
			return
		case now := <-heartbeat.C:
			beats++
			payload := make([]byte, 4)
			binary.BigEndian.PutUint32(payload, beats)
			s.EmitMCU(SimHeartbeatID, payload, uint32(now.Sub(start).Milliseconds()))
		case now := <-ticker.C:
			s.mu.Lock()
			on := s.imuOn
			cur := s.freq
			s.mu.Unlock()
			if cur != freq && cur.Hz() > 0 {
				freq = cur
				ticker.Reset(time.Second / time.Duration(freq.Hz()))
			}
			if !on {
				continue
			}
			elapsed := now.Sub(start)
			s.EmitIMU(SimulatedPacket(elapsed.Seconds()), uint32(elapsed.Milliseconds()))
		}
	}
}

// SimulatedPacket returns the full IMU packet the simulator emits t seconds
// after Init.
func SimulatedPacket(t float64) []byte {
	roll, pitch, yaw := simEulerAngles(t)
	return protocol.EncodeIMU(protocol.IMUSample{
		Euler: protocol.Euler{
			Roll:  float32(roll),
			Pitch: float32(pitch),
			Yaw:   float32(yaw),
		},
		Quaternion: simQuaternion(roll, pitch, yaw),
	})
}

func simEulerAngles(t float64) (roll float64, pitch float64, yaw float64) {
	roll = simRollAmplitudeDeg * math.Sin(2.0*math.Pi*simRollFreqHz*t+simRollPhaseRad)
	pitch = simPitchAmplitudeDeg * math.Sin(2.0*math.Pi*simPitchFreqHz*t+simPitchPhaseRad)
	yaw = simYawAmplitudeDeg * math.Sin(2.0*math.Pi*simYawFreqHz*t+simYawPhaseRad)
	return
}

func simQuaternion(rollDeg, pitchDeg, yawDeg float64) *protocol.Quaternion {
	roll := rollDeg * math.Pi / 180.0
	pitch := pitchDeg * math.Pi / 180.0
	yaw := yawDeg * math.Pi / 180.0

	cr := math.Cos(roll * 0.5)
	sr := math.Sin(roll * 0.5)
	cp := math.Cos(pitch * 0.5)
	sp := math.Sin(pitch * 0.5)
	cy := math.Cos(yaw * 0.5)
	sy := math.Sin(yaw * 0.5)

	// ZYX intrinsic rotation (yaw -> pitch -> roll).
	w := cr*cp*cy + sr*sp*sy
	x := sr*cp*cy - cr*sp*sy
	y := cr*sp*cy + sr*cp*sy
	z := cr*cp*sy - sr*sp*cy

	norm := math.Sqrt(w*w + x*x + y*y + z*z)
	if norm == 0 {
		return &protocol.Quaternion{W: 1}
	}
	inv := 1.0 / norm
	return &protocol.Quaternion{
		W: float32(w * inv),
		X: float32(x * inv),
		Y: float32(y * inv),
		Z: float32(z * inv),
	}
}
