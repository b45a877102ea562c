package device_test

import (
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitured/pkg/device"
	"vitured/pkg/protocol"
)

type collector struct {
	mu      sync.Mutex
	packets []protocol.Packet
}

func (c *collector) Publish(p protocol.Packet) {
	c.mu.Lock()
	c.packets = append(c.packets, p)
	c.mu.Unlock()
}

func (c *collector) all() []protocol.Packet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]protocol.Packet(nil), c.packets...)
}

func openSim(t *testing.T, pub protocol.Publisher) (*device.Simulator, *device.Session) {
	t.Helper()
	sim := device.NewSimulator(device.WithoutGenerator())
	sess, err := device.Open(sim, device.WithPublisher(pub))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sim, sess
}

func TestSessionControlCalls(t *testing.T) {
	sim, sess := openSim(t, nil)

	r, err := sess.SetIMU(true)
	require.NoError(t, err)
	assert.Equal(t, device.ResultSuccess, r)

	st, err := sess.IMUState()
	require.NoError(t, err)
	assert.Equal(t, device.StateOn, st)

	r, err = sess.SetIMUFrequency(device.Frequency120)
	require.NoError(t, err)
	assert.True(t, r.OK())

	f, err := sess.IMUFrequency()
	require.NoError(t, err)
	assert.Equal(t, 120, f.Hz())

	r, err = sess.Set3D(true)
	require.NoError(t, err)
	assert.True(t, r.OK())

	st, err = sess.State3D()
	require.NoError(t, err)
	assert.Equal(t, device.StateOn, st)

	assert.Equal(t, []device.Call{
		{Name: "init"},
		{Name: "set_imu", Arg: true},
		{Name: "get_imu_state"},
		{Name: "set_imu_fq", Arg: device.Frequency120},
		{Name: "get_imu_fq"},
		{Name: "set_3d", Arg: true},
		{Name: "get_3d_state"},
	}, sim.Calls())
}

func TestSessionCloseOnce(t *testing.T) {
	sim, sess := openSim(t, nil)
	sim.ResetCalls()

	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())

	assert.Equal(t, []device.Call{
		{Name: "set_imu", Arg: false},
		{Name: "deinit"},
	}, sim.Calls())

	_, err := sess.SetIMU(true)
	require.ErrorIs(t, err, device.ErrClosed)
	_, err = sess.IMUFrequency()
	require.ErrorIs(t, err, device.ErrClosed)
}

func TestSessionOpenFailure(t *testing.T) {
	sim := device.NewSimulator(device.WithoutGenerator())
	sim.InitResult = false
	_, err := device.Open(sim)
	require.ErrorIs(t, err, device.ErrInitFailed)
}

func TestSessionPublishesDecodedPackets(t *testing.T) {
	pub := &collector{}
	ts := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	sim := device.NewSimulator(device.WithoutGenerator())
	sess, err := device.Open(sim, device.WithPublisher(pub), device.WithClock(func() time.Time { return ts }))
	require.NoError(t, err)
	defer sess.Close()

	full := device.SimulatedPacket(1.0)
	sim.EmitIMU(full, 1000)
	sim.EmitIMU(make([]byte, protocol.EulerSize), 1001)
	sim.EmitIMU(make([]byte, 4), 1002)
	sim.EmitMCU(0x0042, []byte{0xde, 0xad}, 1003)

	packets := pub.all()
	require.Len(t, packets, 3)

	first, ok := packets[0].IMU()
	require.True(t, ok)
	assert.Equal(t, protocol.KindIMU, packets[0].Kind)
	assert.Equal(t, uint32(1000), packets[0].DeviceTS)
	assert.Equal(t, ts, packets[0].Timestamp)
	assert.Len(t, first.Values(), 7)

	second, ok := packets[1].IMU()
	require.True(t, ok)
	assert.Len(t, second.Values(), 3)

	assert.Equal(t, protocol.KindMCU, packets[2].Kind)
	assert.Equal(t, uint16(0x0042), packets[2].ID)
	msg, ok := packets[2].Data.(protocol.MCUMessage)
	require.True(t, ok)
	assert.Equal(t, []byte{0xde, 0xad}, msg.Payload)

	assert.Equal(t, device.Stats{IMU: 2, MCU: 1, Dropped: 1}, sess.Stats())
}

func TestSessionLogsDroppedPackets(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	sim := device.NewSimulator(device.WithoutGenerator())
	sess, err := device.Open(sim, device.WithLogger(logger.WithField("component", "glasses")))
	require.NoError(t, err)
	defer sess.Close()

	sim.EmitIMU(make([]byte, 5), 1)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.WarnLevel, entry.Level)
	assert.Equal(t, "dropping imu packet", entry.Message)
	assert.Equal(t, 5, entry.Data["len"])
	assert.Equal(t, "glasses", entry.Data["component"])
	assert.Equal(t, uint64(1), sess.Stats().Dropped)
}

func TestSimulatorGeneratesWhenIMUOn(t *testing.T) {
	pub := &collector{}
	sim := device.NewSimulator(device.WithFrequency(device.Frequency240))
	sess, err := device.Open(sim, device.WithPublisher(pub))
	require.NoError(t, err)

	_, err = sess.SetIMU(true)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return sess.Stats().IMU >= 3
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, sess.Close())
	n := len(pub.all())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, len(pub.all()), "no packets after close")
}
