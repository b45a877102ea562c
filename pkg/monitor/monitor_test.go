package monitor_test

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitured/pkg/device"
	"vitured/pkg/monitor"
	"vitured/pkg/protocol"
)

func newMonitor(t *testing.T, sub <-chan protocol.Packet) (*device.Simulator, *device.Session, monitor.Model) {
	t.Helper()
	sim := device.NewSimulator(device.WithoutGenerator())
	sess, err := device.Open(sim)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	m := monitor.New(sess, sub, monitor.WithStats(sess.Stats))
	sim.ResetCalls()
	return sim, sess, m
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m monitor.Model, s string) (monitor.Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key(s))
	out, ok := next.(monitor.Model)
	require.True(t, ok)
	return out, cmd
}

func TestKeysIssueConsoleCommands(t *testing.T) {
	sim, _, m := newMonitor(t, nil)

	m, _ = press(t, m, "i")
	assert.Equal(t, "set_imu on: 0", m.Status())
	m, _ = press(t, m, "i")
	assert.Equal(t, "set_imu off: 0", m.Status())
	m, _ = press(t, m, "3")
	m, _ = press(t, m, "2")
	m, _ = press(t, m, "f")
	assert.Equal(t, "setfq 90: 0", m.Status())
	m, _ = press(t, m, "x")

	assert.Equal(t, []device.Call{
		{Name: "set_imu", Arg: true},
		{Name: "set_imu", Arg: false},
		{Name: "set_3d", Arg: true},
		{Name: "set_3d", Arg: false},
		{Name: "set_imu_fq", Arg: device.Frequency90},
	}, sim.Calls())
	assert.Contains(t, m.View(), "freq 90Hz")
}

func TestQueryKeyReportsAllStates(t *testing.T) {
	_, _, m := newMonitor(t, nil)

	m, _ = press(t, m, "g")
	assert.Equal(t, "getimu state: 0 | get_3D state: 0 | getfq fq: 0", m.Status())
}

func TestQuitClosesDevice(t *testing.T) {
	sim, sess, m := newMonitor(t, nil)

	m, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.True(t, m.Quitting())
	assert.Equal(t, []device.Call{
		{Name: "set_imu", Arg: false},
		{Name: "deinit"},
	}, sim.Calls())

	_, err := sess.IMUState()
	assert.ErrorIs(t, err, device.ErrClosed)
}

func TestPacketsUpdateView(t *testing.T) {
	sub := make(chan protocol.Packet, 2)
	_, _, m := newMonitor(t, sub)
	assert.Contains(t, m.View(), "waiting for imu data")

	sample := protocol.IMUSample{
		Euler:      protocol.Euler{Roll: 1.5, Pitch: -2.25, Yaw: 90},
		Quaternion: &protocol.Quaternion{W: 1},
	}
	sub <- protocol.Packet{Kind: protocol.KindIMU, Timestamp: time.Now(), Data: sample}
	sub <- protocol.Packet{Kind: protocol.KindMCU, ID: device.SimHeartbeatID, Payload: []byte{1, 2}}

	cmd := m.Init()
	require.NotNil(t, cmd)
	for i := 0; i < 2; i++ {
		next, nextCmd := m.Update(cmd())
		m = next.(monitor.Model)
		cmd = nextCmd
	}

	view := m.View()
	assert.Contains(t, view, "1.500")
	assert.Contains(t, view, "-2.250")
	assert.Contains(t, view, "quat  w 1.0000")
	assert.Contains(t, view, "mcu   0x0301 len 2")

	close(sub)
	next, _ := m.Update(cmd())
	assert.Contains(t, next.View(), "stream closed")
}
