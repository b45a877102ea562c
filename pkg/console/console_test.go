package console_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitured/pkg/console"
	"vitured/pkg/device"
)

func newConsole(t *testing.T) (*device.Simulator, *console.Console, *bytes.Buffer) {
	t.Helper()
	sim := device.NewSimulator(device.WithoutGenerator())
	sess, err := device.Open(sim)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	sim.ResetCalls()

	var out bytes.Buffer
	return sim, console.New(sess, &out), &out
}

func runInput(t *testing.T, c *console.Console, input string) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.Run(ctx, strings.NewReader(input))
}

func TestParse(t *testing.T) {
	cases := []struct {
		line string
		want console.Command
		ok   bool
	}{
		{"imuon\n", console.CmdIMUOn, true},
		{"imuoff\n", console.CmdIMUOff, true},
		{"imuoff now\n", console.CmdIMUOff, true},
		{"  fq240\r\n", console.CmdFreq240, true},
		{"get3d", console.CmdGet3D, true},
		{"3d", console.Cmd3D, true},
		{"3dx", 0, false},
		{"fq100", 0, false},
		{"IMUON", 0, false},
		{"", 0, false},
		{"unknown\n", 0, false},
	}
	for _, tc := range cases {
		got, ok := console.Parse(tc.line)
		assert.Equal(t, tc.ok, ok, "line %q", tc.line)
		assert.Equal(t, tc.want, got, "line %q", tc.line)
	}
}

func TestQuitClosesDevice(t *testing.T) {
	sim, c, out := newConsole(t)

	require.NoError(t, runInput(t, c, "quit\nimuon\n"))
	assert.Equal(t, []device.Call{
		{Name: "set_imu", Arg: false},
		{Name: "deinit"},
	}, sim.Calls())
	assert.Contains(t, out.String(), "Your input is: quit\n")
	assert.Contains(t, out.String(), "quit over.")
}

func TestFrequencyCommand(t *testing.T) {
	sim, c, out := newConsole(t)

	require.ErrorIs(t, runInput(t, c, "fq120\n"), console.ErrInputClosed)
	assert.Equal(t, []device.Call{{Name: "set_imu_fq", Arg: device.Frequency(0x02)}}, sim.Calls())
	assert.Contains(t, out.String(), "setfq 120: 0\n")
}

func TestUnknownInputMakesNoCalls(t *testing.T) {
	sim, c, _ := newConsole(t)

	require.ErrorIs(t, runInput(t, c, "unknown\n\n   \n"), console.ErrInputClosed)
	assert.Empty(t, sim.Calls())
}

func TestDisplayModeCommands(t *testing.T) {
	sim, c, out := newConsole(t)
	require.ErrorIs(t, runInput(t, c, "3d\n"), console.ErrInputClosed)
	assert.Equal(t, []device.Call{{Name: "set_3d", Arg: true}}, sim.Calls())
	assert.Contains(t, out.String(), "set_3d on: 0\n")

	sim.ResetCalls()
	require.ErrorIs(t, runInput(t, c, "2d\n"), console.ErrInputClosed)
	assert.Equal(t, []device.Call{{Name: "set_3d", Arg: false}}, sim.Calls())
	assert.Contains(t, out.String(), "set_3d off: 0\n")
}

func TestGetters(t *testing.T) {
	sim, c, out := newConsole(t)

	err := runInput(t, c, "imuon\ngetimu\nfq90\ngetfq\nget3d\n")
	require.ErrorIs(t, err, console.ErrInputClosed)

	assert.Equal(t, []device.Call{
		{Name: "set_imu", Arg: true},
		{Name: "get_imu_state"},
		{Name: "set_imu_fq", Arg: device.Frequency90},
		{Name: "get_imu_fq"},
		{Name: "get_3d_state"},
	}, sim.Calls())
	text := out.String()
	assert.Contains(t, text, "set_imu on: 0\n")
	assert.Contains(t, text, "getimu state: 1\n")
	assert.Contains(t, text, "setfq 90: 0\n")
	assert.Contains(t, text, "getfq fq: 1\n")
	assert.Contains(t, text, "get_3D state: 0\n")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("tty gone")
}

func TestReadErrorIsFatal(t *testing.T) {
	_, c, _ := newConsole(t)
	err := c.Run(context.Background(), failingReader{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, console.ErrInputClosed)
	assert.Contains(t, err.Error(), "tty gone")
}

func TestCancelStopsBlockedRead(t *testing.T) {
	_, c, _ := newConsole(t)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, pr) }()

	_, err := pw.Write([]byte("imuon\n"))
	require.NoError(t, err)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatalf("console did not stop on cancel")
	}
}

func TestCommandAfterCloseFails(t *testing.T) {
	sim := device.NewSimulator(device.WithoutGenerator())
	sess, err := device.Open(sim)
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	c := console.New(sess, io.Discard, console.WithoutEcho())
	_, err = c.Execute(console.CmdIMUOn)
	require.ErrorIs(t, err, device.ErrClosed)
}
