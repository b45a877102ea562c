// Package monitor is a live terminal view of the glasses stream.
package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"vitured/pkg/console"
	"vitured/pkg/device"
	"vitured/pkg/protocol"
)

// PacketMsg carries one hub packet into the model.
type PacketMsg struct {
	Packet protocol.Packet
}

// StreamClosedMsg reports that the packet subscription ended.
type StreamClosedMsg struct{}

var frequencyCycle = []console.Command{
	console.CmdFreq60,
	console.CmdFreq90,
	console.CmdFreq120,
	console.CmdFreq240,
}

type Model struct {
	dev     console.Device
	con     *console.Console
	output  *bytes.Buffer
	sub     <-chan protocol.Packet
	stats   func() device.Stats
	sample  protocol.IMUSample
	haveIMU bool
	lastAt  time.Time
	mcuID   uint16
	mcuLen  int
	haveMCU bool
	imuOn   bool
	mode3D  bool
	freq    device.Frequency
	status  string
	closed  bool
	quit    bool
}

type Option func(*Model)

// WithStats shows session counters in the footer.
func WithStats(fn func() device.Stats) Option {
	return func(m *Model) {
		m.stats = fn
	}
}

// New builds a monitor over dev, reading packets from sub.
func New(dev console.Device, sub <-chan protocol.Packet, opts ...Option) Model {
	out := &bytes.Buffer{}
	m := Model{
		dev:    dev,
		con:    console.New(dev, out, console.WithoutEcho()),
		output: out,
		sub:    sub,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if st, err := dev.IMUState(); err == nil {
		m.imuOn = st == device.StateOn
	}
	if st, err := dev.State3D(); err == nil {
		m.mode3D = st == device.StateOn
	}
	if f, err := dev.IMUFrequency(); err == nil {
		m.freq = f
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return waitForPacket(m.sub)
}

func waitForPacket(sub <-chan protocol.Packet) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		pkt, ok := <-sub
		if !ok {
			return StreamClosedMsg{}
		}
		return PacketMsg{Packet: pkt}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PacketMsg:
		m.observe(msg.Packet)
		return m, waitForPacket(m.sub)
	case StreamClosedMsg:
		m.closed = true
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) observe(pkt protocol.Packet) {
	switch pkt.Kind {
	case protocol.KindIMU:
		if s, ok := pkt.IMU(); ok {
			m.sample = s
			m.haveIMU = true
			m.lastAt = pkt.Timestamp
		}
	case protocol.KindMCU:
		m.mcuID = pkt.ID
		m.mcuLen = len(pkt.Payload)
		m.haveMCU = true
	}
}

func (m Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.output.Reset()
	var errs []string
	run := func(cmd console.Command) bool {
		if _, err := m.con.Execute(cmd); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", cmd, err))
			return false
		}
		return true
	}

	switch key.String() {
	case "ctrl+c":
		m.quit = true
		return m, tea.Quit
	case "q":
		run(console.CmdQuit)
		m.quit = true
		return m, tea.Quit
	case "i":
		cmd := console.CmdIMUOn
		if m.imuOn {
			cmd = console.CmdIMUOff
		}
		if run(cmd) {
			m.imuOn = !m.imuOn
		}
	case "3":
		if run(console.Cmd3D) {
			m.mode3D = true
		}
	case "2":
		if run(console.Cmd2D) {
			m.mode3D = false
		}
	case "f":
		next := (int(m.freq) + 1) % len(frequencyCycle)
		if run(frequencyCycle[next]) {
			m.freq = device.Frequency(next)
		}
	case "g":
		run(console.CmdGetIMU)
		run(console.CmdGet3D)
		run(console.CmdGetFreq)
	default:
		return m, nil
	}

	lines := strings.Split(strings.TrimSpace(m.output.String()), "\n")
	lines = append(lines, errs...)
	m.status = strings.Trim(strings.Join(lines, " | "), " |")
	return m, nil
}

// Status is the output of the last command issued from the keyboard.
func (m Model) Status() string {
	return m.status
}

func (m Model) Quitting() bool {
	return m.quit
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString("vitured monitor\n\n")

	if m.haveIMU {
		e := m.sample.Euler
		fmt.Fprintf(&b, "  roll  %9.3f\n  pitch %9.3f\n  yaw   %9.3f\n", e.Roll, e.Pitch, e.Yaw)
		if q := m.sample.Quaternion; q != nil {
			fmt.Fprintf(&b, "  quat  w %.4f x %.4f y %.4f z %.4f\n", q.W, q.X, q.Y, q.Z)
		}
		fmt.Fprintf(&b, "  at    %s\n", m.lastAt.Format("15:04:05.000"))
	} else {
		b.WriteString("  waiting for imu data\n")
	}
	if m.haveMCU {
		fmt.Fprintf(&b, "  mcu   %s len %d\n", protocol.FormatID(m.mcuID), m.mcuLen)
	}

	fmt.Fprintf(&b, "\n  imu %s  3d %s  freq %s\n", device.StateOf(m.imuOn), device.StateOf(m.mode3D), m.freq)
	if m.stats != nil {
		st := m.stats()
		fmt.Fprintf(&b, "  packets imu %d mcu %d dropped %d\n", st.IMU, st.MCU, st.Dropped)
	}
	if m.closed {
		b.WriteString("  stream closed\n")
	}
	if m.status != "" {
		fmt.Fprintf(&b, "\n  %s\n", m.status)
	}
	b.WriteString("\n  i imu on/off  3/2 mode  f frequency  g query  q quit\n")
	return b.String()
}

// Run drives m until the user quits or ctx is done.
func Run(ctx context.Context, m Model, in io.Reader, out io.Writer) error {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	p := tea.NewProgram(m, opts...)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run monitor: %w", err)
	}
	return nil
}
