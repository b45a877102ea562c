package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"vitured/pkg/device"
)

var ErrInputClosed = errors.New("console input closed")

// Device is the control surface the console drives. *device.Session
// implements it.
type Device interface {
	SetIMU(on bool) (device.Result, error)
	IMUState() (device.State, error)
	Set3D(on bool) (device.Result, error)
	State3D() (device.State, error)
	SetIMUFrequency(f device.Frequency) (device.Result, error)
	IMUFrequency() (device.Frequency, error)
	Close() error
}

type Console struct {
	dev    Device
	out    io.Writer
	echo   bool
	logger *log.Entry
}

type Option func(*Console)

// WithoutEcho suppresses the "Your input is" line.
func WithoutEcho() Option {
	return func(c *Console) {
		c.echo = false
	}
}

func New(dev Device, out io.Writer, opts ...Option) *Console {
	c := &Console{
		dev:    dev,
		out:    out,
		echo:   true,
		logger: log.WithField("component", "console"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type line struct {
	text string
	err  error
}

// Run reads commands from in until quit, end of input or ctx cancellation.
// It returns nil after quit (the device is closed) or cancellation, and an
// error wrapping ErrInputClosed or the read error otherwise.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan line)
	go readLines(ctx, in, lines)

	for {
		select {
		case <-ctx.Done():
			return nil
		case l := <-lines:
			if l.err != nil {
				if errors.Is(l.err, io.EOF) {
					return ErrInputClosed
				}
				return fmt.Errorf("read console input: %w", l.err)
			}
			quit, err := c.Handle(l.text)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

func readLines(ctx context.Context, in io.Reader, out chan<- line) {
	reader := bufio.NewReader(in)
	for {
		text, err := reader.ReadString('\n')
		if text != "" {
			select {
			case out <- line{text: text}:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			select {
			case out <- line{err: err}:
			case <-ctx.Done():
			}
			return
		}
	}
}

// Handle echoes and executes one input line. Unknown input is ignored.
func (c *Console) Handle(text string) (quit bool, err error) {
	if c.echo {
		fmt.Fprintf(c.out, "Your input is: %s\n", text)
	}
	cmd, ok := Parse(text)
	if !ok {
		c.logger.WithField("input", strings.TrimSpace(text)).Debug("ignoring unknown command")
		return false, nil
	}
	return c.Execute(cmd)
}

// Execute issues the single device call cmd maps to and prints its result.
func (c *Console) Execute(cmd Command) (quit bool, err error) {
	switch cmd {
	case CmdIMUOff:
		r, err := c.dev.SetIMU(false)
		return false, c.report("set_imu off: %d\n", int32(r), err)
	case CmdIMUOn:
		r, err := c.dev.SetIMU(true)
		return false, c.report("set_imu on: %d\n", int32(r), err)
	case Cmd3D:
		r, err := c.dev.Set3D(true)
		return false, c.report("set_3d on: %d\n", int32(r), err)
	case Cmd2D:
		r, err := c.dev.Set3D(false)
		return false, c.report("set_3d off: %d\n", int32(r), err)
	case CmdGet3D:
		st, err := c.dev.State3D()
		return false, c.report("get_3D state: %d\n", int32(st), err)
	case CmdGetIMU:
		st, err := c.dev.IMUState()
		return false, c.report("getimu state: %d\n", int32(st), err)
	case CmdFreq60, CmdFreq90, CmdFreq120, CmdFreq240:
		f, _ := cmd.Frequency()
		r, err := c.dev.SetIMUFrequency(f)
		return false, c.report(fmt.Sprintf("setfq %d: %%d\n", f.Hz()), int32(r), err)
	case CmdGetFreq:
		f, err := c.dev.IMUFrequency()
		return false, c.report("getfq fq: %d\n", int32(f), err)
	case CmdHelp:
		fmt.Fprintf(c.out, "commands: %s\n", strings.Join(Vocabulary, " "))
		return false, nil
	case CmdQuit:
		fmt.Fprintln(c.out, "quit over.")
		return true, c.dev.Close()
	default:
		return false, fmt.Errorf("unhandled console command %d", int(cmd))
	}
}

func (c *Console) report(format string, value int32, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, format, value)
	return nil
}
