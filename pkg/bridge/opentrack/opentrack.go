package opentrack

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"net"

	log "github.com/sirupsen/logrus"

	"vitured/pkg/orientation"
	"vitured/pkg/protocol"
)

const (
	DefaultAddr = "127.0.0.1:4242"
	FrameSize   = 52
)

// Frame is the UDP payload of OpenTrack's "UDP over network" input:
// x, y, z, yaw, pitch, roll as little-endian doubles, then a frame counter.
type Frame struct {
	X, Y, Z          float64
	Yaw, Pitch, Roll float64
	Number           uint32
}

func FrameFromEuler(e protocol.Euler, number uint32) Frame {
	return Frame{
		Yaw:    float64(e.Yaw),
		Pitch:  float64(e.Pitch),
		Roll:   float64(e.Roll),
		Number: number,
	}
}

func (f Frame) MarshalBinary() ([]byte, error) {
	buf := make([]byte, FrameSize)
	for i, v := range []float64{f.X, f.Y, f.Z, f.Yaw, f.Pitch, f.Roll} {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	binary.LittleEndian.PutUint32(buf[48:], f.Number)
	return buf, nil
}

func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) != FrameSize {
		return fmt.Errorf("opentrack frame is %d bytes, want %d", len(data), FrameSize)
	}
	vals := make([]float64, 6)
	for i := range vals {
		vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	*f = Frame{
		X: vals[0], Y: vals[1], Z: vals[2],
		Yaw: vals[3], Pitch: vals[4], Roll: vals[5],
		Number: binary.LittleEndian.Uint32(data[48:]),
	}
	return nil
}

// Bridge forwards adjusted IMU samples to an OpenTrack UDP listener.
type Bridge struct {
	conn     net.Conn
	adjuster *orientation.Adjuster
	frame    uint32
	logger   *log.Entry
}

func Dial(addr string, adjuster *orientation.Adjuster) (*Bridge, error) {
	if addr == "" {
		addr = DefaultAddr
	}
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial opentrack %s: %w", addr, err)
	}
	return &Bridge{
		conn:     conn,
		adjuster: adjuster,
		logger:   log.WithFields(log.Fields{"component": "opentrack", "addr": addr}),
	}, nil
}

func (b *Bridge) Close() error {
	return b.conn.Close()
}

// Send writes one sample and advances the frame counter.
func (b *Bridge) Send(sample protocol.IMUSample) error {
	e := sample.Euler
	if b.adjuster != nil {
		e = b.adjuster.Apply(e)
	}
	payload, _ := FrameFromEuler(e, b.frame).MarshalBinary()
	b.frame++
	if _, err := b.conn.Write(payload); err != nil {
		return err
	}
	b.logger.WithFields(log.Fields{"yaw": e.Yaw, "pitch": e.Pitch, "roll": e.Roll}).Trace("sent frame")
	return nil
}

func (b *Bridge) Consume(ctx context.Context, in <-chan protocol.Packet) {
	for {
		select {
		case <-ctx.Done():
			return
		case pkt, ok := <-in:
			if !ok {
				return
			}
			sample, ok := pkt.IMU()
			if !ok {
				continue
			}
			// OpenTrack may not be listening yet; UDP errors are not fatal.
			if err := b.Send(sample); err != nil {
				b.logger.WithError(err).Debug("send failed")
			}
		}
	}
}
