package logger

import (
	"context"
	"fmt"
	"io"

	"vitured/pkg/protocol"
)

// TextWriter prints decoded packets as plain lines, the way the SDK demo
// logs them to stderr.
type TextWriter struct {
	w io.Writer
}

func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

func (t *TextWriter) Consume(ctx context.Context, in <-chan protocol.Packet) {
	for {
		select {
		case <-ctx.Done():
			return
		case pkt, ok := <-in:
			if !ok {
				return
			}
			t.Write(pkt)
		}
	}
}

func (t *TextWriter) Write(pkt protocol.Packet) {
	switch pkt.Kind {
	case protocol.KindIMU:
		s, ok := pkt.IMU()
		if !ok {
			return
		}
		e := s.Euler
		fmt.Fprintf(t.w, "imu data roll %f pitch %f yaw %f\n", e.Roll, e.Pitch, e.Yaw)
		if q := s.Quaternion; q != nil {
			fmt.Fprintf(t.w, "imu data w %f x %f y %f z %f\n", q.W, q.X, q.Y, q.Z)
		}
	case protocol.KindMCU:
		fmt.Fprintf(t.w, "mcu id %s len %d ts %d\n", protocol.FormatID(pkt.ID), len(pkt.Payload), pkt.DeviceTS)
	}
}
