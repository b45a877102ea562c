package protocol

import "time"

type Kind uint8

const (
	KindIMU Kind = iota + 1
	KindMCU
)

func (k Kind) String() string {
	switch k {
	case KindIMU:
		return "imu"
	case KindMCU:
		return "mcu"
	default:
		return "unknown"
	}
}

// Packet is the normalized record flowing through the pipeline.
type Packet struct {
	Kind      Kind
	ID        uint16
	Timestamp time.Time
	DeviceTS  uint32
	Payload   []byte
	Data      any
}

// IMU returns the decoded sample carried by an IMU packet.
func (p Packet) IMU() (IMUSample, bool) {
	s, ok := p.Data.(IMUSample)
	return s, ok
}

// Publisher accepts packets for fan-out.
type Publisher interface {
	Publish(Packet)
}
