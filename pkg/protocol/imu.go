package protocol

import "fmt"

const (
	// EulerSize is the minimum IMU packet: roll, pitch, yaw.
	EulerSize = 12
	// QuaternionOffset is where w, x, y, z start in a full packet.
	QuaternionOffset = 20
	// FullIMUSize is the packet length that carries the quaternion.
	FullIMUSize = QuaternionOffset + 16
)

// Euler holds orientation angles in degrees as reported by the glasses.
type Euler struct {
	Roll  float32 `json:"roll"`
	Pitch float32 `json:"pitch"`
	Yaw   float32 `json:"yaw"`
}

// Quaternion mirrors the device layout: float w, x, y, z.
type Quaternion struct {
	W float32 `json:"w"`
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// IMUSample is one decoded IMU callback payload.
type IMUSample struct {
	Euler      Euler       `json:"euler"`
	Quaternion *Quaternion `json:"quaternion,omitempty"`
}

// Values returns the decoded floats in packet order.
func (s IMUSample) Values() []float32 {
	out := []float32{s.Euler.Roll, s.Euler.Pitch, s.Euler.Yaw}
	if s.Quaternion != nil {
		q := s.Quaternion
		out = append(out, q.W, q.X, q.Y, q.Z)
	}
	return out
}

// DecodeIMU decodes an IMU packet. The quaternion is only present when the
// packet is at least FullIMUSize bytes long.
func DecodeIMU(data []byte) (IMUSample, error) {
	r := NewReader(data)

	var vals [3]float32
	for i := range vals {
		v, err := r.Float32At(i * 4)
		if err != nil {
			return IMUSample{}, fmt.Errorf("decode imu euler: %w", err)
		}
		vals[i] = v
	}
	sample := IMUSample{Euler: Euler{Roll: vals[0], Pitch: vals[1], Yaw: vals[2]}}

	if r.Len() < FullIMUSize {
		return sample, nil
	}

	var q [4]float32
	for i := range q {
		v, err := r.Float32At(QuaternionOffset + i*4)
		if err != nil {
			return IMUSample{}, fmt.Errorf("decode imu quaternion: %w", err)
		}
		q[i] = v
	}
	sample.Quaternion = &Quaternion{W: q[0], X: q[1], Y: q[2], Z: q[3]}
	return sample, nil
}

// EncodeIMU is the inverse of DecodeIMU. It produces a FullIMUSize packet
// when the sample carries a quaternion and an EulerSize packet otherwise.
func EncodeIMU(s IMUSample) []byte {
	size := EulerSize
	if s.Quaternion != nil {
		size = FullIMUSize
	}
	buf := make([]byte, size)
	PutFloat32BE(buf[0:4], s.Euler.Roll)
	PutFloat32BE(buf[4:8], s.Euler.Pitch)
	PutFloat32BE(buf[8:12], s.Euler.Yaw)
	if q := s.Quaternion; q != nil {
		PutFloat32BE(buf[20:24], q.W)
		PutFloat32BE(buf[24:28], q.X)
		PutFloat32BE(buf[28:32], q.Y)
		PutFloat32BE(buf[32:36], q.Z)
	}
	return buf
}
