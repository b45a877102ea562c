package foxglove

import (
	"encoding/hex"
	"fmt"
	"time"

	"vitured/pkg/protocol"
)

// IMURecord is the payload of the IMU channel.
type IMURecord struct {
	TS         string               `json:"ts"`
	DeviceTS   uint32               `json:"device_ts"`
	Euler      protocol.Euler       `json:"euler"`
	Quaternion *protocol.Quaternion `json:"quaternion,omitempty"`
}

// Stamp is a ROS-style time.
type Stamp struct {
	Sec  uint32 `json:"sec"`
	Nsec uint32 `json:"nsec"`
}

func stampOf(ts time.Time) Stamp {
	return Stamp{Sec: uint32(ts.Unix()), Nsec: uint32(ts.Nanosecond())}
}

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Rotation is a quaternion in x, y, z, w order as Foxglove expects.
type Rotation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

func rotationOf(q protocol.Quaternion) Rotation {
	return Rotation{X: float64(q.X), Y: float64(q.Y), Z: float64(q.Z), W: float64(q.W)}
}

type FrameTransform struct {
	Timestamp     Stamp    `json:"timestamp"`
	ParentFrameID string   `json:"parent_frame_id"`
	ChildFrameID  string   `json:"child_frame_id"`
	Translation   Vec3     `json:"translation"`
	Rotation      Rotation `json:"rotation"`
}

type FrameTransforms struct {
	Transforms []FrameTransform `json:"transforms"`
}

// GlassesMarker draws the glasses as a cube in the 3D panel.
type GlassesMarker struct {
	Header struct {
		FrameID string `json:"frame_id"`
		Stamp   Stamp  `json:"stamp"`
	} `json:"header"`
	NS     string `json:"ns"`
	ID     int32  `json:"id"`
	Type   int32  `json:"type"`
	Action int32  `json:"action"`
	Pose   struct {
		Position    Vec3     `json:"position"`
		Orientation Rotation `json:"orientation"`
	} `json:"pose"`
	Scale Vec3 `json:"scale"`
	Color struct {
		R float64 `json:"r"`
		G float64 `json:"g"`
		B float64 `json:"b"`
		A float64 `json:"a"`
	} `json:"color"`
}

// LogRecord is a foxglove.Log message.
type LogRecord struct {
	Timestamp Stamp  `json:"timestamp"`
	Level     uint8  `json:"level"`
	Message   string `json:"message"`
	Name      string `json:"name"`
	File      string `json:"file"`
	Line      uint32 `json:"line"`
}

const (
	markerCube   = 1
	markerAdd    = 0
	logLevelInfo = 2
)

func imuRecord(pkt protocol.Packet, sample protocol.IMUSample, ts time.Time) IMURecord {
	return IMURecord{
		TS:         ts.UTC().Format(time.RFC3339Nano),
		DeviceTS:   pkt.DeviceTS,
		Euler:      sample.Euler,
		Quaternion: sample.Quaternion,
	}
}

func (c Config) transform(q protocol.Quaternion, ts time.Time) FrameTransforms {
	return FrameTransforms{Transforms: []FrameTransform{{
		Timestamp:     stampOf(ts),
		ParentFrameID: c.ParentFrameID,
		ChildFrameID:  c.FrameID,
		Rotation:      rotationOf(q),
	}}}
}

func (c Config) marker(q protocol.Quaternion, ts time.Time) GlassesMarker {
	var m GlassesMarker
	m.Header.FrameID = c.ParentFrameID
	m.Header.Stamp = stampOf(ts)
	m.NS = "vitured.glasses"
	m.ID = 1
	m.Type = markerCube
	m.Action = markerAdd
	m.Pose.Orientation = rotationOf(q)
	m.Scale = Vec3{X: 0.15, Y: 0.05, Z: 0.05}
	m.Color.R, m.Color.G, m.Color.B, m.Color.A = 0.2, 0.6, 1, 1
	return m
}

func (c Config) mcuLog(pkt protocol.Packet, ts time.Time) LogRecord {
	return LogRecord{
		Timestamp: stampOf(ts),
		Level:     logLevelInfo,
		Message: fmt.Sprintf("mcu %s len %d ts %d payload %s",
			protocol.FormatID(pkt.ID), len(pkt.Payload), pkt.DeviceTS, hex.EncodeToString(pkt.Payload)),
		Name: c.LogName,
	}
}
