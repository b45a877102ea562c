package foxglove

const IMUSchema = `{
  "type": "object",
  "properties": {
    "ts": { "type": "string" },
    "device_ts": { "type": "integer" },
    "euler": {
      "type": "object",
      "properties": {
        "roll": { "type": "number" },
        "pitch": { "type": "number" },
        "yaw": { "type": "number" }
      }
    },
    "quaternion": {
      "type": "object",
      "properties": {
        "w": { "type": "number" },
        "x": { "type": "number" },
        "y": { "type": "number" },
        "z": { "type": "number" }
      }
    }
  },
  "required": ["euler"]
}`

type Config struct {
	WSAddr         string
	Name           string
	IMUTopic       string
	TransformTopic string
	MarkerTopic    string
	LogTopic       string
	LogName        string
	ParentFrameID  string
	FrameID        string
	SendBuf        int
}

func DefaultConfig() Config {
	return Config{
		WSAddr:         "127.0.0.1:8765",
		Name:           "vitured",
		IMUTopic:       "/vitured/imu",
		TransformTopic: "/tf",
		MarkerTopic:    "/visualization_marker",
		LogTopic:       "/vitured/mcu",
		LogName:        "vitured.mcu",
		ParentFrameID:  "world",
		FrameID:        "glasses",
		SendBuf:        256,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.WSAddr == "" {
		c.WSAddr = d.WSAddr
	}
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.IMUTopic == "" {
		c.IMUTopic = d.IMUTopic
	}
	if c.TransformTopic == "" {
		c.TransformTopic = d.TransformTopic
	}
	if c.MarkerTopic == "" {
		c.MarkerTopic = d.MarkerTopic
	}
	if c.LogTopic == "" {
		c.LogTopic = d.LogTopic
	}
	if c.LogName == "" {
		c.LogName = d.LogName
	}
	if c.ParentFrameID == "" {
		c.ParentFrameID = d.ParentFrameID
	}
	if c.FrameID == "" {
		c.FrameID = d.FrameID
	}
	if c.SendBuf <= 0 {
		c.SendBuf = d.SendBuf
	}
	return c
}
