package config

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"vitured/pkg/device"
	"vitured/pkg/orientation"
)

const DefaultConfigPath = "vitured.toml"

type VituredConfig struct {
	Log         LogConfig         `toml:"log" yaml:"log"`
	Device      DeviceConfig      `toml:"device" yaml:"device"`
	OpenTrack   OpenTrackConfig   `toml:"opentrack" yaml:"opentrack"`
	Control     ControlConfig     `toml:"control" yaml:"control"`
	Foxglove    FoxgloveConfig    `toml:"foxglove" yaml:"foxglove"`
	Orientation OrientationConfig `toml:"orientation" yaml:"orientation"`
	configPath  string            `toml:"-" yaml:"-"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
	// JSONL is an optional packet log path.
	JSONL string `toml:"jsonl,omitempty" yaml:"jsonl,omitempty"`
}

type DeviceConfig struct {
	Simulate     bool   `toml:"simulate" yaml:"simulate"`
	FrequencyHz  int    `toml:"frequency_hz" yaml:"frequency_hz"`
	Mode3D       bool   `toml:"mode_3d" yaml:"mode_3d"`
	Hotplug      bool   `toml:"hotplug" yaml:"hotplug"`
	PollInterval string `toml:"poll_interval" yaml:"poll_interval"`
}

type OpenTrackConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Addr    string `toml:"addr" yaml:"addr"`
}

type ControlConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Addr    string `toml:"addr" yaml:"addr"`
}

type FoxgloveConfig struct {
	Enabled     bool   `toml:"enabled" yaml:"enabled"`
	WSAddr      string `toml:"ws_addr" yaml:"ws_addr"`
	ParentFrame string `toml:"parent_frame" yaml:"parent_frame"`
	FrameID     string `toml:"frame_id" yaml:"frame_id"`
}

// OrientationConfig seeds the OpenTrack adjuster. A zero scale means 1.
type OrientationConfig struct {
	ScaleRoll   float32 `toml:"scale_roll" yaml:"scale_roll"`
	ScalePitch  float32 `toml:"scale_pitch" yaml:"scale_pitch"`
	ScaleYaw    float32 `toml:"scale_yaw" yaml:"scale_yaw"`
	InvertRoll  bool    `toml:"invert_roll" yaml:"invert_roll"`
	InvertPitch bool    `toml:"invert_pitch" yaml:"invert_pitch"`
	InvertYaw   bool    `toml:"invert_yaw" yaml:"invert_yaw"`
}

func Default() VituredConfig {
	return VituredConfig{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Device: DeviceConfig{
			FrequencyHz:  60,
			Hotplug:      true,
			PollInterval: "500ms",
		},
		OpenTrack: OpenTrackConfig{
			Enabled: true,
			Addr:    "127.0.0.1:4242",
		},
		Control: ControlConfig{
			Enabled: true,
			Addr:    "127.0.0.1:4244",
		},
		Foxglove: FoxgloveConfig{
			WSAddr:      "127.0.0.1:8765",
			ParentFrame: "world",
			FrameID:     "glasses",
		},
		Orientation: OrientationConfig{
			ScaleRoll:  1,
			ScalePitch: 1,
			ScaleYaw:   1,
		},
	}
}

func Load(path string) (VituredConfig, error) {
	cfg, exists, err := LoadOrDefault(path)
	if err != nil {
		return VituredConfig{}, err
	}
	if !exists {
		return VituredConfig{}, os.ErrNotExist
	}
	return cfg, nil
}

// LoadOrDefault reads path (TOML, or YAML for .yaml/.yml). A missing file
// yields the defaults and exists=false.
func LoadOrDefault(path string) (VituredConfig, bool, error) {
	cfg := Default()
	if path == "" {
		path = DefaultConfigPath
	}
	cfg.configPath = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.normalize()
			return cfg, false, nil
		}
		return VituredConfig{}, false, fmt.Errorf("read config: %w", err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = toml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return VituredConfig{}, true, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.configPath = path
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return VituredConfig{}, true, err
	}
	return cfg, true, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Marshal renders the config as TOML, or YAML when format is "yaml".
func (cfg *VituredConfig) Marshal(format string) ([]byte, error) {
	switch format {
	case "", "toml":
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		enc.SetIndentTables(true)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("marshal config: %w", err)
		}
		return buf.Bytes(), nil
	case "yaml", "yml":
		return yaml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}
}

func (cfg *VituredConfig) Save(path string) error {
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	format := "toml"
	if isYAML(path) {
		format = "yaml"
	}
	data, err := cfg.Marshal(format)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	cfg.configPath = path
	return nil
}

func (cfg *VituredConfig) ConfigPath() string {
	return cfg.configPath
}

func (cfg *VituredConfig) Validate() error {
	if _, err := device.FrequencyFromHz(cfg.Device.FrequencyHz); err != nil {
		return fmt.Errorf("device.frequency_hz: %w", err)
	}
	if _, err := cfg.PollInterval(); err != nil {
		return fmt.Errorf("device.poll_interval: %w", err)
	}
	for name, addr := range map[string]string{
		"opentrack.addr":   cfg.OpenTrack.Addr,
		"control.addr":     cfg.Control.Addr,
		"foxglove.ws_addr": cfg.Foxglove.WSAddr,
	} {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}
	return nil
}

func (cfg *VituredConfig) normalize() {
	def := Default()

	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	if cfg.Device.FrequencyHz == 0 {
		cfg.Device.FrequencyHz = def.Device.FrequencyHz
	}
	if cfg.Device.PollInterval == "" {
		cfg.Device.PollInterval = def.Device.PollInterval
	}
	if cfg.OpenTrack.Addr == "" {
		cfg.OpenTrack.Addr = def.OpenTrack.Addr
	}
	if cfg.Control.Addr == "" {
		cfg.Control.Addr = def.Control.Addr
	}
	if cfg.Foxglove.WSAddr == "" {
		cfg.Foxglove.WSAddr = def.Foxglove.WSAddr
	}
	if cfg.Foxglove.ParentFrame == "" {
		cfg.Foxglove.ParentFrame = def.Foxglove.ParentFrame
	}
	if cfg.Foxglove.FrameID == "" {
		cfg.Foxglove.FrameID = def.Foxglove.FrameID
	}
	if cfg.Orientation.ScaleRoll == 0 {
		cfg.Orientation.ScaleRoll = 1
	}
	if cfg.Orientation.ScalePitch == 0 {
		cfg.Orientation.ScalePitch = 1
	}
	if cfg.Orientation.ScaleYaw == 0 {
		cfg.Orientation.ScaleYaw = 1
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
}

func (cfg *VituredConfig) Frequency() device.Frequency {
	f, err := device.FrequencyFromHz(cfg.Device.FrequencyHz)
	if err != nil {
		return device.Frequency60
	}
	return f
}

func (cfg *VituredConfig) PollInterval() (time.Duration, error) {
	return time.ParseDuration(cfg.Device.PollInterval)
}

func (cfg *VituredConfig) OrientationSettings() orientation.Settings {
	o := cfg.Orientation
	return orientation.Settings{
		ScaleRoll:   o.ScaleRoll,
		ScalePitch:  o.ScalePitch,
		ScaleYaw:    o.ScaleYaw,
		InvertRoll:  o.InvertRoll,
		InvertPitch: o.InvertPitch,
		InvertYaw:   o.InvertYaw,
	}
}
