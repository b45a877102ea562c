package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitured/pkg/config"
	"vitured/pkg/device"
)

func TestLoadOrDefaultMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitured.toml")

	cfg, exists, err := config.LoadOrDefault(path)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, path, cfg.ConfigPath())
	assert.Equal(t, "127.0.0.1:4242", cfg.OpenTrack.Addr)
	assert.Equal(t, "127.0.0.1:4244", cfg.Control.Addr)
	assert.Equal(t, device.Frequency60, cfg.Frequency())

	_, err = config.Load(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadOrDefaultFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitured.toml")
	writeFile(t, path, `
[device]
frequency_hz = 120
mode_3d = true

[orientation]
scale_yaw = 1.5
invert_pitch = true
`)

	cfg, exists, err := config.LoadOrDefault(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, device.Frequency120, cfg.Frequency())
	assert.True(t, cfg.Device.Mode3D)
	assert.Equal(t, "500ms", cfg.Device.PollInterval)
	assert.Equal(t, "text", cfg.Log.Format)

	s := cfg.OrientationSettings()
	assert.Equal(t, float32(1), s.ScaleRoll)
	assert.Equal(t, float32(1.5), s.ScaleYaw)
	assert.True(t, s.InvertPitch)
	assert.False(t, s.InvertYaw)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitured.yaml")
	writeFile(t, path, `
log:
  level: DEBUG
  format: json
opentrack:
  enabled: false
  addr: 10.0.0.2:4242
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.OpenTrack.Enabled)
	assert.Equal(t, "10.0.0.2:4242", cfg.OpenTrack.Addr)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"frequency": "[device]\nfrequency_hz = 100\n",
		"interval":  "[device]\npoll_interval = \"soon\"\n",
		"addr":      "[control]\naddr = \"4244\"\n",
		"format":    "[log]\nformat = \"xml\"\n",
		"syntax":    "[device\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "vitured.toml")
			writeFile(t, path, content)

			_, exists, err := config.LoadOrDefault(path)
			assert.True(t, exists)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"nested/vitured.toml", "vitured.yml"} {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Device.FrequencyHz = 240
			cfg.Foxglove.Enabled = true
			cfg.Orientation.InvertRoll = true

			path := filepath.Join(dir, name)
			require.NoError(t, cfg.Save(path))

			loaded, err := config.Load(path)
			require.NoError(t, err)
			assert.Equal(t, device.Frequency240, loaded.Frequency())
			assert.True(t, loaded.Foxglove.Enabled)
			assert.True(t, loaded.Orientation.InvertRoll)
		})
	}
}

func TestMarshalUnknownFormat(t *testing.T) {
	cfg := config.Default()
	_, err := cfg.Marshal("ini")
	assert.Error(t, err)

	out, err := cfg.Marshal("toml")
	require.NoError(t, err)
	assert.Contains(t, string(out), "[opentrack]")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
