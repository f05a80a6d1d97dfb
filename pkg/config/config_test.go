package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.Baud)
	require.Len(t, cfg.Sensors, 2)
	assert.Equal(t, "Foot Error Sensor", cfg.Sensors[0].Name)
	assert.Equal(t, 2, cfg.Sensors[0].Pin)
	assert.Equal(t, 200*time.Millisecond, cfg.Sensors[0].Debounce)
	assert.Equal(t, "Interface Sensor", cfg.Sensors[1].Name)
	assert.Equal(t, 3, cfg.Sensors[1].Pin)
	assert.Equal(t, time.Second, cfg.Sensors[1].Debounce)
	assert.Equal(t, 3*time.Second, cfg.Mock.Period)
	assert.Equal(t, 150*time.Millisecond, cfg.Mock.Hold)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
  baud: 115200

sensors:
  - name: "Foot Error Sensor"
    pin: 5
    debounce: 500ms
  - name: "Interface Sensor"
    pin: 7
    debounce: 1500ms

mock:
  period: 1s
  hold: 50ms
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.Baud)
	require.Len(t, cfg.Sensors, 2)
	assert.Equal(t, 5, cfg.Sensors[0].Pin)
	assert.Equal(t, 500*time.Millisecond, cfg.Sensors[0].Debounce)
	assert.Equal(t, 7, cfg.Sensors[1].Pin)
	assert.Equal(t, 1500*time.Millisecond, cfg.Sensors[1].Debounce)
	assert.Equal(t, time.Second, cfg.Mock.Period)
	assert.Equal(t, 50*time.Millisecond, cfg.Mock.Hold)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)

	// Missing fields fall back to defaults.
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.Baud)
	require.Len(t, cfg.Sensors, 2)
	assert.Equal(t, 200*time.Millisecond, cfg.Sensors[0].Debounce)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB1"
	cfg.Sensors[0].Pin = 9
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB1", loaded.Serial.Port)
	assert.Equal(t, 9, loaded.Sensors[0].Pin)
	assert.Equal(t, cfg.Sensors[1], loaded.Sensors[1])
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"Foot Error Sensor", "Interface Sensor"}, Default().Names())
}
