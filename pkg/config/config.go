package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial  SerialConfig   `yaml:"serial"`
	Sensors []SensorConfig `yaml:"sensors"`
	Mock    MockConfig     `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// SensorConfig describes one logical sensor channel: its display name,
// the physical pin it starts on, and the temporal debounce window
// applied to its trigger count.
type SensorConfig struct {
	Name     string        `yaml:"name"`
	Pin      int           `yaml:"pin"`
	Debounce time.Duration `yaml:"debounce"`
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	Period time.Duration `yaml:"period"` // time between simulated crossings
	Hold   time.Duration `yaml:"hold"`   // how long a simulated beam stays broken
}

// Default returns a default configuration matching the reference rig:
// two beams on pins 2 and 3 of an Arduino Nano at 9600 baud.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port: "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			Baud: 9600,
		},
		Sensors: []SensorConfig{
			{Name: "Foot Error Sensor", Pin: 2, Debounce: 200 * time.Millisecond},
			{Name: "Interface Sensor", Pin: 3, Debounce: 1000 * time.Millisecond},
		},
		Mock: MockConfig{
			Period: 3 * time.Second,
			Hold:   150 * time.Millisecond,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist
// or fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Names returns the sensor display names in channel order.
func (c *Config) Names() []string {
	names := make([]string, len(c.Sensors))
	for i, s := range c.Sensors {
		names[i] = s.Name
	}
	return names
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}

	if len(c.Sensors) == 0 {
		c.Sensors = def.Sensors
	}
	for i := range c.Sensors {
		if i >= len(def.Sensors) {
			break
		}
		if c.Sensors[i].Name == "" {
			c.Sensors[i].Name = def.Sensors[i].Name
		}
		if c.Sensors[i].Pin == 0 {
			c.Sensors[i].Pin = def.Sensors[i].Pin
		}
		if c.Sensors[i].Debounce == 0 {
			c.Sensors[i].Debounce = def.Sensors[i].Debounce
		}
	}

	if c.Mock.Period == 0 {
		c.Mock.Period = def.Mock.Period
	}
	if c.Mock.Hold == 0 {
		c.Mock.Hold = def.Mock.Hold
	}
}
