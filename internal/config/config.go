// Package config loads the gateway's YAML configuration file: transport
// selection, MQTT broker settings, controller behaviour, and the list of
// known equipment. It also appends newly-learned equipment back to the
// file, the gateway's only form of persisted state.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dduransseau/enocean2mqtt/internal/apperrors"
)

// TransportConfig selects and configures the serial/TCP link to the radio
// adapter.
type TransportConfig struct {
	// Type is "serial" or "tcp".
	Type string `yaml:"type"`
	// Device is a serial path ("/dev/ttyUSB0") or "host:port" for tcp.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud,omitempty"`
}

// MQTTConfig configures the paho client.
type MQTTConfig struct {
	Broker       string        `yaml:"broker"`
	ClientID     string        `yaml:"client_id"`
	Username     string        `yaml:"username,omitempty"`
	Password     string        `yaml:"password,omitempty"`
	QoS          byte          `yaml:"qos"`
	Retain       bool          `yaml:"retain"`
	CleanSession bool          `yaml:"clean_session"`
	KeepAlive    time.Duration `yaml:"keep_alive"`
	BaseTopic    string        `yaml:"base_topic"`
}

// ControllerConfig configures the controller worker.
type ControllerConfig struct {
	TeachIn     bool   `yaml:"teach_in"`
	EEPPath     string `yaml:"eep_path"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

// EquipmentConfig is one entry in the equipments list: either supplied at
// startup or appended after a UTE teach-in accepts a new device.
type EquipmentConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Address     string `yaml:"address"` // hex, e.g. "0181B744"
	RORG        string `yaml:"rorg"`    // hex, e.g. "A5"
	Func        string `yaml:"func"`    // hex, e.g. "02"
	Type        string `yaml:"type"`    // hex, e.g. "05"
	Channel     string `yaml:"channel,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Config is the complete gateway configuration file.
type Config struct {
	Transport  TransportConfig   `yaml:"transport"`
	MQTT       MQTTConfig        `yaml:"mqtt"`
	Controller ControllerConfig  `yaml:"controller"`
	Equipments []EquipmentConfig `yaml:"equipments"`

	path string // remembers where it was loaded from, for Append
}

// Default returns a Config seeded with sane defaults, to be merged with
// file contents by Load.
func Default() *Config {
	return &Config{
		Transport: TransportConfig{Type: "serial", Device: "/dev/ttyUSB0", Baud: 57600},
		MQTT: MQTTConfig{
			Broker:       "tcp://localhost:1883",
			ClientID:     "enocean2mqtt",
			QoS:          1,
			CleanSession: true,
			KeepAlive:    60 * time.Second,
			BaseTopic:    "enocean",
		},
		Controller: ControllerConfig{
			TeachIn:   true,
			EEPPath:   "EEP.xml",
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// Load reads and parses path, merging it over Default(). Returns
// apperrors.CodeInvalidConfig on any read/parse failure.
func Load(path string) (*Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidConfig, "reading config file "+path)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidConfig, "parsing config file "+path)
	}
	cfg.path = path
	return cfg, nil
}

// AppendEquipment adds eq to the in-memory config and rewrites the backing
// file. A Config loaded without a path (e.g. built in tests) is a no-op
// for the file write but still updates the in-memory list.
func (c *Config) AppendEquipment(eq EquipmentConfig) error {
	c.Equipments = append(c.Equipments, eq)
	if c.path == "" {
		return nil
	}
	out, err := yaml.Marshal(c)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidConfig, "marshaling config for append")
	}
	if err := os.WriteFile(c.path, out, 0o644); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidConfig, "writing config file "+c.path)
	}
	return nil
}
