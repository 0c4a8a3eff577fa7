package config

import (
	"os"
	"strconv"
	"time"

	"github.com/muxable/bgapi/pkg/bgapi"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// SerialConfig selects the device the adapter is attached to.
type SerialConfig struct {
	Port        string `yaml:"port"`
	BaudRate    int    `yaml:"baud_rate"`
	FlowControl bool   `yaml:"flow_control"`
}

type AdapterConfig struct {
	CommandTimeout   time.Duration `yaml:"command_timeout"`
	FrameTimeout     time.Duration `yaml:"frame_timeout"`
	MaxPayloadLength int           `yaml:"max_payload_length"`
	MaxConnections   int           `yaml:"max_connections"`
}

// ScanConfig is in BLE units: interval and window in 625us steps.
type ScanConfig struct {
	Mode     string `yaml:"mode"` // limited, generic or observation
	Interval uint16 `yaml:"interval"`
	Window   uint16 `yaml:"window"`
	Active   bool   `yaml:"active"`
}

// ConnectionConfig is in BLE units: intervals in 1.25ms steps, supervision
// timeout in 10ms steps.
type ConnectionConfig struct {
	IntervalMin uint16 `yaml:"interval_min"`
	IntervalMax uint16 `yaml:"interval_max"`
	Timeout     uint16 `yaml:"timeout"`
	Latency     uint16 `yaml:"latency"`
}

type LoggerConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Config struct {
	Serial     SerialConfig     `yaml:"serial"`
	Adapter    AdapterConfig    `yaml:"adapter"`
	Scan       ScanConfig       `yaml:"scan"`
	Connection ConnectionConfig `yaml:"connection"`
	Logger     LoggerConfig     `yaml:"logger"`
}

func Defaults() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
		},
		Adapter: AdapterConfig{
			CommandTimeout:   bgapi.DefaultCommandTimeout,
			FrameTimeout:     bgapi.DefaultFrameTimeout,
			MaxPayloadLength: bgapi.DefaultMaxPayloadLength,
			MaxConnections:   bgapi.DefaultMaxConnections,
		},
		Scan: ScanConfig{
			Mode:     "generic",
			Interval: 0x4B,
			Window:   0x32,
			Active:   true,
		},
		Connection: ConnectionConfig{
			IntervalMin: 60,
			IntervalMax: 76,
			Timeout:     100,
		},
		Logger: LoggerConfig{Level: "info"},
	}
}

// Load reads path over the defaults, applies BGAPI_* environment overrides
// and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, errors.Wrap(err, "read config")
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}
	ApplyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides copies the BGAPI_* variables that are set and parse into
// cfg.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BGAPI_SERIAL_PORT"); v != "" {
		cfg.Serial.Port = v
	}
	if v := os.Getenv("BGAPI_SERIAL_BAUD_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Serial.BaudRate = n
		}
	}
	if v := os.Getenv("BGAPI_SERIAL_FLOW_CONTROL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Serial.FlowControl = b
		}
	}
	if v := os.Getenv("BGAPI_COMMAND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Adapter.CommandTimeout = d
		}
	}
	if v := os.Getenv("BGAPI_FRAME_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Adapter.FrameTimeout = d
		}
	}
	if v := os.Getenv("BGAPI_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("BGAPI_LOGGER_DEVELOPMENT"); v == "true" {
		cfg.Logger.Development = true
	}
}

var discoverModes = map[string]bgapi.DiscoverMode{
	"limited":     bgapi.DiscoverLimited,
	"generic":     bgapi.DiscoverGeneric,
	"observation": bgapi.DiscoverObservation,
}

func (c *Config) DiscoverMode() bgapi.DiscoverMode {
	return discoverModes[c.Scan.Mode]
}

func (c *Config) ConnectionParameters() bgapi.ConnectionParameters {
	return bgapi.ConnectionParameters{
		IntervalMin: c.Connection.IntervalMin,
		IntervalMax: c.Connection.IntervalMax,
		Timeout:     c.Connection.Timeout,
		Latency:     c.Connection.Latency,
	}
}

// AdapterOptions turns the adapter section into bgapi.Open options. A nil log
// keeps the global logger.
func (c *Config) AdapterOptions(log *zap.Logger) []bgapi.Option {
	if log == nil {
		log = zap.L()
	}
	return []bgapi.Option{
		bgapi.WithLogger(log),
		bgapi.WithCommandTimeout(c.Adapter.CommandTimeout),
		bgapi.WithFrameTimeout(c.Adapter.FrameTimeout),
		bgapi.WithMaxPayloadLength(c.Adapter.MaxPayloadLength),
		bgapi.WithMaxConnections(uint8(c.Adapter.MaxConnections)),
	}
}

// NewLogger builds the zap logger described by the logger section.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Logger.Level)
	if err != nil {
		return nil, errors.Wrap(err, "logger level")
	}
	zc := zap.NewProductionConfig()
	if c.Logger.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
