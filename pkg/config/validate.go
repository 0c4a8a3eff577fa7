package config

import (
	"fmt"
	"strings"

	"github.com/muxable/bgapi/pkg/bgapi"
	"go.uber.org/zap/zapcore"
)

// ValidationError accumulates every problem found in a config.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate returns a *ValidationError listing all problems, or nil.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateSerial(cfg, ve)
	validateAdapter(cfg, ve)
	validateScan(cfg, ve)
	validateConnection(cfg, ve)
	if _, err := zapcore.ParseLevel(cfg.Logger.Level); err != nil {
		ve.Add("logger.level %q is not a zap level", cfg.Logger.Level)
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateSerial(cfg *Config, ve *ValidationError) {
	if cfg.Serial.Port == "" {
		ve.Add("serial.port must not be empty")
	}
	if cfg.Serial.BaudRate <= 0 {
		ve.Add("serial.baud_rate must be > 0")
	}
}

func validateAdapter(cfg *Config, ve *ValidationError) {
	a := cfg.Adapter
	if a.CommandTimeout <= 0 {
		ve.Add("adapter.command_timeout must be > 0")
	}
	if a.FrameTimeout < 0 {
		ve.Add("adapter.frame_timeout must be >= 0")
	}
	if a.MaxPayloadLength <= 0 || a.MaxPayloadLength > bgapi.MaxLength {
		ve.Add("adapter.max_payload_length must be in 1..%d", bgapi.MaxLength)
	}
	if a.MaxConnections <= 0 || a.MaxConnections > 255 {
		ve.Add("adapter.max_connections must be in 1..255")
	}
}

func validateScan(cfg *Config, ve *ValidationError) {
	s := cfg.Scan
	if _, ok := discoverModes[s.Mode]; !ok {
		ve.Add("scan.mode %q must be limited, generic or observation", s.Mode)
	}
	if s.Interval < 0x4 || s.Interval > 0x4000 {
		ve.Add("scan.interval must be in 0x0004..0x4000")
	}
	if s.Window < 0x4 || s.Window > s.Interval {
		ve.Add("scan.window must be in 0x0004..scan.interval")
	}
}

func validateConnection(cfg *Config, ve *ValidationError) {
	c := cfg.Connection
	if c.IntervalMin < 6 || c.IntervalMax > 3200 || c.IntervalMin > c.IntervalMax {
		ve.Add("connection.interval_min..interval_max must be an ordered range within 6..3200")
	}
	if c.Timeout < 10 || c.Timeout > 3200 {
		ve.Add("connection.timeout must be in 10..3200")
	}
	// The supervision timeout must outlast the slave latency.
	if uint32(c.Timeout)*4 <= (1+uint32(c.Latency))*uint32(c.IntervalMax) {
		ve.Add("connection.timeout too short for interval_max and latency")
	}
}
