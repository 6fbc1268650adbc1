package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Validate checks configuration correctness.
// It performs declarative validation only and never mutates cfg.
// Zero values are accepted where Normalize supplies a default.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: empty configuration")
	}
	b := cfg.Bridge

	if b.PollIntervalMs < 0 {
		return fmt.Errorf("config: poll_interval_ms must be >= 0")
	}
	if b.Log.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(b.Log.Level)); err != nil {
			return fmt.Errorf("config: log.level %q: %w", b.Log.Level, err)
		}
	}

	// ---- bms ----

	if strings.TrimSpace(b.BMS.Port.Device) == "" {
		return fmt.Errorf("config: bms.port.device required")
	}
	if b.BMS.Retries < 0 || (b.BMS.RetryDelayMs != nil && *b.BMS.RetryDelayMs < 0) {
		return fmt.Errorf("config: bms retries and retry_delay_ms must be >= 0")
	}
	p := b.BMS.Port
	if p.Baud < 0 {
		return fmt.Errorf("config: bms.port.baud must be >= 0")
	}
	if p.ReadTimeoutMs < 0 || p.ReceiveAttempts < 0 || p.ReceiveIntervalMs < 0 {
		return fmt.Errorf("config: bms.port timing values must be >= 0")
	}
	if p.PacingMs != nil && *p.PacingMs < 0 {
		return fmt.Errorf("config: bms.port.pacing_ms must be >= 0")
	}

	// ---- inverter ----

	inv := b.Inverter
	if inv.Type == "" || inv.Type == "none" {
		return nil
	}
	switch inv.Mode {
	case "", "tcp", "rtu":
	default:
		return fmt.Errorf("config: inverter.mode %q must be tcp or rtu", inv.Mode)
	}
	if strings.TrimSpace(inv.Endpoint) == "" {
		return fmt.Errorf("config: inverter.endpoint required for type %q", inv.Type)
	}
	if inv.Mode == "rtu" && inv.Endpoint == p.Device {
		return fmt.Errorf("config: inverter and bms cannot share serial device %s", p.Device)
	}
	if inv.Baud < 0 || inv.TimeoutMs < 0 {
		return fmt.Errorf("config: inverter baud and timeout_ms must be >= 0")
	}
	return nil
}
