// Package config loads the bridge configuration from YAML or TOML.
package config

import "time"

type Config struct {
	Bridge BridgeConfig `yaml:"bridge" toml:"bridge"`
}

type BridgeConfig struct {
	Name           string         `yaml:"name" toml:"name"`
	PollIntervalMs int            `yaml:"poll_interval_ms" toml:"poll_interval_ms"`
	Log            LogConfig      `yaml:"log" toml:"log"`
	BMS            BMSConfig      `yaml:"bms" toml:"bms"`
	Inverter       InverterConfig `yaml:"inverter" toml:"inverter"`
}

// ---- LOG ----

type LogConfig struct {
	Level   string `yaml:"level" toml:"level"`
	JSON    bool   `yaml:"json" toml:"json"`
	NoColor bool   `yaml:"no_color" toml:"no_color"`
}

// ---- BMS ----

type BMSConfig struct {
	Type         string     `yaml:"type" toml:"type"` // registry key
	Address      uint8      `yaml:"address" toml:"address"`
	Retries      int        `yaml:"retries" toml:"retries"`
	RetryDelayMs *int       `yaml:"retry_delay_ms" toml:"retry_delay_ms"` // 0 disables the delay
	Port         PortConfig `yaml:"port" toml:"port"`
}

type PortConfig struct {
	Device            string `yaml:"device" toml:"device"`
	Baud              int    `yaml:"baud" toml:"baud"`
	Driver            string `yaml:"driver" toml:"driver"` // registry key
	ReadTimeoutMs     int    `yaml:"read_timeout_ms" toml:"read_timeout_ms"`
	PacingMs          *int   `yaml:"pacing_ms" toml:"pacing_ms"` // 0 disables pacing
	ReceiveAttempts   int    `yaml:"receive_attempts" toml:"receive_attempts"`
	ReceiveIntervalMs int    `yaml:"receive_interval_ms" toml:"receive_interval_ms"`
}

// ---- INVERTER ----

type InverterConfig struct {
	Type        string `yaml:"type" toml:"type"` // registry key, "none" logs only
	Mode        string `yaml:"mode" toml:"mode"` // tcp | rtu
	Endpoint    string `yaml:"endpoint" toml:"endpoint"`
	Baud        int    `yaml:"baud" toml:"baud"`
	UnitID      uint8  `yaml:"unit_id" toml:"unit_id"`
	BaseAddress uint16 `yaml:"base_address" toml:"base_address"`
	TimeoutMs   int    `yaml:"timeout_ms" toml:"timeout_ms"`
}

// ---- DEFAULTS ----

const (
	DefaultName              = "bridge"
	DefaultPollIntervalMs    = 5000
	DefaultLogLevel          = "info"
	DefaultBMSType           = "daly"
	DefaultAddress           = 0x40
	DefaultRetries           = 3
	DefaultRetryDelayMs      = 200
	DefaultBaud              = 9600
	DefaultDriver            = "tarm"
	DefaultReadTimeoutMs     = 100
	DefaultPacingMs          = 100
	DefaultReceiveAttempts   = 10
	DefaultReceiveIntervalMs = 500
	DefaultInverterType      = "none"
	DefaultInverterMode      = "tcp"
	DefaultUnitID            = 1
	DefaultTimeoutMs         = 1000
)

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func (b BridgeConfig) PollInterval() time.Duration { return ms(b.PollIntervalMs) }

// RetryDelay is the pause between request retries.
func (b BMSConfig) RetryDelay() time.Duration {
	if b.RetryDelayMs == nil {
		return ms(DefaultRetryDelayMs)
	}
	return ms(*b.RetryDelayMs)
}

func (p PortConfig) ReadTimeout() time.Duration { return ms(p.ReadTimeoutMs) }

func (p PortConfig) ReceiveInterval() time.Duration { return ms(p.ReceiveIntervalMs) }

func (i InverterConfig) Timeout() time.Duration { return ms(i.TimeoutMs) }

// Pacing is the delay after every send.
func (p PortConfig) Pacing() time.Duration {
	if p.PacingMs == nil {
		return ms(DefaultPacingMs)
	}
	return ms(*p.PacingMs)
}
