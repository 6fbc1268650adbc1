package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
bridge:
  name: garage
  poll_interval_ms: 2000
  log: { level: DEBUG, json: true }
  bms:
    type: daly
    address: 0x40
    retry_delay_ms: 0
    port: { device: /dev/ttyUSB0, baud: 9600, driver: bugst, pacing_ms: 0,
            receive_attempts: 5, receive_interval_ms: 200 }
  inverter:
    type: modbus
    mode: tcp
    endpoint: 192.168.1.20:502
    unit_id: 3
    base_address: 100
    timeout_ms: 1500
`

const sampleTOML = `
[bridge]
name = "garage"
poll_interval_ms = 2000

[bridge.log]
level = "debug"

[bridge.bms]
type = "daly"
address = 0x80

[bridge.bms.port]
device = "/dev/ttyS1"
driver = "tarm"

[bridge.inverter]
type = "modbus"
mode = "rtu"
endpoint = "/dev/ttyUSB1"
baud = 19200
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// helper to build a valid config quickly
func minimal() *Config {
	return &Config{Bridge: BridgeConfig{BMS: BMSConfig{Port: PortConfig{Device: "/dev/ttyUSB0"}}}}
}

// ---- load ----

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "bridge.yaml", sampleYAML))
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
	Normalize(cfg)

	b := cfg.Bridge
	assert.Equal(t, "garage", b.Name)
	assert.Equal(t, 2*time.Second, b.PollInterval())
	assert.Equal(t, "debug", b.Log.Level)
	assert.True(t, b.Log.JSON)
	assert.Equal(t, uint8(0x40), b.BMS.Address)
	assert.Equal(t, time.Duration(0), b.BMS.RetryDelay(), "explicit 0 disables the retry delay")
	assert.Equal(t, "bugst", b.BMS.Port.Driver)
	assert.Equal(t, time.Duration(0), b.BMS.Port.Pacing())
	assert.Equal(t, 5, b.BMS.Port.ReceiveAttempts)
	assert.Equal(t, 200*time.Millisecond, b.BMS.Port.ReceiveInterval())
	assert.Equal(t, "192.168.1.20:502", b.Inverter.Endpoint)
	assert.Equal(t, uint8(3), b.Inverter.UnitID)
	assert.Equal(t, uint16(100), b.Inverter.BaseAddress)
	assert.Equal(t, 1500*time.Millisecond, b.Inverter.Timeout())
}

func TestLoadTOML(t *testing.T) {
	cfg, err := Load(writeFile(t, "bridge.toml", sampleTOML))
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
	Normalize(cfg)

	b := cfg.Bridge
	assert.Equal(t, uint8(0x80), b.BMS.Address)
	assert.Equal(t, "/dev/ttyS1", b.BMS.Port.Device)
	assert.Equal(t, DefaultBaud, b.BMS.Port.Baud)
	assert.Equal(t, 100*time.Millisecond, b.BMS.Port.Pacing())
	assert.Equal(t, "rtu", b.Inverter.Mode)
	assert.Equal(t, 19200, b.Inverter.Baud)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeFile(t, "bad.yaml", "bridge:\n  pol_interval_ms: 10\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.toml", "[bridge]\npol_interval_ms = 10\n"))
	assert.ErrorContains(t, err, "pol_interval_ms")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	_, err = Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

// ---- normalize ----

func TestNormalizeDefaults(t *testing.T) {
	cfg := minimal()
	require.NoError(t, Validate(cfg))
	Normalize(cfg)

	b := cfg.Bridge
	assert.Equal(t, DefaultName, b.Name)
	assert.Equal(t, 5*time.Second, b.PollInterval())
	assert.Equal(t, "info", b.Log.Level)
	assert.Equal(t, "daly", b.BMS.Type)
	assert.Equal(t, uint8(0x40), b.BMS.Address)
	assert.Equal(t, 3, b.BMS.Retries)
	assert.Equal(t, 200*time.Millisecond, b.BMS.RetryDelay())
	assert.Equal(t, 9600, b.BMS.Port.Baud)
	assert.Equal(t, "tarm", b.BMS.Port.Driver)
	assert.Equal(t, 100*time.Millisecond, b.BMS.Port.ReadTimeout())
	assert.Equal(t, 100*time.Millisecond, b.BMS.Port.Pacing())
	assert.Equal(t, 10, b.BMS.Port.ReceiveAttempts)
	assert.Equal(t, 500*time.Millisecond, b.BMS.Port.ReceiveInterval())
	assert.Equal(t, "none", b.Inverter.Type)
	assert.Equal(t, "tcp", b.Inverter.Mode)
	assert.Equal(t, uint8(1), b.Inverter.UnitID)
	assert.Equal(t, time.Second, b.Inverter.Timeout())

	Normalize(nil)
}

// ---- validate ----

func TestValidate(t *testing.T) {
	neg := -1
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no device", func(c *Config) { c.Bridge.BMS.Port.Device = " " }},
		{"negative poll", func(c *Config) { c.Bridge.PollIntervalMs = -1 }},
		{"bad level", func(c *Config) { c.Bridge.Log.Level = "loud" }},
		{"negative baud", func(c *Config) { c.Bridge.BMS.Port.Baud = -9600 }},
		{"negative pacing", func(c *Config) { c.Bridge.BMS.Port.PacingMs = &neg }},
		{"negative attempts", func(c *Config) { c.Bridge.BMS.Port.ReceiveAttempts = -1 }},
		{"negative retries", func(c *Config) { c.Bridge.BMS.Retries = -1 }},
		{"negative retry delay", func(c *Config) { c.Bridge.BMS.RetryDelayMs = &neg }},
		{"bad mode", func(c *Config) {
			c.Bridge.Inverter = InverterConfig{Type: "modbus", Mode: "udp", Endpoint: "x:502"}
		}},
		{"no endpoint", func(c *Config) { c.Bridge.Inverter = InverterConfig{Type: "modbus"} }},
		{"shared device", func(c *Config) {
			c.Bridge.Inverter = InverterConfig{Type: "modbus", Mode: "rtu", Endpoint: "/dev/ttyUSB0"}
		}},
	}

	require.NoError(t, Validate(minimal()))
	assert.Error(t, Validate(nil))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := minimal()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestValidateDoesNotMutate(t *testing.T) {
	cfg := minimal()
	before := *cfg
	require.NoError(t, Validate(cfg))
	assert.Equal(t, before, *cfg)
}
