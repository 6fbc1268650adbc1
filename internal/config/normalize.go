package config

import "strings"

// Normalize applies defaults to unset values.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	b := &cfg.Bridge

	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		b.Name = DefaultName
	}
	if b.PollIntervalMs == 0 {
		b.PollIntervalMs = DefaultPollIntervalMs
	}
	b.Log.Level = strings.ToLower(b.Log.Level)
	if b.Log.Level == "" {
		b.Log.Level = DefaultLogLevel
	}

	// ---- bms ----

	if b.BMS.Type == "" {
		b.BMS.Type = DefaultBMSType
	}
	if b.BMS.Address == 0 {
		b.BMS.Address = DefaultAddress
	}
	if b.BMS.Retries == 0 {
		b.BMS.Retries = DefaultRetries
	}
	if b.BMS.RetryDelayMs == nil {
		v := DefaultRetryDelayMs
		b.BMS.RetryDelayMs = &v
	}

	p := &b.BMS.Port
	p.Device = strings.TrimSpace(p.Device)
	if p.Baud == 0 {
		p.Baud = DefaultBaud
	}
	if p.Driver == "" {
		p.Driver = DefaultDriver
	}
	if p.ReadTimeoutMs == 0 {
		p.ReadTimeoutMs = DefaultReadTimeoutMs
	}
	if p.PacingMs == nil {
		v := DefaultPacingMs
		p.PacingMs = &v
	}
	if p.ReceiveAttempts == 0 {
		p.ReceiveAttempts = DefaultReceiveAttempts
	}
	if p.ReceiveIntervalMs == 0 {
		p.ReceiveIntervalMs = DefaultReceiveIntervalMs
	}

	// ---- inverter ----

	inv := &b.Inverter
	if inv.Type == "" {
		inv.Type = DefaultInverterType
	}
	if inv.Mode == "" {
		inv.Mode = DefaultInverterMode
	}
	if inv.Baud == 0 {
		inv.Baud = DefaultBaud
	}
	if inv.UnitID == 0 {
		inv.UnitID = DefaultUnitID
	}
	if inv.TimeoutMs == 0 {
		inv.TimeoutMs = DefaultTimeoutMs
	}
}
