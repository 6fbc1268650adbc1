// Package logging builds the process logger.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel   = "BMSBRIDGE_LOG_LEVEL"
	EnvLogJSON    = "BMSBRIDGE_LOG_JSON"
	EnvLogNoColor = "BMSBRIDGE_LOG_NOCOLOR"

	appName = "bmsbridge"
)

// Config selects level and output format.
type Config struct {
	Level   string
	JSON    bool
	NoColor bool
}

// New builds the root logger writing to out, applies the environment
// overrides and installs it as the zerolog/log global.
func New(cfg Config, out io.Writer) zerolog.Logger {
	return newLogger(cfg, out, os.Getenv)
}

func newLogger(cfg Config, out io.Writer, getenv func(string) string) zerolog.Logger {
	level := zerolog.InfoLevel
	if lvl, ok := parseLevel(cfg.Level); ok {
		level = lvl
	}
	applyEnvOverrides(&cfg, &level, getenv)

	w := out
	if !cfg.JSON {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.NoColor,
		}
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Str("app", appName).Logger()
	log.Logger = logger
	return logger
}

func applyEnvOverrides(cfg *Config, level *zerolog.Level, getenv func(string) string) {
	if lvl, ok := parseLevel(getenv(EnvLogLevel)); ok {
		*level = lvl
	}
	if v, ok := parseBool(getenv(EnvLogJSON)); ok {
		cfg.JSON = v
	}
	if v, ok := parseBool(getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
