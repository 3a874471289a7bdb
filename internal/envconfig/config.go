// Package envconfig reads noether settings from NOETHER_* environment
// variables.
package envconfig

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LogLevel returns the log level.
// Configurable via NOETHER_DEBUG: 0/false is INFO (default), 1/true is DEBUG,
// other integers n map to slog.Level(-4n).
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("NOETHER_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// DataDir returns the directory holding the CIFAR-10 batch files.
// Configurable via NOETHER_DATA_DIR. Default: ./cifar-10-batches-bin
func DataDir() string {
	if s := Var("NOETHER_DATA_DIR"); s != "" {
		return s
	}
	return filepath.Join(".", "cifar-10-batches-bin")
}

// Seed returns the weight initialization seed. Configurable via NOETHER_SEED.
var Seed = Int64("NOETHER_SEED", 1)

// Int64 returns a getter for an int64 variable with a default value.
func Int64(key string, defaultValue int64) func() int64 {
	return func() int64 {
		if s := Var(key); s != "" {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
				return defaultValue
			}
			return n
		}
		return defaultValue
	}
}

// EnvVar describes one environment variable.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every setting with its current value.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"NOETHER_DEBUG":    {"NOETHER_DEBUG", LogLevel(), "Show additional debug information (e.g. NOETHER_DEBUG=1)"},
		"NOETHER_DATA_DIR": {"NOETHER_DATA_DIR", DataDir(), "Directory holding the CIFAR-10 batch files"},
		"NOETHER_SEED":     {"NOETHER_SEED", Seed(), "Seed for weight initialization (default 1)"},
	}
}

// Var returns an environment variable stripped of surrounding whitespace and
// quotes.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
