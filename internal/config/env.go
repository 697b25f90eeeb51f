// Package config provides the configuration management for the fractalcalc application.
// This file contains environment variable utilities for configuration override.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// getEnvString returns the value of the environment variable with the given key
// (prefixed with EnvPrefix), or the default value if not set.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvUint64 returns the environment variable parsed as uint64, or the
// default value if not set or invalid.
func getEnvUint64(key string, defaultVal uint64) uint64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvInt returns the environment variable parsed as int, or the default
// value if not set or invalid.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvFloat returns the environment variable parsed as float64, or the
// default value if not set or invalid.
func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool returns the environment variable parsed as bool, or the default
// value if not set. Accepts "true", "1", "yes" as true; "false", "0", "no" as
// false (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// getEnvDuration returns the environment variable parsed as time.Duration,
// or the default value if not set or invalid. Accepts formats like "5m",
// "30s", "1h30m".
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// isFlagSet checks if a flag was explicitly set on the command line.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// isExplicit reports whether a value was given on the command line or in the
// environment, in which case the fractal preset must not replace it.
func isExplicit(fs *flag.FlagSet, name, envKey string) bool {
	return isFlagSet(fs, name) || os.Getenv(EnvPrefix+envKey) != ""
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > Defaults.
//
// Supported environment variables:
//   - FRACTAL_FRACTAL: Preset name (string)
//   - FRACTAL_MIN, FRACTAL_MAX: Iteration bounds (int)
//   - FRACTAL_RE, FRACTAL_IM, FRACTAL_SIZE: Area centre and span (float)
//   - FRACTAL_WIDTH, FRACTAL_HEIGHT: Resolution (int)
//   - FRACTAL_MULTIPLIER: Oversampling mode (string)
//   - FRACTAL_CHUNKS, FRACTAL_WORKERS, FRACTAL_FRAMES, FRACTAL_REFERENCE_FRAME (int)
//   - FRACTAL_SEED: Chunk order seed (uint64)
//   - FRACTAL_BOUNDARY: Escape boundary (float)
//   - FRACTAL_TIMEOUT: Run timeout (duration: "5m", "30s")
//   - FRACTAL_PORT, FRACTAL_PALETTE, FRACTAL_LOG_LEVEL, FRACTAL_OUTPUT (string)
//   - FRACTAL_REPEAT, FRACTAL_SAVE_IMAGES, FRACTAL_SERVER, FRACTAL_JSON,
//     FRACTAL_QUIET, FRACTAL_NO_COLOR, FRACTAL_DETAILS (bool: true/false, 1/0, yes/no)
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	applyNumericOverrides(config, fs)
	applyDurationOverrides(config, fs)
	applyStringOverrides(config, fs)
	applyBooleanOverrides(config, fs)
}

func applyNumericOverrides(config *AppConfig, fs *flag.FlagSet) {
	ints := []struct {
		flag, env string
		dst       *int
	}{
		{"min", "MIN", &config.IterationMin},
		{"max", "MAX", &config.IterationMax},
		{"width", "WIDTH", &config.Width},
		{"height", "HEIGHT", &config.Height},
		{"chunks", "CHUNKS", &config.Chunks},
		{"workers", "WORKERS", &config.Workers},
		{"frames", "FRAMES", &config.Frames},
		{"reference-frame", "REFERENCE_FRAME", &config.ReferenceFrame},
	}
	for _, o := range ints {
		if !isFlagSet(fs, o.flag) {
			*o.dst = getEnvInt(o.env, *o.dst)
		}
	}

	floats := []struct {
		flag, env string
		dst       *float64
	}{
		{"re", "RE", &config.CenterRe},
		{"im", "IM", &config.CenterIm},
		{"size", "SIZE", &config.Size},
		{"boundary", "BOUNDARY", &config.Boundary},
	}
	for _, o := range floats {
		if !isFlagSet(fs, o.flag) {
			*o.dst = getEnvFloat(o.env, *o.dst)
		}
	}

	if !isFlagSet(fs, "seed") {
		config.Seed = getEnvUint64("SEED", config.Seed)
	}
}

func applyDurationOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
}

func applyStringOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "fractal") {
		config.Fractal = getEnvString("FRACTAL", config.Fractal)
	}
	if !isFlagSet(fs, "multiplier") {
		config.Multiplier = getEnvString("MULTIPLIER", config.Multiplier)
	}
	if !isFlagSet(fs, "port") {
		config.Port = getEnvString("PORT", config.Port)
	}
	if !isFlagSet(fs, "palette") {
		config.Palette = getEnvString("PALETTE", config.Palette)
	}
	if !isFlagSet(fs, "log-level") {
		config.LogLevel = getEnvString("LOG_LEVEL", config.LogLevel)
	}
	if !isFlagSet(fs, "output") && !isFlagSet(fs, "o") {
		config.OutputFile = getEnvString("OUTPUT", config.OutputFile)
	}
}

func applyBooleanOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "repeat") {
		config.Repeat = getEnvBool("REPEAT", config.Repeat)
	}
	if !isFlagSet(fs, "save-images") {
		config.SaveImages = getEnvBool("SAVE_IMAGES", config.SaveImages)
	}
	if !isFlagSet(fs, "server") {
		config.ServerMode = getEnvBool("SERVER", config.ServerMode)
	}
	if !isFlagSet(fs, "json") {
		config.JSONOutput = getEnvBool("JSON", config.JSONOutput)
	}
	if !isFlagSet(fs, "quiet") && !isFlagSet(fs, "q") {
		config.Quiet = getEnvBool("QUIET", config.Quiet)
	}
	if !isFlagSet(fs, "no-color") {
		config.NoColor = getEnvBool("NO_COLOR", config.NoColor)
	}
	if !isFlagSet(fs, "d") && !isFlagSet(fs, "details") {
		config.Details = getEnvBool("DETAILS", config.Details)
	}
}
