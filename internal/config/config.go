// SPDX-License-Identifier: EPL-2.0

// Package config loads process settings from the environment and session
// descriptions from YAML files.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment   string
	LogLevel      string  // overrides the environment's default level
	Rate          int     // output sample rate
	Channels      int     // output channels
	BufferSeconds float64 // playback buffer length
	BlockFrames   int     // frames per render block
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:   getEnv("PLAYSCHED_ENV", "production"),
		LogLevel:      getEnv("PLAYSCHED_LOG_LEVEL", ""),
		Rate:          getEnvInt("PLAYSCHED_RATE", 44100),
		Channels:      getEnvInt("PLAYSCHED_CHANNELS", 2),
		BufferSeconds: getEnvFloat("PLAYSCHED_BUFFER_SECONDS", 0.5),
		BlockFrames:   getEnvInt("PLAYSCHED_BLOCK_FRAMES", 1024),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the output format.
func (c *Config) Validate() error {
	switch {
	case c.Rate <= 0:
		return fmt.Errorf("%w: PLAYSCHED_RATE must be positive, got %d", ErrInvalidFormat, c.Rate)
	case c.Channels <= 0:
		return fmt.Errorf("%w: PLAYSCHED_CHANNELS must be positive, got %d", ErrInvalidFormat, c.Channels)
	case !(c.BufferSeconds > 0):
		return fmt.Errorf("%w: PLAYSCHED_BUFFER_SECONDS must be positive, got %v", ErrInvalidFormat, c.BufferSeconds)
	case c.BlockFrames <= 0:
		return fmt.Errorf("%w: PLAYSCHED_BLOCK_FRAMES must be positive, got %d", ErrInvalidFormat, c.BlockFrames)
	}
	return nil
}

// BufferFrames returns the playback buffer length in frames.
func (c *Config) BufferFrames() int {
	return max(int(c.BufferSeconds*float64(c.Rate)), 1)
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}
