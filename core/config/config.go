package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrParseConfig is returned when environment parsing fails.
var ErrParseConfig = errors.New("failed to parse config from environment")

// dotenvOnce loads the optional .env file a single time per process.
var dotenvOnce sync.Once

// Load parses environment variables into cfg, which must be a pointer to
// a struct with env tags. A .env file in the working directory is loaded
// on first use; a missing file is not an error.
func Load(cfg any) error {
	dotenvOnce.Do(func() {
		// Process environment takes precedence over .env values.
		_ = godotenv.Load()
	})

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrParseConfig, err)
	}
	return nil
}

// MustLoad is like Load but panics on failure. Useful during startup when
// a missing required variable should prevent the application from running.
func MustLoad(cfg any) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
