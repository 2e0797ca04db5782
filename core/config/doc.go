// Package config provides type-safe environment variable loading using
// struct tags.
//
// The package loads a .env file once on first use (if present) and parses
// environment variables into struct fields via the caarlos0/env library.
//
//	type AppConfig struct {
//		SessionCookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"swsession"`
//		SessionMaxAge     time.Duration `env:"SESSION_MAX_AGE" envDefault:"336h"`
//	}
//
//	var cfg AppConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
// MustLoad panics on failure, which is appropriate during startup.
package config
