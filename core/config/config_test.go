package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomhq/loom/core/config"
)

type testConfig struct {
	CookieName string        `env:"TEST_COOKIE_NAME" envDefault:"swsession"`
	MaxAge     time.Duration `env:"TEST_MAX_AGE" envDefault:"336h"`
	Required   string        `env:"TEST_REQUIRED_VALUE,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults and overrides", func(t *testing.T) {
		t.Setenv("TEST_REQUIRED_VALUE", "present")
		t.Setenv("TEST_MAX_AGE", "1h")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))

		assert.Equal(t, "swsession", cfg.CookieName)
		assert.Equal(t, time.Hour, cfg.MaxAge)
		assert.Equal(t, "present", cfg.Required)
	})

	t.Run("missing required variable", func(t *testing.T) {
		var cfg testConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParseConfig)
	})

	t.Run("must load panics on failure", func(t *testing.T) {
		assert.Panics(t, func() {
			var cfg testConfig
			config.MustLoad(&cfg)
		})
	})
}
