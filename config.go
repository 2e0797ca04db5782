package loom

import (
	"time"
)

// Config is the application configuration surface. All fields map to
// environment variables for loading via core/config.
type Config struct {
	// Middleware is the ordered list of middleware names resolved through
	// the registry at construction time. Order is significant: the session
	// middleware must precede the CSRF middleware.
	Middleware []string `env:"LOOM_MIDDLEWARE" envSeparator:","`

	// SessionCookieName is the cookie carrying the session key.
	SessionCookieName string `env:"SESSION_COOKIE_NAME" envDefault:"swsession"`

	// SessionMaxAge is the session lifetime; sessions older than this are
	// replaced transparently.
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"336h"`

	// CSRFExpiry is the CSRF token lifetime. A zero or negative value makes
	// every token immediately stale.
	CSRFExpiry time.Duration `env:"CSRF_EXPIRY" envDefault:"1h"`

	// CSRFTrustedOrigins lists Origin header values that bypass CSRF
	// validation.
	CSRFTrustedOrigins []string `env:"CSRF_TRUSTED_ORIGINS" envSeparator:","`

	// Secrets are the symmetric keys for the token service, first used for
	// encryption, all for decryption. When empty a process-local secret is
	// generated at startup, which invalidates outstanding tokens across
	// restarts.
	Secrets []string `env:"LOOM_SECRETS" envSeparator:","`
}

// DefaultConfig returns a Config with the standard defaults and an empty
// middleware chain.
func DefaultConfig() Config {
	return Config{
		SessionCookieName: "swsession",
		SessionMaxAge:     336 * time.Hour, // two weeks
		CSRFExpiry:        time.Hour,
	}
}
