package loom

import (
	"log/slog"

	"github.com/loomhq/loom/core/crypt"
	"github.com/loomhq/loom/core/pipeline"
	"github.com/loomhq/loom/core/session"
	"github.com/loomhq/loom/middleware"
)

// Middleware names resolvable through the default registry.
const (
	MiddlewareSessions = "sessions"
	MiddlewareCSRF     = "csrf"
)

// MiddlewareDeps are handed to middleware factories when the configured
// chain is resolved at construction time.
type MiddlewareDeps struct {
	Config Config
	Store  session.Store
	Crypt  *crypt.Service
	Logger *slog.Logger
}

// DefaultRegistry returns a registry with the built-in middleware
// registered under their canonical names. Applications can register
// additional middleware before passing the registry to New.
func DefaultRegistry() *pipeline.Registry[MiddlewareDeps] {
	reg := pipeline.NewRegistry[MiddlewareDeps]()

	reg.Register(MiddlewareSessions, func(d MiddlewareDeps) (pipeline.Middleware, error) {
		return middleware.NewSessions(d.Store,
			middleware.WithCookieName(d.Config.SessionCookieName),
			middleware.WithMaxAge(d.Config.SessionMaxAge),
			middleware.WithSessionsLogger(d.Logger),
		), nil
	})

	reg.Register(MiddlewareCSRF, func(d MiddlewareDeps) (pipeline.Middleware, error) {
		return middleware.NewCSRF(d.Crypt,
			middleware.WithExpiry(d.Config.CSRFExpiry),
			middleware.WithTrustedOrigins(d.Config.CSRFTrustedOrigins...),
			middleware.WithCSRFLogger(d.Logger),
		), nil
	})

	return reg
}
