package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/loomhq/loom/core/handler"
	"github.com/loomhq/loom/core/logger"
	"github.com/loomhq/loom/core/session"
)

// DefaultSessionCookieName is the cookie carrying the session key.
const DefaultSessionCookieName = "swsession"

// DefaultSessionMaxAge is the default session lifetime.
const DefaultSessionMaxAge = 14 * 24 * time.Hour

// Sessions attaches a session to every request and persists it after the
// response phase. Expired, missing, and unknown session cookies all get a
// fresh session transparently; the client is never shown an error for a
// stale session.
type Sessions struct {
	store      session.Store
	cookieName string
	maxAge     time.Duration
	secure     bool
	logger     *slog.Logger
}

// SessionsOption is a functional option for configuring the middleware.
type SessionsOption func(*Sessions)

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) SessionsOption {
	return func(m *Sessions) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithMaxAge sets the session lifetime. A session older than maxAge is
// expired and replaced on its next request.
func WithMaxAge(maxAge time.Duration) SessionsOption {
	return func(m *Sessions) {
		if maxAge > 0 {
			m.maxAge = maxAge
		}
	}
}

// WithSecureCookie marks the session cookie Secure (HTTPS only).
func WithSecureCookie(secure bool) SessionsOption {
	return func(m *Sessions) {
		m.secure = secure
	}
}

// WithSessionsLogger sets the logger for session load/store diagnostics.
func WithSessionsLogger(logger *slog.Logger) SessionsOption {
	return func(m *Sessions) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewSessions creates the session middleware backed by the given store.
func NewSessions(store session.Store, opts ...SessionsOption) *Sessions {
	if store == nil {
		panic("sessions middleware: store is required")
	}

	m := &Sessions{
		store:      store,
		cookieName: DefaultSessionCookieName,
		maxAge:     DefaultSessionMaxAge,
		logger:     logger.Discard(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// ProvidesSession marks this middleware as the chain's session source for
// structural validation by downstream middleware.
func (m *Sessions) ProvidesSession() bool {
	return true
}

// CookieName returns the configured session cookie name.
func (m *Sessions) CookieName() string {
	return m.cookieName
}

// ProcessRequest loads the session named by the request cookie, creating a
// fresh one when the cookie is absent, unknown, or expired, and attaches
// it to the request context.
func (m *Sessions) ProcessRequest(ctx *handler.Context) (*handler.Response, error) {
	sess, err := m.load(ctx)
	if err != nil {
		return nil, err
	}

	ctx.SetSession(sess)
	return nil, nil
}

// ProcessResponse persists the (possibly mutated) session and refreshes
// the session cookie on the outgoing response.
func (m *Sessions) ProcessResponse(ctx *handler.Context, resp *handler.Response) error {
	sess := ctx.Session()
	if sess == nil {
		return nil
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return errors.Join(session.ErrSaveSession, err)
	}

	resp.SetCookie(&http.Cookie{
		Name:     m.cookieName,
		Value:    sess.Key,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// load resolves the request's session, issuing a new one whenever the
// existing one can't be used.
func (m *Sessions) load(ctx *handler.Context) (*session.Session, error) {
	cookie, err := ctx.Request().Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return m.store.Create(ctx)
	}

	sess, err := m.store.Get(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return m.store.Create(ctx)
		}
		return nil, err
	}

	if sess.IsExpired(m.maxAge) {
		m.logger.Debug("session expired, issuing a new one",
			slog.Time("created_at", sess.CreatedAt),
		)
		return m.store.Create(ctx)
	}

	return sess, nil
}
