package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/loomhq/loom/core/crypt"
	"github.com/loomhq/loom/core/handler"
	"github.com/loomhq/loom/core/logger"
	"github.com/loomhq/loom/core/pipeline"
	"github.com/loomhq/loom/core/response"
)

const (
	// CSRFFormField is the hidden form field carrying the token.
	CSRFFormField = "csrf_token"

	// CSRFHeaderName is the request header that must match the form field.
	CSRFHeaderName = "X-CSRF-Token"

	// DefaultCSRFExpiry is the default token lifetime.
	DefaultCSRFExpiry = time.Hour

	// csrfInvalidBody is the deterministic body returned for every
	// validation failure.
	csrfInvalidBody = "CSRF token is invalid"
)

var (
	// ErrSessionMiddlewareNotFound indicates the chain has no
	// session-providing middleware. Startup error, never recovered.
	ErrSessionMiddlewareNotFound = errors.New("csrf middleware requires session middleware, but none was found in the chain")

	// ErrSessionMiddlewareMisordered indicates session middleware is
	// configured after the CSRF middleware. Startup error, never recovered.
	ErrSessionMiddlewareMisordered = errors.New("session middleware must be placed before csrf middleware in the chain")

	// ErrNoSession indicates a token was requested for a request without an
	// attached session.
	ErrNoSession = errors.New("no session attached to request")

	// ErrCSRFNotEnabled indicates token helpers were called on a request
	// that never passed through the CSRF middleware.
	ErrCSRFNotEnabled = errors.New("csrf middleware is not active for this request")
)

// SessionProvider is implemented by middleware that attach a session to
// the request context. The CSRF middleware uses it to validate chain
// ordering at startup.
type SessionProvider interface {
	ProvidesSession() bool
}

// stateChangingMethods require CSRF validation.
var stateChangingMethods = []string{
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// csrfMinterKey stashes the middleware on the context so view helpers can
// mint tokens without holding a reference to the instance.
type csrfMinterKey struct{}

// CSRF validates state-changing requests against a stateless encrypted
// token bound to the current session. Tokens carry a random nonce, the
// session key, and an issuance timestamp; validity is recomputed entirely
// from the decrypted payload, so nothing is stored server-side.
type CSRF struct {
	crypt          *crypt.Service
	expiry         time.Duration
	trustedOrigins []string
	logger         *slog.Logger
}

// CSRFOption is a functional option for configuring the middleware.
type CSRFOption func(*CSRF)

// WithExpiry sets the token lifetime. A zero or negative expiry makes
// every token immediately stale, rejecting all validated requests.
func WithExpiry(expiry time.Duration) CSRFOption {
	return func(m *CSRF) {
		m.expiry = expiry
	}
}

// WithTrustedOrigins configures Origin header values that bypass CSRF
// validation entirely.
func WithTrustedOrigins(origins ...string) CSRFOption {
	return func(m *CSRF) {
		m.trustedOrigins = append(m.trustedOrigins, origins...)
	}
}

// WithCSRFLogger sets the logger for validation diagnostics.
func WithCSRFLogger(logger *slog.Logger) CSRFOption {
	return func(m *CSRF) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewCSRF creates the CSRF middleware using the given token service.
func NewCSRF(cryptSvc *crypt.Service, opts ...CSRFOption) *CSRF {
	if cryptSvc == nil {
		panic("csrf middleware: crypt service is required")
	}

	m := &CSRF{
		crypt:  cryptSvc,
		expiry: DefaultCSRFExpiry,
		logger: logger.Discard(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// ValidateChain enforces that a session-providing middleware exists and
// precedes this middleware. Both violations are structural configuration
// errors surfaced at startup, never at request time.
func (m *CSRF) ValidateChain(chain []pipeline.Middleware) error {
	self, sessions := -1, -1
	for i, mw := range chain {
		if c, ok := mw.(*CSRF); ok && c == m {
			self = i
		}
		if sp, ok := mw.(SessionProvider); ok && sp.ProvidesSession() && sessions == -1 {
			sessions = i
		}
	}

	if sessions == -1 {
		return ErrSessionMiddlewareNotFound
	}
	if self != -1 && sessions > self {
		return ErrSessionMiddlewareMisordered
	}
	return nil
}

// ProcessRequest validates state-changing requests. Any failure replaces
// the response with a fixed 403 whose body names the CSRF failure; the
// view is never invoked for a rejected request.
func (m *CSRF) ProcessRequest(ctx *handler.Context) (*handler.Response, error) {
	ctx.SetValue(csrfMinterKey{}, m)

	if ctx.CSRFExempt() {
		return nil, nil
	}

	r := ctx.Request()
	if !slices.Contains(stateChangingMethods, r.Method) {
		return nil, nil
	}

	if origin := r.Header.Get("Origin"); origin != "" && slices.Contains(m.trustedOrigins, origin) {
		return nil, nil
	}

	// No session means the ordering invariant was broken at runtime
	// (for example the session middleware was evicted). Fail closed.
	sess := ctx.Session()
	if sess == nil {
		m.logger.Warn("csrf validation without a session, rejecting request")
		return m.reject("missing session"), nil
	}

	formToken := ctx.FormValue(CSRFFormField)
	headerToken := r.Header.Get(CSRFHeaderName)
	if formToken == "" || headerToken == "" || formToken != headerToken {
		return m.reject("token missing or mismatched between form and header"), nil
	}

	if reason, ok := m.checkToken(formToken, sess.Key); !ok {
		return m.reject(reason), nil
	}

	return nil, nil
}

// ProcessResponse is a no-op; CSRF protection acts only on the request phase.
func (m *CSRF) ProcessResponse(ctx *handler.Context, resp *handler.Response) error {
	return nil
}

// Token mints a fresh token bound to the request's session key.
func (m *CSRF) Token(ctx *handler.Context) (string, error) {
	sess := ctx.Session()
	if sess == nil {
		return "", ErrNoSession
	}

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	payload := fmt.Sprintf("%s::%s::%d", hex.EncodeToString(nonce), sess.Key, time.Now().Unix())
	return m.crypt.Encrypt([]byte(payload))
}

// checkToken recomputes token validity from the decrypted payload.
func (m *CSRF) checkToken(token, sessionKey string) (reason string, ok bool) {
	plaintext, err := m.crypt.Decrypt(token)
	if err != nil {
		return "decryption failed", false
	}

	parts := strings.Split(string(plaintext), "::")
	if len(parts) != 3 {
		return "malformed payload", false
	}

	if parts[1] != sessionKey {
		return "session mismatch", false
	}

	issued, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "malformed timestamp", false
	}

	if time.Since(time.Unix(issued, 0)) >= m.expiry {
		return "token expired", false
	}

	return "", true
}

// reject builds the fixed validation-failure response.
func (m *CSRF) reject(reason string) *handler.Response {
	m.logger.Debug("rejected request with invalid csrf token", slog.String("reason", reason))
	return response.Error(http.StatusForbidden, csrfInvalidBody)
}

// CSRFToken mints a fresh token for the current request. Requires the
// CSRF middleware to be active in the chain.
func CSRFToken(ctx *handler.Context) (string, error) {
	m, ok := ctx.Value(csrfMinterKey{}).(*CSRF)
	if !ok {
		return "", ErrCSRFNotEnabled
	}
	return m.Token(ctx)
}

// CSRFTokenField renders a hidden form input carrying a fresh token,
// ready to embed into an HTML form.
func CSRFTokenField(ctx *handler.Context) (string, error) {
	token, err := CSRFToken(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`<input type="hidden" name="%s" value="%s">`, CSRFFormField, html.EscapeString(token)), nil
}
