package loom_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomhq/loom"
	"github.com/loomhq/loom/core/handler"
	"github.com/loomhq/loom/core/pipeline"
	"github.com/loomhq/loom/core/response"
	"github.com/loomhq/loom/core/session"
	"github.com/loomhq/loom/middleware"
)

// counterView increments a session-scoped counter, starting at zero for a
// fresh session, and echoes the current value.
func counterView(ctx *handler.Context) *handler.Response {
	sess := ctx.Session()
	if sess == nil {
		return response.Error(http.StatusInternalServerError, "no session")
	}

	if v, ok := sess.Get("value"); ok {
		sess.Set("value", v.(int)+1)
	} else {
		sess.Set("value", 0)
	}

	v, _ := sess.Get("value")
	return response.Text(http.StatusOK, strconv.Itoa(v.(int)))
}

// formViewWithCSRF renders a protected form on GET and echoes the
// submitted name as JSON on POST.
func formViewWithCSRF(ctx *handler.Context) *handler.Response {
	if ctx.Request().Method == http.MethodPost {
		return response.JSON(http.StatusOK, map[string]string{"name": ctx.FormValue("name")})
	}

	field, err := middleware.CSRFTokenField(ctx)
	if err != nil {
		return response.Error(http.StatusInternalServerError, err.Error())
	}
	return response.HTML(http.StatusOK,
		fmt.Sprintf(`<form method="post">%s<input type="text" name="name"></form>`, field))
}

// formView echoes the submitted name without rendering a token.
func formView(ctx *handler.Context) *handler.Response {
	return response.JSON(http.StatusOK, map[string]string{"name": ctx.FormValue("name")})
}

// explodingRequestMiddleware fails its request hook on every invocation.
type explodingRequestMiddleware struct{}

func (explodingRequestMiddleware) ProcessRequest(ctx *handler.Context) (*handler.Response, error) {
	return nil, errors.New("exploding request middleware")
}

func (explodingRequestMiddleware) ProcessResponse(ctx *handler.Context, resp *handler.Response) error {
	return nil
}

// explodingResponseMiddleware fails its response hook on every invocation.
type explodingResponseMiddleware struct{}

func (explodingResponseMiddleware) ProcessRequest(ctx *handler.Context) (*handler.Response, error) {
	return nil, nil
}

func (explodingResponseMiddleware) ProcessResponse(ctx *handler.Context, resp *handler.Response) error {
	return errors.New("exploding response middleware")
}

func newSessionApp(t *testing.T) (*loom.App, *session.MemoryStore) {
	t.Helper()

	cfg := loom.DefaultConfig()
	cfg.Middleware = []string{loom.MiddlewareSessions}

	store := session.NewMemoryStore()
	app, err := loom.New(cfg, loom.WithStore(store))
	require.NoError(t, err)
	return app, store
}

func newCSRFApp(t *testing.T, mutate func(*loom.Config)) (*loom.App, *session.MemoryStore) {
	t.Helper()

	cfg := loom.DefaultConfig()
	cfg.Middleware = []string{loom.MiddlewareSessions, loom.MiddlewareCSRF}
	if mutate != nil {
		mutate(&cfg)
	}

	store := session.NewMemoryStore()
	app, err := loom.New(cfg, loom.WithStore(store))
	require.NoError(t, err)
	return app, store
}

func doGet(app *loom.App, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	app.ServeHTTP(w, r)
	return w
}

type postOpts struct {
	headerToken string
	origin      string
	cookies     []*http.Cookie
}

func doPost(app *loom.App, path, body string, opts postOpts) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if opts.headerToken != "" {
		r.Header.Set(middleware.CSRFHeaderName, opts.headerToken)
	}
	if opts.origin != "" {
		r.Header.Set("Origin", opts.origin)
	}
	for _, c := range opts.cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	app.ServeHTTP(w, r)
	return w
}

// sessionCookie extracts the session cookie set on a response.
func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.DefaultSessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie on response")
	return nil
}

// extractToken pulls the csrf token out of a rendered form.
func extractToken(t *testing.T, body string) string {
	t.Helper()

	parts := strings.Split(body, `value="`)
	require.Len(t, parts, 2, "expected exactly one hidden token field")
	return strings.SplitN(parts[1], `"`, 2)[0]
}

func TestSessionMiddleware_Counter(t *testing.T) {
	t.Parallel()

	app, _ := newSessionApp(t)
	app.Get("/", counterView)

	w := doGet(app, "/")
	assert.Equal(t, "0", w.Body.String())

	cookie := sessionCookie(t, w)
	assert.Equal(t, "1", doGet(app, "/", cookie).Body.String())
	assert.Equal(t, "2", doGet(app, "/", cookie).Body.String())
}

func TestSessionMiddleware_ExpiredSession(t *testing.T) {
	t.Parallel()

	app, store := newSessionApp(t)
	app.Get("/", counterView)

	w := doGet(app, "/")
	require.Equal(t, "0", w.Body.String())
	cookie := sessionCookie(t, w)

	// Age the session past max age.
	sess, err := store.Get(context.Background(), cookie.Value)
	require.NoError(t, err)
	sess.CreatedAt = sess.CreatedAt.Add(-loom.DefaultConfig().SessionMaxAge)

	// The counter resets because a fresh session is issued.
	w2 := doGet(app, "/", cookie)
	assert.Equal(t, "0", w2.Body.String())

	replacement := sessionCookie(t, w2)
	assert.NotEqual(t, cookie.Value, replacement.Value)
}

func TestExplodingMiddleware_Evicted(t *testing.T) {
	t.Parallel()

	app, err := loom.New(loom.DefaultConfig(), loom.WithMiddleware(
		explodingRequestMiddleware{},
		explodingResponseMiddleware{},
	))
	require.NoError(t, err)
	app.Get("/", func(ctx *handler.Context) *handler.Response {
		return response.Text(http.StatusOK, "ok")
	})

	require.Equal(t, 2, app.Pipeline().Len())

	w := doGet(app, "/")
	assert.Equal(t, "ok", w.Body.String())

	// Both broken middleware were kicked out, not silently ignored.
	assert.Equal(t, 0, app.Pipeline().Len())
}

func TestStartup_CSRFWithoutSessionMiddleware(t *testing.T) {
	t.Parallel()

	cfg := loom.DefaultConfig()
	cfg.Middleware = []string{loom.MiddlewareCSRF}

	_, err := loom.New(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, loom.ErrStartup)
	assert.ErrorIs(t, err, pipeline.ErrStartupValidation)
	assert.ErrorIs(t, err, middleware.ErrSessionMiddlewareNotFound)
}

func TestStartup_CSRFAboveSessionMiddleware(t *testing.T) {
	t.Parallel()

	cfg := loom.DefaultConfig()
	cfg.Middleware = []string{loom.MiddlewareCSRF, loom.MiddlewareSessions}

	_, err := loom.New(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, loom.ErrStartup)
	assert.ErrorIs(t, err, middleware.ErrSessionMiddlewareMisordered)
}

func TestStartup_UnknownMiddlewareName(t *testing.T) {
	t.Parallel()

	cfg := loom.DefaultConfig()
	cfg.Middleware = []string{"nonexistent"}

	_, err := loom.New(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, loom.ErrStartup)
	assert.ErrorIs(t, err, pipeline.ErrUnknownMiddleware)
}

func TestCSRF_FormRoundTrip(t *testing.T) {
	t.Parallel()

	app, _ := newCSRFApp(t, nil)
	app.Handle("/", formViewWithCSRF, loom.WithMethods(http.MethodGet, http.MethodPost))

	w := doGet(app, "/")
	body := w.Body.String()
	assert.Contains(t, body, "<form")
	assert.Contains(t, body, `<input type="hidden" name="csrf_token"`)

	token := extractToken(t, body)
	cookie := sessionCookie(t, w)

	t.Run("matching token succeeds", func(t *testing.T) {
		w2 := doPost(app, "/", "name=bob&csrf_token="+token, postOpts{
			headerToken: token,
			cookies:     []*http.Cookie{cookie},
		})
		assert.Equal(t, http.StatusOK, w2.Code)
		assert.Contains(t, w2.Body.String(), "bob")
	})

	t.Run("wrong token rejected", func(t *testing.T) {
		w2 := doPost(app, "/", "name=bob&csrf_token=badtoken", postOpts{
			headerToken: "badtoken",
			cookies:     []*http.Cookie{cookie},
		})
		assert.Contains(t, w2.Body.String(), "CSRF token is invalid")
	})

	t.Run("token bound to a different session rejected", func(t *testing.T) {
		// A second client gets its own session and token.
		other := doGet(app, "/")
		otherToken := extractToken(t, other.Body.String())

		// Replaying that token under the first client's session fails.
		w2 := doPost(app, "/", "name=bob&csrf_token="+otherToken, postOpts{
			headerToken: otherToken,
			cookies:     []*http.Cookie{cookie},
		})
		assert.Contains(t, w2.Body.String(), "CSRF token is invalid")
	})
}

func TestCSRF_ExpiredToken(t *testing.T) {
	t.Parallel()

	app, _ := newCSRFApp(t, func(cfg *loom.Config) {
		cfg.CSRFExpiry = -1 * time.Second
	})
	app.Handle("/", formViewWithCSRF, loom.WithMethods(http.MethodGet, http.MethodPost))

	w := doGet(app, "/")
	token := extractToken(t, w.Body.String())
	cookie := sessionCookie(t, w)

	// Even a just-minted token is already stale.
	w2 := doPost(app, "/", "name=bob&csrf_token="+token, postOpts{
		headerToken: token,
		cookies:     []*http.Cookie{cookie},
	})
	assert.Contains(t, w2.Body.String(), "CSRF token is invalid")
}

func TestCSRF_ExemptView(t *testing.T) {
	t.Parallel()

	app, _ := newCSRFApp(t, nil)
	app.Handle("/", formView,
		loom.WithMethods(http.MethodGet, http.MethodPost), loom.WithCSRFExempt())
	app.Handle("/2", formView,
		loom.WithMethods(http.MethodGet, http.MethodPost))

	w := doPost(app, "/", "name=bob", postOpts{})
	assert.Contains(t, w.Body.String(), "bob")

	w2 := doPost(app, "/2", "name=bob", postOpts{})
	assert.Contains(t, w2.Body.String(), "CSRF token is invalid")
}

func TestCSRF_TrustedOrigins(t *testing.T) {
	t.Parallel()

	app, _ := newCSRFApp(t, func(cfg *loom.Config) {
		cfg.CSRFTrustedOrigins = []string{"example.com"}
	})
	app.Handle("/", formView, loom.WithMethods(http.MethodGet, http.MethodPost))

	w := doPost(app, "/", "name=bob", postOpts{origin: "notvalid.com"})
	assert.Contains(t, w.Body.String(), "CSRF token is invalid")

	w2 := doPost(app, "/", "name=bob", postOpts{origin: "example.com"})
	assert.JSONEq(t, `{"name":"bob"}`, w2.Body.String())
}

func TestRouting_Defaults(t *testing.T) {
	t.Parallel()

	app, err := loom.New(loom.DefaultConfig())
	require.NoError(t, err)
	app.Get("/", func(ctx *handler.Context) *handler.Response {
		return response.Text(http.StatusOK, "home")
	})

	assert.Equal(t, http.StatusNotFound, doGet(app, "/missing").Code)

	w := doPost(app, "/", "", postOpts{})
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
