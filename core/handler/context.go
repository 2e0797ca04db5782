package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/loomhq/loom/core/session"
)

// Context carries a single request through the middleware pipeline and
// into the view. It implements context.Context by delegating to the
// request's context.
type Context struct {
	req *http.Request

	mu     sync.RWMutex
	values map[any]any

	sess *session.Session

	// csrfExempt marks the resolved route as exempt from CSRF validation.
	csrfExempt bool
}

// NewContext creates a request context for the given request.
func NewContext(r *http.Request) *Context {
	return &Context{
		req:    r,
		values: make(map[any]any),
	}
}

// Request returns the underlying HTTP request.
func (c *Context) Request() *http.Request {
	return c.req
}

// Session returns the session attached by the session middleware, or nil
// if no session middleware ran for this request.
func (c *Context) Session() *session.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess
}

// SetSession attaches a session to the request.
func (c *Context) SetSession(sess *session.Session) {
	c.mu.Lock()
	c.sess = sess
	c.mu.Unlock()
}

// CSRFExempt reports whether the resolved route opted out of CSRF
// validation.
func (c *Context) CSRFExempt() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.csrfExempt
}

// SetCSRFExempt marks the resolved route as exempt from CSRF validation.
// Called by the router during dispatch setup.
func (c *Context) SetCSRFExempt(exempt bool) {
	c.mu.Lock()
	c.csrfExempt = exempt
	c.mu.Unlock()
}

// SetValue stores a request-scoped value.
func (c *Context) SetValue(key, val any) {
	c.mu.Lock()
	c.values[key] = val
	c.mu.Unlock()
}

// FormValue returns the named form field from the request body or query,
// parsing the form on first use.
func (c *Context) FormValue(key string) string {
	return c.req.FormValue(key)
}

// Deadline implements context.Context.
func (c *Context) Deadline() (time.Time, bool) {
	return c.req.Context().Deadline()
}

// Done implements context.Context.
func (c *Context) Done() <-chan struct{} {
	return c.req.Context().Done()
}

// Err implements context.Context.
func (c *Context) Err() error {
	return c.req.Context().Err()
}

// Value implements context.Context, checking request-scoped values before
// falling back to the request's context.
func (c *Context) Value(key any) any {
	c.mu.RLock()
	if v, ok := c.values[key]; ok {
		c.mu.RUnlock()
		return v
	}
	c.mu.RUnlock()
	return c.req.Context().Value(key)
}

var _ context.Context = (*Context)(nil)
