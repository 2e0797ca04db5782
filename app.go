package loom

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/loomhq/loom/core/crypt"
	"github.com/loomhq/loom/core/handler"
	"github.com/loomhq/loom/core/logger"
	"github.com/loomhq/loom/core/pipeline"
	"github.com/loomhq/loom/core/response"
	"github.com/loomhq/loom/core/session"
)

// ErrStartup wraps all construction-time configuration failures.
var ErrStartup = errors.New("application failed to start")

// App is the gateway boundary: an http.Handler running every request
// through the middleware pipeline around view dispatch.
type App struct {
	config Config
	store  session.Store
	crypt  *crypt.Service
	runner *pipeline.Runner
	logger *slog.Logger

	mu     sync.RWMutex
	routes map[string]map[string]*route
}

// route is a registered view with its dispatch metadata.
type route struct {
	handler    handler.HandlerFunc
	csrfExempt bool
	methods    []string
}

// Option is a functional option for configuring the App.
type Option func(*appOptions)

type appOptions struct {
	store    session.Store
	logger   *slog.Logger
	registry *pipeline.Registry[MiddlewareDeps]
	chain    []pipeline.Middleware
}

// WithStore sets the session store backend. Defaults to the in-memory
// store.
func WithStore(store session.Store) Option {
	return func(o *appOptions) {
		o.store = store
	}
}

// WithAppLogger sets the application logger.
func WithAppLogger(log *slog.Logger) Option {
	return func(o *appOptions) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithRegistry replaces the middleware registry used to resolve
// Config.Middleware names.
func WithRegistry(reg *pipeline.Registry[MiddlewareDeps]) Option {
	return func(o *appOptions) {
		if reg != nil {
			o.registry = reg
		}
	}
}

// WithMiddleware sets the chain from concrete instances, bypassing
// name resolution. Order is preserved.
func WithMiddleware(chain ...pipeline.Middleware) Option {
	return func(o *appOptions) {
		o.chain = chain
	}
}

// New constructs the application, resolving the middleware chain and
// running structural validation. Configuration errors — unknown
// middleware names, missing secrets, a CSRF middleware without a
// preceding session middleware — are grouped and returned before any
// request is served.
func New(cfg Config, opts ...Option) (*App, error) {
	o := &appOptions{
		logger:   logger.Discard(),
		registry: DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.store == nil {
		o.store = session.NewMemoryStore()
	}

	cryptSvc, err := newCryptService(cfg)
	if err != nil {
		return nil, errors.Join(ErrStartup, err)
	}

	chain := o.chain
	if chain == nil {
		deps := MiddlewareDeps{
			Config: cfg,
			Store:  o.store,
			Crypt:  cryptSvc,
			Logger: o.logger,
		}
		chain, err = o.registry.Build(cfg.Middleware, deps)
		if err != nil {
			return nil, errors.Join(ErrStartup, err)
		}
	}

	runner, err := pipeline.NewRunner(chain, pipeline.WithLogger(o.logger))
	if err != nil {
		return nil, errors.Join(ErrStartup, err)
	}

	return &App{
		config: cfg,
		store:  o.store,
		crypt:  cryptSvc,
		runner: runner,
		logger: o.logger,
		routes: make(map[string]map[string]*route),
	}, nil
}

// newCryptService builds the token service from configured secrets,
// generating a process-local secret when none are supplied.
func newCryptService(cfg Config) (*crypt.Service, error) {
	secrets := cfg.Secrets
	if len(secrets) == 0 {
		generated, err := crypt.GenerateSecret()
		if err != nil {
			return nil, err
		}
		secrets = []string{generated}
	}
	return crypt.New(secrets)
}

// RouteOption configures a registered route.
type RouteOption func(*route)

// WithMethods sets the HTTP methods the route accepts. Defaults to GET.
func WithMethods(methods ...string) RouteOption {
	return func(r *route) {
		r.methods = methods
	}
}

// WithCSRFExempt marks the route exempt from CSRF validation,
// regardless of method.
func WithCSRFExempt() RouteOption {
	return func(r *route) {
		r.csrfExempt = true
	}
}

// Handle registers a view for an exact path. Routing here is
// deliberately minimal; mount the App under a full-featured router when
// pattern matching is needed.
func (a *App) Handle(path string, h handler.HandlerFunc, opts ...RouteOption) {
	rt := &route{
		handler: h,
		methods: []string{http.MethodGet},
	}
	for _, opt := range opts {
		opt(rt)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	byMethod, ok := a.routes[path]
	if !ok {
		byMethod = make(map[string]*route)
		a.routes[path] = byMethod
	}
	for _, method := range rt.methods {
		byMethod[method] = rt
	}
}

// Get registers a GET view.
func (a *App) Get(path string, h handler.HandlerFunc, opts ...RouteOption) {
	a.Handle(path, h, append([]RouteOption{WithMethods(http.MethodGet)}, opts...)...)
}

// Post registers a POST view.
func (a *App) Post(path string, h handler.HandlerFunc, opts ...RouteOption) {
	a.Handle(path, h, append([]RouteOption{WithMethods(http.MethodPost)}, opts...)...)
}

// Pipeline exposes the middleware runner, mainly for inspecting the
// live chain length.
func (a *App) Pipeline() *pipeline.Runner {
	return a.runner
}

// Store exposes the session store backend.
func (a *App) Store() session.Store {
	return a.store
}

// ServeHTTP implements http.Handler: resolve the route, run the pipeline
// around dispatch, write the buffered response.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := handler.NewContext(r)

	rt, errResp := a.resolve(r.Method, r.URL.Path)
	if rt != nil {
		ctx.SetCSRFExempt(rt.csrfExempt)
	}

	resp := a.runner.Run(ctx, func(ctx *handler.Context) *handler.Response {
		if rt == nil {
			return errResp
		}
		return a.dispatch(ctx, rt)
	})
	if resp == nil {
		resp = response.Error(http.StatusInternalServerError, "")
	}

	if err := resp.Write(w); err != nil {
		a.logger.Error("failed to write response",
			slog.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
}

// resolve finds the route for the request, or the error response to
// serve in its place.
func (a *App) resolve(method, path string) (*route, *handler.Response) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	byMethod, ok := a.routes[path]
	if !ok {
		return nil, response.NotFound()
	}

	rt, ok := byMethod[method]
	if !ok {
		return nil, response.MethodNotAllowed()
	}
	return rt, nil
}

// dispatch invokes the view, converting panics into a 500 so a broken
// view can't take down the worker.
func (a *App) dispatch(ctx *handler.Context, rt *route) (resp *handler.Response) {
	defer func() {
		if p := recover(); p != nil {
			a.logger.Error("panic in view",
				slog.String("path", ctx.Request().URL.Path),
				slog.Any("panic", p),
			)
			resp = response.Error(http.StatusInternalServerError, "")
		}
	}()

	resp = rt.handler(ctx)
	if resp == nil {
		resp = response.Error(http.StatusInternalServerError, "view returned no response")
	}
	return resp
}
