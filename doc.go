// Package loom provides a small web-application core built around an
// ordered middleware pipeline with session management and CSRF
// protection.
//
// An App fronts a conventional HTTP server: each incoming request flows
// through the request hooks of the configured middleware chain, gets
// dispatched to a view, then flows back through the response hooks in
// reverse order. Middleware whose hooks fail are evicted from the chain
// and the request continues; structural misconfiguration (a CSRF
// middleware without a preceding session middleware) is refused at
// construction time, before a single request is served.
//
//	cfg := loom.DefaultConfig()
//	cfg.Middleware = []string{"sessions", "csrf"}
//
//	app, err := loom.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	app.Handle("/", indexView)
//	app.Handle("/submit", submitView, loom.WithMethods(http.MethodGet, http.MethodPost))
//
//	http.ListenAndServe(":8080", app)
//
// Views receive a *handler.Context carrying the request and its session,
// and return buffered *handler.Response values built with the response
// package.
package loom
