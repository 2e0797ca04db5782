// Package middleware provides the built-in pipeline middleware: session
// attachment and CSRF protection.
//
// Both middleware implement pipeline.Middleware. The CSRF middleware
// additionally implements pipeline.Validator and refuses to start unless
// a session-providing middleware is configured ahead of it in the chain.
//
//	sessions := middleware.NewSessions(store)
//	csrf := middleware.NewCSRF(cryptSvc,
//		middleware.WithTrustedOrigins("trusted.example.com"))
//
//	runner, err := pipeline.NewRunner([]pipeline.Middleware{sessions, csrf})
//	if err != nil {
//		log.Fatal(err) // misordered or missing session middleware
//	}
//
// Views obtain a session via ctx.Session() and a form token via
// middleware.CSRFTokenField(ctx).
package middleware
