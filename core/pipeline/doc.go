// Package pipeline implements the ordered middleware chain that wraps
// request dispatch.
//
// Each middleware exposes two independently callable hooks: a request
// hook that runs before dispatch (in configured order) and a response
// hook that runs after dispatch (in reverse order). A request hook may
// short-circuit dispatch by returning a response, in which case the
// remaining request hooks and the view are skipped but the response
// phase still runs over every live middleware.
//
// Failure posture is fail-open per instance: a hook that returns an
// error or panics is logged and its middleware is permanently evicted
// from the chain for the lifetime of the runner, while the triggering
// request continues with the remaining middleware. The live chain only
// ever shrinks.
//
// Middleware implementing Validator get a chance to reject the chain
// shape at construction time. All validation failures are collected and
// returned together, so a misconfigured application never serves a
// single request.
//
//	runner, err := pipeline.NewRunner([]pipeline.Middleware{sessions, csrf})
//	if err != nil {
//		log.Fatal(err) // structural configuration error
//	}
//
//	resp := runner.Run(ctx, dispatch)
package pipeline
