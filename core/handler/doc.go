// Package handler defines the request context, buffered response
// descriptor, and handler types shared by the pipeline, middleware, and
// application layers.
//
// Responses are buffered rather than streamed: a handler returns a
// *Response value describing status, headers, cookies, and body, and the
// gateway writes it out only after the response phase of the middleware
// pipeline has run. This lets response hooks still set headers and
// cookies after the view has produced its result.
//
// The Context carries the incoming *http.Request, route metadata, a
// request-scoped value bag, and the session attached by the session
// middleware. Session access is an explicit, typed field rather than an
// open-ended attribute so downstream code can't scribble arbitrary state
// onto the request.
package handler
