package pipeline

import (
	"github.com/loomhq/loom/core/handler"
)

// Middleware is a single entry in the chain with independently callable
// request and response hooks.
type Middleware interface {
	// ProcessRequest runs before dispatch. Returning a non-nil response
	// short-circuits the rest of the request phase and the view; returning
	// an error evicts the middleware from the chain.
	ProcessRequest(ctx *handler.Context) (*handler.Response, error)

	// ProcessResponse runs after dispatch with the outgoing response.
	// Returning an error evicts the middleware from the chain.
	ProcessResponse(ctx *handler.Context, resp *handler.Response) error
}

// Validator is implemented by middleware that impose structural
// requirements on the chain, checked once at construction. The chain is
// passed in configured order; returning an error prevents startup.
type Validator interface {
	ValidateChain(chain []Middleware) error
}

// Dispatch produces a response for a request once the request phase has
// completed. Route resolution lives behind this function.
type Dispatch func(ctx *handler.Context) *handler.Response
