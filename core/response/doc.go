// Package response provides constructors for buffered HTTP responses.
//
// Each constructor returns a *handler.Response describing status, content
// type, and body. Responses are written to the wire by the gateway after
// the middleware pipeline's response phase completes.
//
//	func hello(ctx *handler.Context) *handler.Response {
//		return response.Text(http.StatusOK, "hello")
//	}
package response
