package response

import (
	"encoding/json"
	"net/http"

	"github.com/loomhq/loom/core/handler"
)

// Text creates a plain-text response.
func Text(status int, body string) *handler.Response {
	resp := handler.NewResponse(status)
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Body = []byte(body)
	return resp
}

// HTML creates an HTML response.
func HTML(status int, body string) *handler.Response {
	resp := handler.NewResponse(status)
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	resp.Body = []byte(body)
	return resp
}

// JSON creates a JSON response by marshaling v. Marshal failures degrade
// to a 500 with a fixed body rather than a partial response.
func JSON(status int, v any) *handler.Response {
	body, err := json.Marshal(v)
	if err != nil {
		return Error(http.StatusInternalServerError, "failed to encode response")
	}

	resp := handler.NewResponse(status)
	resp.Header.Set("Content-Type", "application/json; charset=utf-8")
	resp.Body = body
	return resp
}

// Error creates a plain-text error response with a deterministic body.
func Error(status int, message string) *handler.Response {
	if message == "" {
		message = http.StatusText(status)
	}
	return Text(status, message)
}

// NotFound creates the default 404 response.
func NotFound() *handler.Response {
	return Error(http.StatusNotFound, "404 page not found")
}

// MethodNotAllowed creates the default 405 response.
func MethodNotAllowed() *handler.Response {
	return Error(http.StatusMethodNotAllowed, "405 method not allowed")
}
