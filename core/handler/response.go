package handler

import "net/http"

// Response is a buffered response descriptor. It accumulates status,
// headers, cookies, and body during dispatch and the pipeline's response
// phase, and is written to the wire once at the gateway boundary.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	cookies []*http.Cookie
}

// NewResponse creates an empty response with the given status code.
func NewResponse(status int) *Response {
	return &Response{
		StatusCode: status,
		Header:     make(http.Header),
	}
}

// SetCookie queues a cookie for the outgoing response. A later cookie with
// the same name replaces an earlier one.
func (r *Response) SetCookie(cookie *http.Cookie) {
	for i, c := range r.cookies {
		if c.Name == cookie.Name {
			r.cookies[i] = cookie
			return
		}
	}
	r.cookies = append(r.cookies, cookie)
}

// Cookies returns the cookies queued for the response.
func (r *Response) Cookies() []*http.Cookie {
	return r.cookies
}

// Write sends the buffered response to the wire.
func (r *Response) Write(w http.ResponseWriter) error {
	h := w.Header()
	for key, vals := range r.Header {
		for _, v := range vals {
			h.Add(key, v)
		}
	}
	for _, c := range r.cookies {
		http.SetCookie(w, c)
	}

	status := r.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	_, err := w.Write(r.Body)
	return err
}

// HandlerFunc is a view function producing a buffered response.
type HandlerFunc func(ctx *Context) *Response
