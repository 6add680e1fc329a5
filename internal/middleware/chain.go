package middleware

import (
	"go-sessiond/internal/message"
	"net/http"
)

// MiddlewareFunc adapts a function to the Middleware interface.
type MiddlewareFunc func(r *http.Request, next Handler) (*message.Response, error)

// Process calls f(r, next).
func (f MiddlewareFunc) Process(r *http.Request, next Handler) (*message.Response, error) {
	return f(r, next)
}

// Chain wraps h in mws. The first middleware is the outermost one and sees
// the request first and the response last.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		mw, next := mws[i], h
		h = HandlerFunc(func(r *http.Request) (*message.Response, error) {
			return mw.Process(r, next)
		})
	}
	return h
}

// NoStore marks successful responses as not cacheable. Pages rendered from
// session data must not be served to another client by a shared cache.
func NoStore() Middleware {
	return MiddlewareFunc(func(r *http.Request, next Handler) (*message.Response, error) {
		resp, err := next.Handle(r)
		if err != nil || resp == nil {
			return resp, err
		}
		if resp.Header == nil {
			resp.Header = make(http.Header)
		}
		resp.Header.Set("Cache-Control", "no-store")
		return resp, nil
	})
}
