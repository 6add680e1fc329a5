package middleware

import (
	"go-sessiond/internal/message"
	"net/http"
)

// Handler produces a response for a request. It may use the session engine
// while it runs and may fail with any error.
type Handler interface {
	Handle(r *http.Request) (*message.Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(r *http.Request) (*message.Response, error)

// Handle calls f(r).
func (f HandlerFunc) Handle(r *http.Request) (*message.Response, error) {
	return f(r)
}

// Middleware wraps the processing of a request around a Handler.
type Middleware interface {
	Process(r *http.Request, next Handler) (*message.Response, error)
}

// HeadersState reports whether response headers have already been flushed
// to the client for the request being served.
type HeadersState interface {
	HeadersSent() bool
}

// HeadersSentFunc adapts a function to the HeadersState interface.
type HeadersSentFunc func() bool

// HeadersSent calls f().
func (f HeadersSentFunc) HeadersSent() bool {
	return f()
}
