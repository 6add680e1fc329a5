package handler

import (
	"go-sessiond/internal/message"
	"go-sessiond/internal/middleware"
	"go-sessiond/internal/session"
	"net/http"
	"strconv"
)

const counterKey = "counter"

// CounterHandler counts the visits of a client in its session.
type CounterHandler struct {
	engine *session.Engine
}

// NewCounterHandler creates a new CounterHandler.
func NewCounterHandler(engine *session.Engine) *CounterHandler {
	return &CounterHandler{engine: engine}
}

// Handle increments the visit counter and returns its new value.
func (h *CounterHandler) Handle(r *http.Request) (*message.Response, error) {
	s, err := h.engine.Start(r.Context())
	if err != nil {
		return nil, err
	}

	counter := s.GetInt(counterKey) + 1
	if err := s.Put(counterKey, counter); err != nil {
		return nil, err
	}

	return message.Text(http.StatusOK, strconv.Itoa(counter)), nil
}

// Reset returns a handler that drops the counter and moves the session to a
// new identifier.
func (h *CounterHandler) Reset() middleware.Handler {
	return middleware.HandlerFunc(h.reset)
}

func (h *CounterHandler) reset(r *http.Request) (*message.Response, error) {
	s, err := h.engine.Start(r.Context())
	if err != nil {
		return nil, err
	}
	if err := s.Remove(counterKey); err != nil {
		return nil, err
	}
	if err := s.Regenerate(); err != nil {
		return nil, &middleware.AppError{Err: err, Message: "Failed to reset session", Code: http.StatusInternalServerError}
	}
	return message.Text(http.StatusOK, "0"), nil
}
