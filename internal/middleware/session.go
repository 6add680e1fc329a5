package middleware

import (
	"errors"
	"go-sessiond/internal/message"
	"go-sessiond/internal/metrics"
	"go-sessiond/internal/session"
	"net/http"
	"sync"
	"time"
)

// ErrHeadersAlreadySent is returned when the response headers went out
// before the session cookie could be attached.
var ErrHeadersAlreadySent = errors.New("middleware: headers already sent, cannot set the session cookie")

// NativeSession supervises the process session slot around a handler. The
// handler decides whether to start a session; NativeSession makes sure it is
// closed afterwards and that the client receives the session cookie.
type NativeSession struct {
	engine  *session.Engine
	headers HeadersState
	now     func() time.Time
}

var _ Middleware = (*NativeSession)(nil)

// NativeSessionOption configures a NativeSession.
type NativeSessionOption func(*NativeSession)

// WithClock replaces the clock used to compute cookie expiry.
func WithClock(now func() time.Time) NativeSessionOption {
	return func(m *NativeSession) {
		m.now = now
	}
}

// NewNativeSession creates the middleware. headers is queried before the
// handler runs and again after it returns.
func NewNativeSession(engine *session.Engine, headers HeadersState, opts ...NativeSessionOption) *NativeSession {
	m := &NativeSession{
		engine:  engine,
		headers: headers,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Exchange is a request that went through the handler. Its response is
// ready, but the session is only written when Finish is called, which must
// happen before the next request is dispatched.
type Exchange struct {
	engine *session.Engine
	resp   *message.Response
	once   sync.Once
	err    error
}

// Response returns the response, including the session cookie if any.
func (x *Exchange) Response() *message.Response {
	return x.resp
}

// Finish writes and closes the session and releases the process slot.
// Calling it more than once returns the first result.
func (x *Exchange) Finish() error {
	x.once.Do(func() {
		_, x.err = x.engine.End(true)
	})
	return x.err
}

// Process runs the handler and closes the session before returning.
func (m *NativeSession) Process(r *http.Request, next Handler) (*message.Response, error) {
	x, err := m.Open(r, next)
	if err != nil {
		return nil, err
	}
	if err := x.Finish(); err != nil {
		return nil, err
	}
	return x.Response(), nil
}

// Open runs the handler and returns the exchange holding its response. If
// the handler fails, the session it started is aborted and the handler's
// error is returned unchanged.
func (m *NativeSession) Open(r *http.Request, next Handler) (*Exchange, error) {
	if m.headers.HeadersSent() {
		metrics.MiddlewareRequests.WithLabelValues("headers_sent").Inc()
		return nil, ErrHeadersAlreadySent
	}

	var incomingID string
	if c, err := r.Cookie(m.engine.CookieParams().Name); err == nil {
		incomingID = c.Value
	}
	m.engine.Begin(incomingID)

	resp, err := m.delegate(r, next)
	if err != nil {
		metrics.MiddlewareRequests.WithLabelValues("handler_error").Inc()
		return nil, err
	}

	x := &Exchange{engine: m.engine, resp: resp}

	// The handler may have streamed part of the response itself.
	if m.headers.HeadersSent() {
		metrics.MiddlewareRequests.WithLabelValues("headers_sent").Inc()
		if err := x.Finish(); err != nil {
			return nil, err
		}
		return nil, ErrHeadersAlreadySent
	}

	if outcome := m.engine.Pending(); outcome.Started {
		cookie := m.engine.CookieParams().Cookie(outcome.ID, m.now())
		message.AppendCookie(resp, cookie)
		metrics.CookiesIssued.Inc()
	}

	metrics.MiddlewareRequests.WithLabelValues("ok").Inc()
	return x, nil
}

// delegate calls the handler. On error or panic the session is aborted and
// the slot released before control leaves this function.
func (m *NativeSession) delegate(r *http.Request, next Handler) (*message.Response, error) {
	completed := false
	defer func() {
		if !completed {
			_, _ = m.engine.End(false)
		}
	}()

	resp, err := next.Handle(r)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		resp = message.New(http.StatusOK, nil)
	}
	completed = true
	return resp, nil
}
