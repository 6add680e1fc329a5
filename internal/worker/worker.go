// Package worker serves HTTP requests one at a time through the session
// middleware, so that the process session slot is never shared.
package worker

import (
	"context"
	"go-sessiond/internal/logger"
	"go-sessiond/internal/message"
	"go-sessiond/internal/metrics"
	"go-sessiond/internal/middleware"
	"go-sessiond/internal/session"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

type writerKey struct{}

// ResponseWriter returns the raw writer of the request being dispatched.
// Handlers that stream through it flush the headers early, after which the
// session cookie can no longer be attached.
func ResponseWriter(ctx context.Context) (http.ResponseWriter, bool) {
	w, ok := ctx.Value(writerKey{}).(http.ResponseWriter)
	return w, ok
}

// Worker dispatches requests sequentially.
type Worker struct {
	mu      sync.Mutex
	engine  *session.Engine
	output  *Output
	session *middleware.NativeSession
	log     logger.Logger
}

// New creates a worker supervising sessions of engine.
func New(engine *session.Engine, log logger.Logger, opts ...middleware.NativeSessionOption) *Worker {
	output := &Output{}
	return &Worker{
		engine:  engine,
		output:  output,
		session: middleware.NewNativeSession(engine, output, opts...),
		log:     log,
	}
}

// Wrap returns an http.Handler running h inside the session middleware.
// mws run inside the session scope, in the order given.
func (wk *Worker) Wrap(h middleware.Handler, mws ...middleware.Middleware) http.Handler {
	h = middleware.Chain(h, mws...)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wk.dispatch(w, r, h)
	})
}

func (wk *Worker) dispatch(w http.ResponseWriter, r *http.Request, h middleware.Handler) {
	wk.mu.Lock()
	defer wk.mu.Unlock()

	start := time.Now()
	log := wk.log.With(map[string]interface{}{
		"dispatch_id": uuid.NewString(),
		"method":      r.Method,
		"path":        r.URL.Path,
	})
	defer func() {
		metrics.DispatchDuration.Observe(time.Since(start).Seconds())
		wk.checkResting(log)
	}()

	wk.output.reset()
	tw := &trackingWriter{ResponseWriter: w, output: wk.output}
	r = r.WithContext(context.WithValue(r.Context(), writerKey{}, http.ResponseWriter(tw)))

	x, err := wk.session.Open(r, h)
	if err != nil {
		resp := middleware.Error(log, err)
		if wk.output.HeadersSent() {
			return
		}
		if err := message.Write(tw, resp); err != nil {
			log.Error(err, "Failed to write error response")
		}
		return
	}

	// The session is persisted before the client sees its cookie.
	resp := x.Response()
	if err := x.Finish(); err != nil {
		resp = middleware.Error(log, err)
	}
	if err := message.Write(tw, resp); err != nil {
		log.Error(err, "Failed to write response")
	}
	log.Debug("Request dispatched")
}

// checkResting makes sure no session survives the request that opened it.
func (wk *Worker) checkResting(log logger.Logger) {
	if wk.engine.Status() == session.StatusNone {
		return
	}
	log.Warn("Session still active after dispatch, aborting it")
	_ = wk.engine.Abort()
}
