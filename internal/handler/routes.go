package handler

import (
	"go-sessiond/internal/metrics"
	sessionmw "go-sessiond/internal/middleware"
	"go-sessiond/internal/worker"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures a new chi router. Routes that may touch
// the session are dispatched through the worker.
func NewRouter(wk *worker.Worker, counterHandler *CounterHandler) *chi.Mux {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Operational routes never open a session.
	r.Get("/healthz", healthHandler)
	r.Handle("/metrics", metrics.Handler())

	r.Method(http.MethodGet, "/counter", wk.Wrap(counterHandler, sessionmw.NoStore()))
	r.Method(http.MethodPost, "/counter/reset", wk.Wrap(counterHandler.Reset(), sessionmw.NoStore()))

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
