package session

import (
	"context"
	"fmt"
	"go-sessiond/internal/metrics"
	"regexp"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
)

// Status reports whether a session occupies the process slot.
type Status int

const (
	StatusNone Status = iota
	StatusActive
)

func (s Status) String() string {
	if s == StatusActive {
		return "active"
	}
	return "none"
}

// validID matches identifiers the engine is willing to resume. Anything else
// coming from a client cookie is ignored and a fresh session is allocated.
var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Outcome describes what happened to the session during one request scope.
type Outcome struct {
	// Started is true when a handler opened a session inside the scope, even
	// if it closed it again before the scope ended.
	Started bool
	// ID is the session identifier current when the session was last seen.
	ID string
}

// Engine owns the process-wide session slot. At most one session is active
// at any time; the worker serving requests is expected to be single-flight.
type Engine struct {
	mu      sync.Mutex
	manager *scs.SessionManager
	params  CookieParams
	scope   *scope
	active  *Session
}

type scope struct {
	incomingID string
	started    bool
	lastID     string
}

// Option configures an Engine.
type Option func(*Engine)

// WithIdleTimeout sets how long stored session data survives without being
// written again.
func WithIdleTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.manager.IdleTimeout = d
	}
}

// WithMaxLifetime sets the absolute lifetime of stored session data.
func WithMaxLifetime(d time.Duration) Option {
	return func(e *Engine) {
		e.manager.Lifetime = d
	}
}

// NewEngine creates an engine persisting session data in store.
func NewEngine(store scs.Store, params CookieParams, opts ...Option) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	manager := scs.New()
	manager.Store = store
	manager.Lifetime = 24 * time.Hour
	manager.IdleTimeout = 1440 * time.Second

	e := &Engine{manager: manager, params: params}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// CookieParams returns the cookie configuration currently in effect.
func (e *Engine) CookieParams() CookieParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// SetCookieParams replaces the cookie configuration. The next cookie written
// uses the new values.
func (e *Engine) SetCookieParams(p CookieParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params = p
	return nil
}

// Status reports whether a session is active.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		return StatusActive
	}
	return StatusNone
}

// Begin opens the request scope. incomingID is the session cookie sent by
// the client, or empty. Begin panics if the slot is still held: a session
// left open by a previous request must never be silently taken over.
func (e *Engine) Begin(incomingID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scope != nil || e.active != nil {
		panic("session: process slot still held by a previous request")
	}
	e.scope = &scope{incomingID: incomingID}
}

// Pending reports the outcome of the open request scope so far.
func (e *Engine) Pending() Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scope == nil {
		return Outcome{}
	}
	if e.active != nil {
		e.scope.lastID = e.active.id()
	}
	return Outcome{Started: e.scope.started, ID: e.scope.lastID}
}

// End closes the request scope. With persist set an active session is
// written and closed, otherwise it is aborted. The slot is released in both
// cases, even when writing fails.
func (e *Engine) End(persist bool) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	if e.active != nil {
		if persist {
			err = e.writeCloseLocked()
		} else {
			e.abortLocked()
		}
	}

	sc := e.scope
	e.scope = nil
	if sc == nil {
		return Outcome{}, err
	}
	return Outcome{Started: sc.started, ID: sc.lastID}, err
}

// Start resumes the session named by the request cookie, or allocates a new
// one when there is no cookie, the ID is malformed, or the store no longer
// knows it. If a session is already active it is returned as is.
func (e *Engine) Start(ctx context.Context) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		return e.active, nil
	}

	// A session written earlier in the same scope is picked up again
	// instead of the one named by the request cookie.
	var token string
	if e.scope != nil {
		token = e.scope.incomingID
		if e.scope.lastID != "" {
			token = e.scope.lastID
		}
		if !validID.MatchString(token) {
			token = ""
		}
	}

	sctx, err := e.manager.Load(ctx, token)
	if err != nil {
		return nil, err
	}

	kind := "resumed"
	if e.manager.Token(sctx) == "" {
		if err := e.manager.RenewToken(sctx); err != nil {
			return nil, err
		}
		kind = "fresh"
	}

	s := &Session{engine: e, base: ctx, ctx: sctx}
	e.active = s
	if e.scope != nil {
		e.scope.started = true
		e.scope.lastID = s.id()
	}

	metrics.SessionsStarted.WithLabelValues(kind).Inc()
	metrics.SlotActive.Set(1)
	return s, nil
}

// Current returns the active session.
func (e *Engine) Current() (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active, e.active != nil
}

// WriteClose persists the active session and releases the slot.
func (e *Engine) WriteClose() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return ErrNotActive
	}
	return e.writeCloseLocked()
}

// Abort discards changes made to the active session and releases the slot.
// Data already persisted for a resumed session stays in the store.
func (e *Engine) Abort() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return ErrNotActive
	}
	e.abortLocked()
	return nil
}

func (e *Engine) writeCloseLocked() error {
	s := e.release()
	id, _, err := e.manager.Commit(s.ctx)
	if err != nil {
		return err
	}
	if e.scope != nil {
		e.scope.lastID = id
	}
	if s.replaced != "" && s.replaced != id {
		if err := e.deleteStored(s.base, s.replaced); err != nil {
			return fmt.Errorf("failed to delete replaced session: %w", err)
		}
	}
	metrics.SessionsClosed.WithLabelValues("written").Inc()
	return nil
}

func (e *Engine) abortLocked() {
	e.release()
	metrics.SessionsClosed.WithLabelValues("aborted").Inc()
}

func (e *Engine) release() *Session {
	s := e.active
	if e.scope != nil {
		e.scope.lastID = s.id()
	}
	s.closed.Store(true)
	e.active = nil
	metrics.SlotActive.Set(0)
	return s
}

// regenerate copies the data of s into a session with a new identifier.
// The record under the old identifier is only deleted once the new one has
// been committed, so an aborted request leaves it intact.
func (e *Engine) regenerate(s *Session) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	fresh, err := e.manager.Load(s.base, "")
	if err != nil {
		return err
	}
	if err := e.manager.RenewToken(fresh); err != nil {
		return err
	}
	for _, key := range e.manager.Keys(s.ctx) {
		e.manager.Put(fresh, key, e.manager.Get(s.ctx, key))
	}

	if s.replaced == "" {
		s.replaced = s.id()
	}
	s.ctx = fresh
	if e.scope != nil {
		e.scope.lastID = s.id()
	}
	return nil
}

func (e *Engine) deleteStored(ctx context.Context, token string) error {
	if cs, ok := e.manager.Store.(scs.CtxStore); ok {
		return cs.DeleteCtx(ctx, token)
	}
	return e.manager.Store.Delete(token)
}
