package session

import (
	"context"
	"sync/atomic"
)

// Session is the data of the active session. It is only usable between
// Engine.Start and the moment the session is written or aborted; after that
// reads return zero values and writes return ErrSessionClosed.
type Session struct {
	engine *Engine
	base   context.Context
	ctx    context.Context
	closed atomic.Bool

	// replaced is the identifier the session had before the first
	// Regenerate, deleted from the store when the session is written.
	replaced string
}

// ID returns the current session identifier.
func (s *Session) ID() string {
	return s.id()
}

func (s *Session) id() string {
	return s.engine.manager.Token(s.ctx)
}

// Closed reports whether the session has been written or aborted.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Get returns the value stored under key, or nil.
func (s *Session) Get(key string) any {
	if s.closed.Load() {
		return nil
	}
	return s.engine.manager.Get(s.ctx, key)
}

// GetInt returns the int stored under key, or 0.
func (s *Session) GetInt(key string) int {
	if s.closed.Load() {
		return 0
	}
	return s.engine.manager.GetInt(s.ctx, key)
}

// GetString returns the string stored under key, or "".
func (s *Session) GetString(key string) string {
	if s.closed.Load() {
		return ""
	}
	return s.engine.manager.GetString(s.ctx, key)
}

// GetBool returns the bool stored under key, or false.
func (s *Session) GetBool(key string) bool {
	if s.closed.Load() {
		return false
	}
	return s.engine.manager.GetBool(s.ctx, key)
}

// Exists reports whether key is set.
func (s *Session) Exists(key string) bool {
	if s.closed.Load() {
		return false
	}
	return s.engine.manager.Exists(s.ctx, key)
}

// Keys returns all keys in sorted order.
func (s *Session) Keys() []string {
	if s.closed.Load() {
		return nil
	}
	return s.engine.manager.Keys(s.ctx)
}

// Put stores val under key. Values must be gob-encodable; custom types need
// to be registered with gob.Register.
func (s *Session) Put(key string, val any) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	s.engine.manager.Put(s.ctx, key, val)
	return nil
}

// Pop returns the value stored under key and removes it.
func (s *Session) Pop(key string) any {
	if s.closed.Load() {
		return nil
	}
	return s.engine.manager.Pop(s.ctx, key)
}

// Remove deletes key.
func (s *Session) Remove(key string) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	s.engine.manager.Remove(s.ctx, key)
	return nil
}

// Clear deletes every key.
func (s *Session) Clear() error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return s.engine.manager.Clear(s.ctx)
}

// Regenerate moves the session data to a new identifier. The record
// stored under the old identifier is deleted when the session is written;
// if the request fails instead, it is left as it was.
func (s *Session) Regenerate() error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return s.engine.regenerate(s)
}
