// Package store builds the persistence backend used by the session engine.
package store

import (
	"fmt"
	"go-sessiond/internal/config"
	"io"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// New opens the store selected by cfg.Driver. The returned closer releases
// connections and stops background cleanup.
func New(cfg config.StoreConfig) (scs.Store, io.Closer, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		st := memstore.NewWithCleanupInterval(cfg.CleanupInterval)
		return st, closerFunc(func() error {
			if cfg.CleanupInterval > 0 {
				st.StopCleanup()
			}
			return nil
		}), nil

	case "sqlite":
		st, err := NewSQLite(cfg.DSN, cfg.CleanupInterval)
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil

	case "sqlite3":
		st, closer, err := NewSQLite3(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return st, closerFunc(closer), nil

	case "mysql":
		st, closer, err := NewMySQL(cfg.DSN, cfg.Migrations)
		if err != nil {
			return nil, nil, err
		}
		return st, closerFunc(closer), nil

	case "redis":
		st, err := NewRedis(cfg.DSN, cfg.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil
	}
	return nil, nil, fmt.Errorf("unknown session store driver %q", cfg.Driver)
}
