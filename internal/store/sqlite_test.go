//go:build unit

package store

import (
	"context"
	"go-sessiond/internal/config"
	"go-sessiond/internal/session"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSQLite creates a store in a temporary file. An in-memory database
// would give every pooled connection its own empty copy.
func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "sessions.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLiteStoreBackgroundCleanup(t *testing.T) {
	st, err := NewSQLite(filepath.Join(t.TempDir(), "sessions.db"), 10*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.Commit("stale", []byte("x"), time.Now().Add(-time.Second)))
	require.NoError(t, st.Commit("live", []byte("x"), time.Now().Add(time.Hour)))

	// Rows are counted directly so Find's lazy delete plays no part.
	count := func() int {
		var n int
		if err := st.db.Get(&n, `SELECT COUNT(*) FROM sessions`); err != nil {
			return -1
		}
		return n
	}
	assert.Eventually(t, func() bool { return count() == 1 }, 2*time.Second, 10*time.Millisecond)

	var token string
	require.NoError(t, st.db.Get(&token, `SELECT token FROM sessions`))
	assert.Equal(t, "live", token)

	st.StopCleanup()
	st.StopCleanup()
}

func TestSQLiteStore(t *testing.T) {
	st := newTestSQLite(t)

	_, found, err := st.Find("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, st.Commit("tok", []byte("payload"), time.Now().Add(time.Minute)))
	b, found, err := st.Find("tok")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("payload"), b)

	require.NoError(t, st.Commit("tok", []byte("updated"), time.Now().Add(time.Minute)))
	b, _, err = st.Find("tok")
	require.NoError(t, err)
	assert.Equal(t, []byte("updated"), b)

	require.NoError(t, st.Delete("tok"))
	_, found, err = st.Find("tok")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteStoreExpiry(t *testing.T) {
	st := newTestSQLite(t)

	require.NoError(t, st.Commit("old", []byte("x"), time.Now().Add(-time.Second)))
	require.NoError(t, st.Commit("older", []byte("x"), time.Now().Add(-time.Minute)))
	require.NoError(t, st.Commit("live", []byte("x"), time.Now().Add(time.Minute)))

	_, found, err := st.Find("old")
	require.NoError(t, err)
	assert.False(t, found, "expired sessions are not returned")

	n, err := st.DeleteExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "only the remaining expired row is swept")

	_, found, err = st.Find("live")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestSessionsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	st, err := NewSQLite(path, 0)
	require.NoError(t, err)
	engine, err := session.NewEngine(st, session.DefaultCookieParams())
	require.NoError(t, err)

	engine.Begin("")
	s, err := engine.Start(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Put("counter", 7))
	out, err := engine.End(true)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	reopened, err := NewSQLite(path, 0)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })
	engine, err = session.NewEngine(reopened, session.DefaultCookieParams())
	require.NoError(t, err)

	engine.Begin(out.ID)
	s, err = engine.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, out.ID, s.ID())
	assert.Equal(t, 7, s.GetInt("counter"))
	_, err = engine.End(false)
	require.NoError(t, err)
}

func TestNew(t *testing.T) {
	st, closer, err := New(config.StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	require.NotNil(t, st)
	require.NoError(t, closer.Close())

	st, closer, err = New(config.StoreConfig{Driver: "SQLite", DSN: filepath.Join(t.TempDir(), "s.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, st)
	require.NoError(t, closer.Close())

	_, _, err = New(config.StoreConfig{Driver: "etcd"})
	assert.ErrorContains(t, err, `unknown session store driver "etcd"`)
}
