//go:build unit

package handler

import (
	"go-sessiond/internal/logger"
	"go-sessiond/internal/session"
	"go-sessiond/internal/worker"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	server *httptest.Server
	engine *session.Engine
}

func setupTest(t *testing.T) *testApp {
	t.Helper()
	engine, err := session.NewEngine(memstore.NewWithCleanupInterval(0), session.DefaultCookieParams())
	require.NoError(t, err)

	wk := worker.New(engine, logger.Nop())
	router := NewRouter(wk, NewCounterHandler(engine))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{server: server, engine: engine}
}

// newClient returns a client with its own cookie jar, i.e. a browser.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func do(t *testing.T, c *http.Client, method, url string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestCounterAcrossClients(t *testing.T) {
	app := setupTest(t)
	browser := newClient(t)

	resp, body := do(t, browser, http.MethodGet, app.server.URL+"/counter")
	assert.Equal(t, "1", body)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	_, body = do(t, browser, http.MethodGet, app.server.URL+"/counter")
	assert.Equal(t, "2", body)

	other := newClient(t)
	_, body = do(t, other, http.MethodGet, app.server.URL+"/counter")
	assert.Equal(t, "1", body, "a new client starts from scratch")

	_, body = do(t, browser, http.MethodGet, app.server.URL+"/counter")
	assert.Equal(t, "3", body)

	assert.Equal(t, session.StatusNone, app.engine.Status())
}

func TestCounterReset(t *testing.T) {
	app := setupTest(t)
	browser := newClient(t)

	first, _ := do(t, browser, http.MethodGet, app.server.URL+"/counter")
	do(t, browser, http.MethodGet, app.server.URL+"/counter")

	reset, body := do(t, browser, http.MethodPost, app.server.URL+"/counter/reset")
	assert.Equal(t, http.StatusOK, reset.StatusCode)
	assert.Equal(t, "0", body)
	require.NotEmpty(t, first.Cookies())
	require.NotEmpty(t, reset.Cookies())
	assert.NotEqual(t, first.Cookies()[0].Value, reset.Cookies()[0].Value, "reset moves the session to a new ID")

	_, body = do(t, browser, http.MethodGet, app.server.URL+"/counter")
	assert.Equal(t, "1", body)
}

func TestOperationalRoutesDoNotTouchSessions(t *testing.T) {
	app := setupTest(t)
	c := newClient(t)

	resp, body := do(t, c, http.MethodGet, app.server.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
	assert.Empty(t, resp.Cookies())

	resp, body = do(t, c, http.MethodGet, app.server.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "sessiond_session_slot_active")
	assert.Empty(t, resp.Cookies())
}
