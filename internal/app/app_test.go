package app_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pliu/attention-tracker/internal/app"
	"github.com/pliu/attention-tracker/internal/config"
	"github.com/pliu/attention-tracker/internal/database"
	"github.com/pliu/attention-tracker/internal/models"
	"github.com/pliu/attention-tracker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestItemLifecycle(t *testing.T) {
	c := testutil.NewClient(t)

	resp, err := c.PostJSON("/api/items", map[string]any{"title": "Follow up with Dana", "priority": 5})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[models.Item](t, resp)

	path := "/api/items/" + strconv.FormatInt(created.ID, 10)

	resp, err = c.Get(path)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[models.Item](t, resp)
	assert.Equal(t, "Follow up with Dana", got.Title)
	assert.Equal(t, 5, got.Priority)

	resp, err = c.PatchJSON(path, map[string]any{"status": models.StatusDone})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[models.Item](t, resp)
	assert.Equal(t, models.StatusDone, updated.Status)

	resp, err = c.Get("/api/items?status=open")
	require.NoError(t, err)
	assert.Empty(t, decode[[]models.Item](t, resp))

	resp, err = c.Delete(path)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = c.Get(path)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnknownMethodRejected(t *testing.T) {
	c := testutil.NewClient(t)

	req, err := http.NewRequest(http.MethodPut, c.URL("/api/items"), nil)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestEventsStream(t *testing.T) {
	c := testutil.NewClient(t)

	conn, _, err := websocket.DefaultDialer.Dial(c.WebSocketURL("/ws"), nil)
	require.NoError(t, err)
	defer conn.Close()

	// The subscription is registered asynchronously; keep creating until one arrives.
	events := make(chan models.Event, 1)
	go func() {
		var ev models.Event
		if err := conn.ReadJSON(&ev); err == nil {
			events <- ev
		}
	}()

	deadline := time.After(3 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case ev := <-events:
			assert.Equal(t, models.EventItemCreated, ev.Type)
			assert.Equal(t, "ping", ev.Item.Title)
			return
		case <-tick.C:
			resp, err := c.PostJSON("/api/items", map[string]any{"title": "ping"})
			require.NoError(t, err)
			resp.Body.Close()
		case <-deadline:
			t.Fatal("no event received")
		}
	}
}

func TestBasicAuthEnforcedWhenConfigured(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.db")
	cfg := &config.Config{DBPath: path, BasicAuthUser: "admin", BasicAuthPassword: "secret"}
	require.NoError(t, database.InitWith(cfg))

	a, err := app.New(cfg, testutil.TestLogger(t))
	require.NoError(t, err)
	c, err := testutil.Open(a)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	resp, err := c.Get("/api/items")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "Basic")

	req, err := http.NewRequest(http.MethodGet, c.URL("/api/items"), nil)
	require.NoError(t, err)
	req.SetBasicAuth("admin", "secret")
	resp, err = c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Health checks stay open.
	resp, err = c.Get("/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "life.db")
	cfg := &config.Config{DBPath: path}
	require.NoError(t, database.InitWith(cfg))

	a, err := app.New(cfg, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, a.Start(ctx))
	assert.Error(t, a.Start(ctx), "second start is rejected")

	require.NoError(t, a.Shutdown(ctx))
	assert.NoError(t, a.Shutdown(ctx), "second shutdown is a no-op")
	assert.Error(t, a.Start(ctx), "cannot restart after shutdown")
}

func TestServe_FailedStartReleasesStore(t *testing.T) {
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "serve.db")}
	require.NoError(t, database.InitWith(cfg))

	a, err := app.New(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, a.Serve(ctx, "127.0.0.1:0"))

	err = a.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shut down", "Serve should shut the app down when startup fails")
}

func TestShutdownWithoutStart(t *testing.T) {
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "idle.db")}
	require.NoError(t, database.InitWith(cfg))

	a, err := app.New(cfg, nil)
	require.NoError(t, err)
	assert.NoError(t, a.Shutdown(context.Background()))
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := app.New(nil, nil)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	_, err := app.NewLogger(io.Discard, "debug")
	assert.NoError(t, err)
	_, err = app.NewLogger(io.Discard, "loud")
	assert.Error(t, err)
}
