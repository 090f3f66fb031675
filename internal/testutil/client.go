package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/pliu/attention-tracker/internal/app"
)

const shutdownTimeout = 5 * time.Second

// Client issues requests against an application running on an in-process server.
type Client struct {
	app    *app.App
	server *httptest.Server
	dbPath string

	closeOnce sync.Once
	closeErr  error
}

// Open runs the application's startup and serves it on a local listener.
func Open(a *app.App) (*Client, error) {
	if err := a.Start(context.Background()); err != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.Shutdown(ctx)
		return nil, fmt.Errorf("starting app: %w", err)
	}
	return &Client{app: a, server: httptest.NewServer(a.Handler())}, nil
}

// Close stops the server and runs the application's shutdown. Safe to call twice.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		c.closeErr = c.app.Shutdown(ctx)
	})
	return c.closeErr
}

func (c *Client) App() *app.App { return c.app }

// DBPath is the database file this client's application uses.
func (c *Client) DBPath() string { return c.dbPath }

// URL returns the absolute URL for path.
func (c *Client) URL(path string) string {
	return c.server.URL + path
}

// WebSocketURL returns the ws:// URL for path.
func (c *Client) WebSocketURL(path string) string {
	return "ws" + strings.TrimPrefix(c.server.URL, "http") + path
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.server.Client().Do(req)
}

func (c *Client) Get(path string) (*http.Response, error) {
	return c.request(http.MethodGet, path, "", nil)
}

func (c *Client) Post(path, contentType string, body io.Reader) (*http.Response, error) {
	return c.request(http.MethodPost, path, contentType, body)
}

func (c *Client) PostJSON(path string, v any) (*http.Response, error) {
	return c.sendJSON(http.MethodPost, path, v)
}

func (c *Client) PatchJSON(path string, v any) (*http.Response, error) {
	return c.sendJSON(http.MethodPatch, path, v)
}

func (c *Client) Delete(path string) (*http.Response, error) {
	return c.request(http.MethodDelete, path, "", nil)
}

func (c *Client) sendJSON(method, path string, v any) (*http.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	return c.request(method, path, "application/json", bytes.NewReader(body))
}

func (c *Client) request(method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, c.URL(path), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.Do(req)
}
