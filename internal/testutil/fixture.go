package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/pliu/attention-tracker/internal/app"
	"github.com/pliu/attention-tracker/internal/config"
	"github.com/pliu/attention-tracker/internal/database"
)

// DBFileName is the database file created inside each test directory.
const DBFileName = "test.db"

// clearedVars are removed for the duration of a test and not restored.
var clearedVars = []string{
	config.EnvBasicAuthUser,
	config.EnvBasicAuthPassword,
	config.EnvDatabaseURL,
}

// Env is an isolated application environment rooted at one directory.
type Env struct {
	DBPath string
	Client *Client
}

// Setup points the process environment at dir/test.db, initializes the
// store and returns a started client. On error the database variable has
// already been unset. Callers must not run two Envs at the same time.
func Setup(dir string, logger *log.Logger) (env *Env, err error) {
	dbPath := filepath.Join(dir, DBFileName)
	if err := os.Setenv(config.EnvDBPath, dbPath); err != nil {
		return nil, fmt.Errorf("setting %s: %w", config.EnvDBPath, err)
	}
	defer func() {
		if err != nil {
			os.Unsetenv(config.EnvDBPath)
		}
	}()

	for _, k := range clearedVars {
		if err := os.Unsetenv(k); err != nil {
			return nil, fmt.Errorf("unsetting %s: %w", k, err)
		}
	}

	if err := database.Init(); err != nil {
		return nil, fmt.Errorf("initializing test database: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("building app: %w", err)
	}

	client, err := Open(a)
	if err != nil {
		return nil, err
	}
	client.dbPath = dbPath

	return &Env{DBPath: dbPath, Client: client}, nil
}

// Teardown shuts the client down and unsets the database variable. The
// variable is unset even if shutdown fails.
func (e *Env) Teardown() error {
	defer os.Unsetenv(config.EnvDBPath)
	return e.Client.Close()
}

// NewClient returns a started client backed by a fresh database for this
// test. Everything is released through t.Cleanup.
func NewClient(t testing.TB) *Client {
	t.Helper()

	guardEnv(t)

	env, err := Setup(t.TempDir(), TestLogger(t))
	if err != nil {
		t.Fatalf("testutil: %v", err)
	}
	t.Cleanup(func() {
		if err := env.Teardown(); err != nil {
			t.Errorf("testutil: teardown: %v", err)
		}
	})
	return env.Client
}

// WithClient runs fn with a client that is torn down as soon as fn returns.
func WithClient(t testing.TB, fn func(c *Client)) {
	t.Helper()
	if fn == nil {
		t.Fatalf("WithClient: fn is required")
	}

	guardEnv(t)

	env, err := Setup(t.TempDir(), TestLogger(t))
	if err != nil {
		t.Fatalf("testutil: %v", err)
	}
	defer func() {
		if err := env.Teardown(); err != nil {
			t.Errorf("testutil: teardown: %v", err)
		}
	}()

	fn(env.Client)
}

// guardEnv marks t as mutating the environment, which makes t.Parallel panic,
// and makes sure the database variable ends up unset once t is done.
func guardEnv(t testing.TB) {
	t.Helper()

	// Registered before t.Setenv so it runs after t.Setenv's restore.
	t.Cleanup(func() { os.Unsetenv(config.EnvDBPath) })
	t.Setenv(config.EnvDBPath, os.Getenv(config.EnvDBPath))
}
