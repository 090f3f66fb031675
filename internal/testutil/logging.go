package testutil

import (
	"io"
	"os"
	"testing"

	"github.com/charmbracelet/log"
)

const defaultLogPrefix = "attention-tracker"

// TestLogger returns a logger prefixed with the test name. Output is
// discarded unless `go test -v` is used.
func TestLogger(t testing.TB) *log.Logger {
	t.Helper()

	var out io.Writer = io.Discard
	if testing.Verbose() {
		out = os.Stderr
	}

	prefix := t.Name()
	if prefix == "" {
		prefix = defaultLogPrefix
	}

	return log.NewWithOptions(out, log.Options{
		Level:  log.DebugLevel,
		Prefix: prefix,
	})
}
