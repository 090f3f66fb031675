// Package testutil provides the per-test isolation fixture for HTTP-level tests.
//
// Each call gives the test its own SQLite file under t.TempDir(), points
// ATTENTION_TRACKER_DB at it, clears DATABASE_URL and the basic-auth
// credentials, initializes the schema, and starts the application behind an
// in-process server:
//
//	func TestSomething(t *testing.T) {
//	    c := testutil.NewClient(t)
//
//	    resp, err := c.Get("/api/items")
//	    ...
//	}
//
// The client is shut down and ATTENTION_TRACKER_DB is unset when the test
// finishes, whether it passed or failed. DATABASE_URL, BASIC_AUTH_USER and
// BASIC_AUTH_PASSWORD are removed but not restored.
//
// # Scoped form
//
// WithClient tears the client down as soon as fn returns:
//
//	testutil.WithClient(t, func(c *testutil.Client) {
//	    ...
//	})
//
// # Concurrency
//
// The fixture changes process environment variables, so tests that use it
// cannot call t.Parallel. This is enforced through t.Setenv.
package testutil
