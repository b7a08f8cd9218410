package cli_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurl-sh/nurl-cli/internal/apitest"
	"github.com/nurl-sh/nurl-cli/internal/cli"
)

// run executes one command against a fresh root, the way a user would
// invoke the binary.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := cli.New()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}

func TestCommands(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	server.AddUser("alice", "hunter22")

	t.Setenv("NURL_BACKEND_URL", server.URL())
	t.Setenv("NURL_STATE_DIR", t.TempDir())

	t.Run("status before sign-in", func(t *testing.T) {
		out, err := run(t, "", "status")

		require.NoError(t, err)
		assert.Contains(t, out, "health:   up")
		assert.Contains(t, out, "session:  unauthenticated")
	})

	t.Run("list requires a session", func(t *testing.T) {
		_, err := run(t, "", "list")

		assert.ErrorIs(t, err, cli.ErrNotSignedIn)
	})

	t.Run("login rejects bad credentials", func(t *testing.T) {
		_, err := run(t, "", "login", "-u", "alice", "-p", "wrong")

		assert.ErrorContains(t, err, "Invalid username/password")
	})

	t.Run("login stores the session", func(t *testing.T) {
		out, err := run(t, "", "login", "-u", "alice", "-p", "hunter22")

		require.NoError(t, err)
		assert.Contains(t, out, "signed in as alice")
	})

	t.Run("whoami reads the stored token", func(t *testing.T) {
		out, err := run(t, "", "whoami")

		require.NoError(t, err)
		assert.Contains(t, out, "username: alice")
	})

	t.Run("create and list", func(t *testing.T) {
		out, err := run(t, "", "create", "https://example.com/a", "--path", "mylink")
		require.NoError(t, err)
		assert.Contains(t, out, "mylink -> https://example.com/a")

		out, err = run(t, "", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "mylink")
		assert.Contains(t, out, "https://example.com/a")
	})

	t.Run("duplicate cancelled leaves one entry", func(t *testing.T) {
		out, err := run(t, "c\n", "create", "https://example.com/a")

		require.NoError(t, err)
		assert.Contains(t, out, "already shortened as mylink")
		assert.Contains(t, out, "cancelled")
		assert.Equal(t, 1, server.URLCount())
	})

	t.Run("duplicate added anyway creates a second entry", func(t *testing.T) {
		out, err := run(t, "a\n", "create", "https://example.com/a", "--path", "second")

		require.NoError(t, err)
		assert.Contains(t, out, "second -> https://example.com/a")
		assert.Equal(t, 2, server.URLCount())
	})

	t.Run("duplicate replaced updates in place", func(t *testing.T) {
		out, err := run(t, "r\n", "create", "https://example.com/a", "--path", "renamed")

		require.NoError(t, err)
		assert.Contains(t, out, "renamed -> https://example.com/a")
		assert.Equal(t, 2, server.URLCount())
	})

	t.Run("invalid expiration flag fails before any request", func(t *testing.T) {
		_, err := run(t, "", "create", "https://example.com/c", "--expires-preset", "48h")

		assert.ErrorContains(t, err, "--expires-preset")
		assert.Equal(t, 2, server.URLCount())
	})

	t.Run("theme round trip", func(t *testing.T) {
		_, err := run(t, "", "theme", "set", "dark")
		require.NoError(t, err)

		out, err := run(t, "", "theme", "get")
		require.NoError(t, err)
		assert.Equal(t, "dark\n", out)
	})

	t.Run("logout clears the session", func(t *testing.T) {
		out, err := run(t, "", "logout")
		require.NoError(t, err)
		assert.Contains(t, out, "signed out")

		_, err = run(t, "", "whoami")
		assert.ErrorIs(t, err, cli.ErrNotSignedIn)
	})

	t.Run("backend down fails fast", func(t *testing.T) {
		server.SetHealthy(false)
		defer server.SetHealthy(true)

		_, err := run(t, "", "login", "-u", "alice", "-p", "hunter22")

		assert.ErrorIs(t, err, cli.ErrBackendUnreachable)
	})
}
