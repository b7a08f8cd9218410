package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/nurl-sh/nurl-cli/internal/api"
	"github.com/nurl-sh/nurl-cli/internal/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) (*api.Client, *apitest.Server, *string) {
	t.Helper()

	server := apitest.New()
	t.Cleanup(server.Close)

	token := ""
	client := api.NewClient(server.URL(), &http.Client{Timeout: 5 * time.Second}, func() string { return token }, zap.NewNop())

	return client, server, &token
}

func TestHealth(t *testing.T) {
	t.Run("healthy backend", func(t *testing.T) {
		client, _, _ := newTestClient(t)

		assert.True(t, client.Health(context.Background()))
	})

	t.Run("unhealthy backend", func(t *testing.T) {
		client, server, _ := newTestClient(t)
		server.SetHealthy(false)

		assert.False(t, client.Health(context.Background()))
	})

	t.Run("unreachable backend", func(t *testing.T) {
		client := api.NewClient("http://127.0.0.1:1", nil, func() string { return "" }, zap.NewNop())

		assert.False(t, client.Health(context.Background()))
	})
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials yield a token", func(t *testing.T) {
		client, server, _ := newTestClient(t)
		server.AddUser("alice", "hunter22")

		res := client.Login(context.Background(), "alice", "hunter22", false)

		require.True(t, res.OK())
		assert.NotEmpty(t, res.Data)
	})

	t.Run("wrong password is a server-reported failure", func(t *testing.T) {
		client, server, _ := newTestClient(t)
		server.AddUser("alice", "hunter22")

		res := client.Login(context.Background(), "alice", "wrong", false)

		assert.False(t, res.OK())
		assert.Equal(t, "Invalid username/password", res.Err)
		assert.Empty(t, res.Data)
	})
}

func TestRegister(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client, _, _ := newTestClient(t)

		res := client.Register(context.Background(), "bob", "password1", "password1")

		assert.True(t, res.OK())
	})

	t.Run("mismatched passwords target the confirm field", func(t *testing.T) {
		client, _, _ := newTestClient(t)

		res := client.Register(context.Background(), "bob", "password1", "password2")

		require.False(t, res.OK())
		assert.Equal(t, "confirm_password", res.TargetField)
	})

	t.Run("taken username targets the username field", func(t *testing.T) {
		client, server, _ := newTestClient(t)
		server.AddUser("bob", "whatever")

		res := client.Register(context.Background(), "bob", "password1", "password1")

		require.False(t, res.OK())
		assert.Equal(t, "username", res.TargetField)
	})
}

func TestCheckAuth(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		client, server, token := newTestClient(t)
		server.AddUser("alice", "hunter22")
		*token = server.Token("alice")

		res := client.CheckAuth(context.Background())

		assert.True(t, res.OK())
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		client, _, token := newTestClient(t)
		*token = "garbage"

		res := client.CheckAuth(context.Background())

		require.False(t, res.OK())
		assert.Equal(t, http.StatusUnauthorized, res.Status)
	})

	t.Run("token is read at call time", func(t *testing.T) {
		client, server, token := newTestClient(t)
		server.AddUser("alice", "hunter22")

		require.False(t, client.CheckAuth(context.Background()).OK())

		*token = server.Token("alice")

		assert.True(t, client.CheckAuth(context.Background()).OK())
	})
}

func TestURLOperations(t *testing.T) {
	newAuthedClient := func(t *testing.T) (*api.Client, *apitest.Server) {
		t.Helper()

		client, server, token := newTestClient(t)
		server.AddUser("alice", "hunter22")
		*token = server.Token("alice")

		return client, server
	}

	t.Run("create then list", func(t *testing.T) {
		client, _ := newAuthedClient(t)

		created := client.CreateURL(context.Background(), api.CreatePayload{OriginalURL: "https://example.com/long"})
		require.True(t, created.OK())
		assert.NotEmpty(t, created.Data.ID)
		assert.NotEmpty(t, created.Data.ShortURL)
		assert.Equal(t, "alice", created.Data.Owner)
		assert.Nil(t, created.Data.ExpiryDate)

		listed := client.ListURLs(context.Background())
		require.True(t, listed.OK())
		require.Len(t, listed.Data, 1)
		assert.Equal(t, created.Data.ID, listed.Data[0].ID)
	})

	t.Run("create with custom path and expiration", func(t *testing.T) {
		client, _ := newAuthedClient(t)
		seconds := int64(3600)

		created := client.CreateURL(context.Background(), api.CreatePayload{
			OriginalURL: "https://example.com",
			CustomPath:  "my-link",
			Expiration:  &seconds,
		})

		require.True(t, created.OK())
		assert.Equal(t, "my-link", created.Data.ShortURL)
		require.NotNil(t, created.Data.ExpiryDate)
		assert.WithinDuration(t, time.Now().Add(time.Hour), *created.Data.ExpiryDate, time.Minute)
	})

	t.Run("update replaces the record", func(t *testing.T) {
		client, _ := newAuthedClient(t)

		created := client.CreateURL(context.Background(), api.CreatePayload{OriginalURL: "https://example.com/a"})
		require.True(t, created.OK())

		updated := client.UpdateURL(context.Background(), api.UpdatePayload{
			ID:          created.Data.ID,
			OriginalURL: "https://example.com/b",
		})

		require.True(t, updated.OK())
		assert.Equal(t, created.Data.ID, updated.Data.ID)
		assert.Equal(t, "https://example.com/b", updated.Data.OriginalURL)
	})

	t.Run("delete removes the record", func(t *testing.T) {
		client, server := newAuthedClient(t)

		created := client.CreateURL(context.Background(), api.CreatePayload{OriginalURL: "https://example.com"})
		require.True(t, created.OK())

		res := client.DeleteURL(context.Background(), created.Data.ID)

		require.True(t, res.OK())
		assert.Zero(t, server.URLCount())
	})

	t.Run("delete of unknown id is a server-reported failure", func(t *testing.T) {
		client, _ := newAuthedClient(t)

		res := client.DeleteURL(context.Background(), "nope")

		assert.False(t, res.OK())
		assert.NotEmpty(t, res.Err)
	})

	t.Run("list without token degrades to empty list", func(t *testing.T) {
		client, _, _ := newTestClient(t)

		res := client.ListURLs(context.Background())

		require.False(t, res.OK())
		assert.NotNil(t, res.Data)
		assert.Empty(t, res.Data)
	})

	t.Run("unreachable backend yields the generic transport error", func(t *testing.T) {
		client := api.NewClient("http://127.0.0.1:1", nil, func() string { return "tok" }, zap.NewNop())

		res := client.ListURLs(context.Background())

		require.False(t, res.OK())
		assert.Equal(t, "backend unreachable", res.Err)
		assert.Zero(t, res.Status)
		assert.Empty(t, res.Data)
	})

	t.Run("aborted request resolves like a network failure", func(t *testing.T) {
		client, _ := newAuthedClient(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res := client.ListURLs(ctx)

		require.False(t, res.OK())
		assert.Equal(t, "backend unreachable", res.Err)
		assert.Zero(t, res.Status)
	})
}
