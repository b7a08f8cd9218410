// Package api is the single channel to the nurl backend: a thin REST
// client that attaches the bearer token at call time and folds every
// transport or server failure into a uniform result envelope. Calls
// never fail with a Go error; callers branch on the envelope.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// TokenSource yields the bearer token to attach to authenticated calls.
// It is consulted on every call because the token can change between
// calls.
type TokenSource func() string

// transportErrMsg is the generic message transport failures degrade to.
const transportErrMsg = "backend unreachable"

// Result is the uniform envelope every call resolves to.
type Result[T any] struct {
	// Data holds the typed payload on success and a safe default on
	// failure.
	Data T
	// Err is the failure message, empty on success.
	Err string
	// TargetField names the form field a validation error applies to,
	// when the backend identifies one.
	TargetField string
	// Status is the HTTP status code of the response, 0 when the
	// request never completed (network failure, timeout, abort).
	Status int
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.Err == ""
}

// Client calls the nurl REST API.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
	logger  *zap.Logger
}

// NewClient creates a client for the backend at baseURL. token supplies
// the bearer token for authenticated calls; httpClient is the
// transport, treated as a black box.
func NewClient(baseURL string, httpClient *http.Client, token TokenSource, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		token:   token,
		logger:  logger,
	}
}

// Health reports whether the backend answers its health endpoint. Any
// transport failure or non-2xx status counts as down.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("health check failed", zap.Error(err))
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// CheckAuth validates the current session token against the backend.
func (c *Client) CheckAuth(ctx context.Context) Result[struct{}] {
	return call[struct{}](c, ctx, http.MethodGet, "/api/auth", nil, true)
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string, rememberMe bool) Result[string] {
	body := loginRequest{Username: username, Password: password, RememberMe: rememberMe}
	res := call[tokenResponse](c, ctx, http.MethodPost, "/api/auth", body, false)

	return Result[string]{
		Data:        res.Data.Token,
		Err:         res.Err,
		TargetField: res.TargetField,
		Status:      res.Status,
	}
}

// Register creates a new account. Field-targeted validation failures
// carry the offending field in TargetField.
func (c *Client) Register(ctx context.Context, username, password, confirmPassword string) Result[struct{}] {
	body := registerRequest{Username: username, Password: password, ConfirmPassword: confirmPassword}

	return call[struct{}](c, ctx, http.MethodPost, "/api/register", body, false)
}

// ListURLs fetches the signed-in user's shortened URLs. On failure the
// data defaults to an empty list.
func (c *Client) ListURLs(ctx context.Context) Result[[]ShortURL] {
	res := call[[]ShortURL](c, ctx, http.MethodGet, "/api/shorten", nil, true)
	if res.Data == nil {
		res.Data = []ShortURL{}
	}

	return res
}

// CreateURL creates a shortened URL.
func (c *Client) CreateURL(ctx context.Context, payload CreatePayload) Result[ShortURL] {
	return call[ShortURL](c, ctx, http.MethodPost, "/api/shorten", payload, true)
}

// UpdateURL updates an existing shortened URL.
func (c *Client) UpdateURL(ctx context.Context, payload UpdatePayload) Result[ShortURL] {
	return call[ShortURL](c, ctx, http.MethodPut, "/api/shorten", payload, true)
}

// DeleteURL deletes the shortened URL with the given id.
func (c *Client) DeleteURL(ctx context.Context, id string) Result[struct{}] {
	return call[struct{}](c, ctx, http.MethodDelete, "/api/shorten/"+id, nil, true)
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Error *string         `json:"error"`
	Data  json.RawMessage `json:"data"`
}

func call[T any](c *Client, ctx context.Context, method, path string, body any, authed bool) Result[T] {
	var out Result[T]

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			out.Err = fmt.Sprintf("encode request: %v", err)
			return out
		}

		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		out.Err = transportErrMsg
		return out
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Aborted and timed-out requests resolve here too, as the same
		// outcome as any network failure.
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		out.Err = transportErrMsg

		return out
	}
	defer func() { _ = resp.Body.Close() }()

	out.Status = resp.StatusCode

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		out.Err = transportErrMsg
		out.Status = 0

		return out
	}

	if len(raw) == 0 {
		if resp.StatusCode >= 400 {
			out.Err = http.StatusText(resp.StatusCode)
		}

		return out
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 400 {
			out.Err = http.StatusText(resp.StatusCode)
		} else {
			out.Err = fmt.Sprintf("decode response: %v", err)
		}

		return out
	}

	if env.Error != nil && *env.Error != "" {
		out.Err = *env.Error
		if len(env.Data) > 0 {
			var target fieldTarget
			if err := json.Unmarshal(env.Data, &target); err == nil {
				out.TargetField = target.TargetField
			}
		}

		return out
	}

	if resp.StatusCode >= 400 {
		out.Err = http.StatusText(resp.StatusCode)
		return out
	}

	if _, discardData := any(out.Data).(struct{}); discardData {
		// Calls typed struct{} only care about success; the backend may
		// still ship an informational data payload (e.g. "authenticated").
		return out
	}

	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &out.Data); err != nil {
			// A payload we cannot decode is as unusable as no payload.
			out.Err = fmt.Sprintf("decode response: %v", err)
			out.Data = *new(T)

			return out
		}
	}

	return out
}
