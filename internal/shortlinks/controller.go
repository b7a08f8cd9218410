// Package shortlinks owns the signed-in user's shortened-URL collection
// and the replace-or-add workflow for duplicate submissions. The server
// is the source of truth: the cache only ever changes by merging a
// successful response, never by optimistic local edits.
package shortlinks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nurl-sh/nurl-cli/internal/api"
	"go.uber.org/zap"
)

var (
	// ErrReplacementPending is returned when a new submission arrives
	// while a duplicate submission still awaits resolution.
	ErrReplacementPending = errors.New("shortlinks: duplicate resolution pending")
	// ErrNoReplacementPending is returned when a resolution method is
	// called with no workflow in progress.
	ErrNoReplacementPending = errors.New("shortlinks: no duplicate resolution pending")
	// ErrPathCollision is returned by AddAnyway when the candidate's
	// custom path matches the duplicate's; two identical paths would
	// collide server-side.
	ErrPathCollision = errors.New("shortlinks: custom path matches the existing short url")
)

// API is the backend surface the controller drives.
type API interface {
	ListURLs(ctx context.Context) api.Result[[]api.ShortURL]
	CreateURL(ctx context.Context, payload api.CreatePayload) api.Result[api.ShortURL]
	UpdateURL(ctx context.Context, payload api.UpdatePayload) api.Result[api.ShortURL]
	DeleteURL(ctx context.Context, id string) api.Result[struct{}]
}

// PendingReplacement holds a duplicate submission awaiting user
// resolution. It exists only between duplicate detection and exactly
// one of Replace, AddAnyway or Cancel.
type PendingReplacement struct {
	// Duplicate is the existing entry with the same original URL.
	Duplicate api.ShortURL
	// Candidate is the payload the user submitted.
	Candidate api.CreatePayload
}

// Controller owns the local cache of the user's shortened URLs.
type Controller struct {
	api    API
	logger *zap.Logger

	mu      sync.Mutex
	items   []api.ShortURL
	pending *PendingReplacement
}

// NewController creates a controller with an empty cache. Call Refresh
// to populate it.
func NewController(apiClient API, logger *zap.Logger) *Controller {
	return &Controller{
		api:    apiClient,
		logger: logger,
	}
}

// URLs returns a snapshot of the cached collection.
func (c *Controller) URLs() []api.ShortURL {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]api.ShortURL, len(c.items))
	copy(out, c.items)

	return out
}

// Pending returns a copy of the unresolved duplicate submission, or nil.
func (c *Controller) Pending() *PendingReplacement {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return nil
	}

	pending := *c.pending

	return &pending
}

// Refresh replaces the whole cache with the backend's list. There is no
// merge logic beyond wholesale replacement.
func (c *Controller) Refresh(ctx context.Context) error {
	res := c.api.ListURLs(ctx)
	if !res.OK() {
		return fmt.Errorf("shortlinks: refresh: %s", res.Err)
	}

	c.mu.Lock()
	c.items = res.Data
	c.mu.Unlock()

	return nil
}

// Create submits a new short link. When the submitted original URL
// exactly matches a cached entry (case-sensitive), no request is made;
// the duplicate is stashed and returned for the caller to resolve via
// Replace, AddAnyway or Cancel. Otherwise the link is created and
// merged into the cache.
func (c *Controller) Create(ctx context.Context, payload api.CreatePayload) (*api.ShortURL, *PendingReplacement, error) {
	c.mu.Lock()
	if c.pending != nil {
		c.mu.Unlock()
		return nil, nil, ErrReplacementPending
	}

	for i := range c.items {
		if c.items[i].OriginalURL == payload.OriginalURL {
			pending := &PendingReplacement{Duplicate: c.items[i], Candidate: payload}
			c.pending = pending
			c.mu.Unlock()

			c.logger.Debug("duplicate original url detected",
				zap.String("id", pending.Duplicate.ID),
			)
			out := *pending

			return nil, &out, nil
		}
	}
	c.mu.Unlock()

	res := c.api.CreateURL(ctx, payload)
	if !res.OK() {
		return nil, nil, fmt.Errorf("shortlinks: create: %s", res.Err)
	}

	c.mu.Lock()
	c.items = append(c.items, res.Data)
	c.mu.Unlock()

	created := res.Data

	return &created, nil, nil
}

// CanAddAnyway reports whether the pending candidate may be added as an
// independent second entry: only when its custom path differs from the
// duplicate's short path.
func (c *Controller) CanAddAnyway() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pending != nil && c.pending.Candidate.CustomPath != c.pending.Duplicate.ShortURL
}

// Replace resolves the pending workflow by updating the duplicate in
// place with the candidate payload. On failure the workflow stays
// pending so the user can retry or cancel.
func (c *Controller) Replace(ctx context.Context) (*api.ShortURL, error) {
	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()

	if pending == nil {
		return nil, ErrNoReplacementPending
	}

	res := c.api.UpdateURL(ctx, api.UpdatePayload{
		ID:          pending.Duplicate.ID,
		OriginalURL: pending.Candidate.OriginalURL,
		CustomPath:  pending.Candidate.CustomPath,
		Expiration:  pending.Candidate.Expiration,
	})
	if !res.OK() {
		return nil, fmt.Errorf("shortlinks: replace: %s", res.Err)
	}

	c.mu.Lock()
	c.mergeLocked(res.Data)
	c.pending = nil
	c.mu.Unlock()

	updated := res.Data

	return &updated, nil
}

// AddAnyway resolves the pending workflow by creating a second,
// independent entry from the candidate payload. The duplicate entry is
// left untouched.
func (c *Controller) AddAnyway(ctx context.Context) (*api.ShortURL, error) {
	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()

	if pending == nil {
		return nil, ErrNoReplacementPending
	}
	if !c.CanAddAnyway() {
		return nil, ErrPathCollision
	}

	res := c.api.CreateURL(ctx, pending.Candidate)
	if !res.OK() {
		return nil, fmt.Errorf("shortlinks: create: %s", res.Err)
	}

	c.mu.Lock()
	c.items = append(c.items, res.Data)
	c.pending = nil
	c.mu.Unlock()

	created := res.Data

	return &created, nil
}

// Cancel discards the pending candidate; the cache is untouched.
// Cancelling with nothing pending is a no-op, so re-cancellation is
// always safe.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = nil
}

// Update edits an existing entry. On success the cached entity with the
// same id is replaced by the server's representation; on failure the
// cache is left untouched.
func (c *Controller) Update(ctx context.Context, payload api.UpdatePayload) (*api.ShortURL, error) {
	res := c.api.UpdateURL(ctx, payload)
	if !res.OK() {
		return nil, fmt.Errorf("shortlinks: update: %s", res.Err)
	}

	c.mu.Lock()
	c.mergeLocked(res.Data)
	c.mu.Unlock()

	updated := res.Data

	return &updated, nil
}

// Delete removes an entry. The cached entity is removed only on
// success.
func (c *Controller) Delete(ctx context.Context, id string) error {
	res := c.api.DeleteURL(ctx, id)
	if !res.OK() {
		return fmt.Errorf("shortlinks: delete: %s", res.Err)
	}

	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	return nil
}

// mergeLocked replaces the cached entry with the same id, or appends
// when the id is not cached yet.
func (c *Controller) mergeLocked(url api.ShortURL) {
	for i := range c.items {
		if c.items[i].ID == url.ID {
			c.items[i] = url
			return
		}
	}

	c.items = append(c.items, url)
}
