package api

import "time"

// ShortURL is a shortened-URL record as returned by the backend. The
// client never edits these fields locally; entries are only replaced
// wholesale with the server's representation.
type ShortURL struct {
	ID          string     `json:"id"`
	OriginalURL string     `json:"original_url"`
	ShortURL    string     `json:"short_url"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Owner       string     `json:"owner"`
	Redirects   uint64     `json:"redirects"`
}

// CreatePayload is the body of POST /api/shorten. Expiration is whole
// seconds from now; nil means the link never expires.
type CreatePayload struct {
	OriginalURL string `json:"original_url"`
	CustomPath  string `json:"custom_path,omitempty"`
	Expiration  *int64 `json:"expiration,omitempty"`
}

// UpdatePayload is the body of PUT /api/shorten.
type UpdatePayload struct {
	ID          string `json:"id"`
	OriginalURL string `json:"original_url"`
	CustomPath  string `json:"custom_path,omitempty"`
	Expiration  *int64 `json:"expiration,omitempty"`
}

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// fieldTarget is the data payload the backend attaches to
// field-targeted validation errors.
type fieldTarget struct {
	TargetField string `json:"target_field"`
}
