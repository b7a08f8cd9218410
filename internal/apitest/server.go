// Package apitest provides an in-process nurl backend implementing the
// REST contract the client consumes, for use in tests. It mirrors the
// production backend's observable behavior: the {error, data} envelope
// on every response, bearer-token auth, per-owner URL collections and
// field-targeted registration errors.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"

	"github.com/nurl-sh/nurl-cli/internal/api"
)

const tokenTTL = time.Hour

// Server is a fake nurl backend running on a local listener.
type Server struct {
	httpServer *httptest.Server
	secret     []byte
	genCode    func() string

	mu      sync.Mutex
	healthy bool
	users   map[string]string // username -> password
	urls    map[string]*api.ShortURL
}

// New starts a fake backend. Callers must Close it.
func New() *Server {
	genCode, err := nanoid.Standard(8)
	if err != nil {
		panic(err)
	}

	s := &Server{
		secret:  []byte("apitest-secret"),
		genCode: genCode,
		healthy: true,
		users:   make(map[string]string),
		urls:    make(map[string]*api.ShortURL),
	}

	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Post("/api/auth", s.handleLogin)
	r.Get("/api/auth", s.handleCheckAuth)
	r.Post("/api/register", s.handleRegister)
	r.Route("/api/shorten", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Put("/", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
	})

	s.httpServer = httptest.NewServer(r)

	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return s.httpServer.URL
}

// Close shuts the server down.
func (s *Server) Close() {
	s.httpServer.Close()
}

// SetHealthy controls the health endpoint, simulating backend outages.
func (s *Server) SetHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.healthy = healthy
}

// AddUser registers a user without going through the register endpoint.
func (s *Server) AddUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[username] = password
}

// Token mints a valid bearer token for username, bypassing login.
func (s *Server) Token(username string) string {
	token, err := s.mintToken(username, tokenTTL)
	if err != nil {
		panic(err)
	}

	return token
}

// URLCount reports how many shortened URLs the server holds.
func (s *Server) URLCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.urls)
}

type responseEnvelope struct {
	Error *string `json:"error"`
	Data  any     `json:"data"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(responseEnvelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(responseEnvelope{Error: &msg})
}

func writeFieldError(w http.ResponseWriter, status int, msg, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(responseEnvelope{
		Error: &msg,
		Data:  map[string]string{"target_field": field},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	healthy := s.healthy
	s.mu.Unlock()

	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form struct {
		Username   string `json:"username"`
		Password   string `json:"password"`
		RememberMe bool   `json:"remember_me"`
	}
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	password, ok := s.users[form.Username]
	s.mu.Unlock()

	if !ok || password != form.Password {
		writeError(w, http.StatusUnprocessableEntity, "Invalid username/password")
		return
	}

	ttl := tokenTTL
	if form.RememberMe {
		ttl = 30 * 24 * time.Hour
	}

	token, err := s.mintToken(form.Username, ttl)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	writeData(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.usernameFromRequest(r); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	writeData(w, http.StatusOK, "authenticated")
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var form struct {
		Username        string `json:"username"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if form.Username == "" {
		writeFieldError(w, http.StatusUnprocessableEntity, "Username is required", "username")
		return
	}
	if form.Password == "" {
		writeFieldError(w, http.StatusUnprocessableEntity, "Password is required", "password")
		return
	}
	if form.Password != form.ConfirmPassword {
		writeFieldError(w, http.StatusUnprocessableEntity, "Passwords do not match", "confirm_password")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[form.Username]; exists {
		writeFieldError(w, http.StatusUnprocessableEntity, "Username already taken", "username")
		return
	}

	s.users[form.Username] = form.Password
	writeData(w, http.StatusOK, nil)
}

type usernameKey struct{}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, err := s.usernameFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		next.ServeHTTP(w, r.WithContext(contextWithUsername(r.Context(), username)))
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	username := usernameFromContext(r.Context())

	s.mu.Lock()
	urls := make([]api.ShortURL, 0)
	for _, u := range s.urls {
		if u.Owner == username {
			urls = append(urls, *u)
		}
	}
	s.mu.Unlock()

	writeData(w, http.StatusOK, urls)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	username := usernameFromContext(r.Context())

	var payload api.CreatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.OriginalURL == "" {
		writeError(w, http.StatusInternalServerError, "original_url is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	code := payload.CustomPath
	if code == "" {
		code = s.genCode()
	}
	if s.codeTakenLocked(code, "") {
		writeError(w, http.StatusInternalServerError, "short URL already in use")
		return
	}

	now := time.Now().UTC()
	url := &api.ShortURL{
		ID:          uuid.NewString(),
		OriginalURL: payload.OriginalURL,
		ShortURL:    code,
		ExpiryDate:  expiryFromSeconds(payload.Expiration, now),
		CreatedAt:   now,
		UpdatedAt:   now,
		Owner:       username,
	}
	s.urls[url.ID] = url

	writeData(w, http.StatusOK, url)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	username := usernameFromContext(r.Context())

	var payload api.UpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	url, ok := s.urls[payload.ID]
	if !ok || url.Owner != username {
		writeError(w, http.StatusInternalServerError, "shortened URL not found")
		return
	}

	if payload.CustomPath != "" && payload.CustomPath != url.ShortURL {
		if s.codeTakenLocked(payload.CustomPath, url.ID) {
			writeError(w, http.StatusInternalServerError, "short URL already in use")
			return
		}

		url.ShortURL = payload.CustomPath
	}

	now := time.Now().UTC()
	url.OriginalURL = payload.OriginalURL
	url.ExpiryDate = expiryFromSeconds(payload.Expiration, now)
	url.UpdatedAt = now

	writeData(w, http.StatusOK, url)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	username := usernameFromContext(r.Context())
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	url, ok := s.urls[id]
	if !ok || url.Owner != username {
		writeError(w, http.StatusInternalServerError, "shortened URL not found")
		return
	}

	delete(s.urls, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) codeTakenLocked(code, excludeID string) bool {
	for id, u := range s.urls {
		if id != excludeID && u.ShortURL == code {
			return true
		}
	}

	return false
}

func expiryFromSeconds(seconds *int64, now time.Time) *time.Time {
	if seconds == nil {
		return nil
	}

	expiry := now.Add(time.Duration(*seconds) * time.Second)

	return &expiry
}

func (s *Server) mintToken(username string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(ttl).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) usernameFromRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", jwt.ErrTokenMalformed
	}

	var claims struct {
		jwt.RegisteredClaims
		Username string `json:"username"`
	}
	if _, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}); err != nil {
		return "", err
	}
	if claims.Username == "" {
		return "", jwt.ErrTokenInvalidClaims
	}

	return claims.Username, nil
}
