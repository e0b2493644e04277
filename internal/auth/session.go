package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fleetops/fleetops/internal/rbac"
)

// SessionStore keeps authenticated principals in Redis behind an opaque
// cookie id. The payload is written once at sign-in and never mutated.
type SessionStore struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(client *redis.Client, cookieName string, ttl time.Duration, secure bool) *SessionStore {
	return &SessionStore{client: client, cookieName: cookieName, ttl: ttl, secure: secure}
}

// TTL exposes the configured session lifetime.
func (s *SessionStore) TTL() time.Duration { return s.ttl }

// CookieName returns the cookie identifier used for sessions.
func (s *SessionStore) CookieName() string { return s.cookieName }

// Create persists p under a fresh session id.
func (s *SessionStore) Create(ctx context.Context, p rbac.Principal) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("auth: session id: %w", err)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("auth: encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.redisKey(id.String()), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store session: %w", err)
	}
	return id.String(), nil
}

// Lookup returns the principal stored under id.
func (s *SessionStore) Lookup(ctx context.Context, id string) (rbac.Principal, error) {
	if id == "" {
		return rbac.Principal{}, ErrSessionNotFound
	}
	payload, err := s.client.Get(ctx, s.redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return rbac.Principal{}, ErrSessionNotFound
	}
	if err != nil {
		return rbac.Principal{}, fmt.Errorf("auth: load session: %w", err)
	}
	var p rbac.Principal
	if err := json.Unmarshal(payload, &p); err != nil {
		return rbac.Principal{}, fmt.Errorf("auth: decode session: %w", err)
	}
	return p, nil
}

// Destroy removes the session.
func (s *SessionStore) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.redisKey(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}

// SetCookie writes the session cookie.
func (s *SessionStore) SetCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(s.ttl),
	})
}

// ClearCookie expires the session cookie.
func (s *SessionStore) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// sessionID reads the session cookie from r.
func (s *SessionStore) sessionID(r *http.Request) string {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s *SessionStore) redisKey(id string) string {
	return "session:" + id
}
