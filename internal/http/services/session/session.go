// Package session implements cookie-backed sessions over the cache layer.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/janus/internal/cache"
	dto "github.com/dropDatabas3/janus/internal/http/dto/oauth"
	tokens "github.com/dropDatabas3/janus/internal/security/token"
)

const cacheKeyPrefixSID = "sid:"

var ErrNoSession = errors.New("no valid session")

// Service stores sessions in the cache keyed by a hash of the cookie value.
// The raw cookie value never touches storage.
type Service struct {
	Cache      cache.Client
	CookieName string
	TTL        time.Duration
	Secure     bool
	SameSite   http.SameSite
}

func New(c cache.Client, cookieName string, ttl time.Duration) *Service {
	return &Service{
		Cache:      c,
		CookieName: cookieName,
		TTL:        ttl,
		SameSite:   http.SameSiteLaxMode,
	}
}

// Create mints a new session for userID and returns the Set-Cookie to send.
func (s *Service) Create(ctx context.Context, userID string) (*http.Cookie, error) {
	value, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		return nil, err
	}
	payload := dto.SessionPayload{
		UserID:  userID,
		Expires: time.Now().UTC().Add(s.TTL),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if err := s.Cache.Set(ctx, cacheKeyPrefixSID+tokens.SHA256Base64URL(value), raw, s.TTL); err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     s.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: s.SameSite,
		MaxAge:   int(s.TTL.Seconds()),
	}, nil
}

// FromRequest resolves the authenticated user for a request, if any.
func (s *Service) FromRequest(ctx context.Context, r *http.Request) (string, error) {
	ck, err := r.Cookie(s.CookieName)
	if err != nil || ck == nil || strings.TrimSpace(ck.Value) == "" {
		return "", ErrNoSession
	}
	raw, err := s.Cache.Get(ctx, cacheKeyPrefixSID+tokens.SHA256Base64URL(ck.Value))
	if err != nil {
		return "", ErrNoSession
	}
	var payload dto.SessionPayload
	if json.Unmarshal(raw, &payload) != nil {
		return "", ErrNoSession
	}
	if time.Now().After(payload.Expires) || payload.UserID == "" {
		return "", ErrNoSession
	}
	return payload.UserID, nil
}

// Destroy removes the session behind a cookie value.
func (s *Service) Destroy(ctx context.Context, cookieValue string) error {
	return s.Cache.Delete(ctx, cacheKeyPrefixSID+tokens.SHA256Base64URL(cookieValue))
}
