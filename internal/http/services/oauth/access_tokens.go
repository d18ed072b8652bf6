package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dropDatabas3/janus/internal/cache"
	dto "github.com/dropDatabas3/janus/internal/http/dto/oauth"
	tokens "github.com/dropDatabas3/janus/internal/security/token"
)

const cacheKeyPrefixAT = "at:"

var ErrAccessTokenInvalid = errors.New("invalid access token")

// AccessTokenStore records issued opaque access tokens so the userinfo
// endpoint can resolve them later. Tokens are keyed by hash; the raw value
// never touches storage.
type AccessTokenStore struct {
	Cache cache.Client
	TTL   time.Duration
}

func NewAccessTokenStore(c cache.Client, ttl time.Duration) *AccessTokenStore {
	return &AccessTokenStore{Cache: c, TTL: ttl}
}

func (s *AccessTokenStore) Register(ctx context.Context, token, userID, clientID string, scopes []string) error {
	payload := dto.AccessTokenPayload{
		UserID:   userID,
		ClientID: clientID,
		Scopes:   scopes,
		Expires:  time.Now().UTC().Add(s.TTL),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.Cache.Set(ctx, cacheKeyPrefixAT+tokens.SHA256Base64URL(token), raw, s.TTL)
}

func (s *AccessTokenStore) Lookup(ctx context.Context, token string) (*dto.AccessTokenPayload, error) {
	raw, err := s.Cache.Get(ctx, cacheKeyPrefixAT+tokens.SHA256Base64URL(token))
	if err != nil {
		return nil, ErrAccessTokenInvalid
	}
	var payload dto.AccessTokenPayload
	if json.Unmarshal(raw, &payload) != nil {
		return nil, ErrAccessTokenInvalid
	}
	if time.Now().After(payload.Expires) {
		return nil, ErrAccessTokenInvalid
	}
	return &payload, nil
}
