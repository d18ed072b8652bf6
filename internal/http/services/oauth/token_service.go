package oauth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/janus/internal/domain/repository"
	"github.com/dropDatabas3/janus/internal/ledger"
	"github.com/dropDatabas3/janus/internal/metrics"
	oauthx "github.com/dropDatabas3/janus/internal/oauth"
	"github.com/dropDatabas3/janus/internal/observability/logger"
)

// Errors for the token endpoint.
var (
	ErrUnsupportedGrant = errors.New("unsupported grant_type")
	ErrInvalidGrant     = errors.New("invalid grant")
	ErrClientAuth       = errors.New("client authentication failed")
)

// TokenDeps contains dependencies for TokenService.
type TokenDeps struct {
	Clients      repository.ClientRepository
	Ledger       ledger.Ledger
	AccessTokens *AccessTokenStore
}

// TokenService redeems authorization codes at the token endpoint.
type TokenService struct {
	deps TokenDeps
}

func NewTokenService(d TokenDeps) *TokenService {
	return &TokenService{deps: d}
}

// Exchange redeems a code for the final token set. Confidential clients must
// authenticate; every failed redemption is indistinguishable from the next.
func (s *TokenService) Exchange(ctx context.Context, r *http.Request, grantType, code string) (*oauthx.Token, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("TokenService.Exchange"))

	if grantType != "authorization_code" {
		return nil, ErrUnsupportedGrant
	}
	if strings.TrimSpace(code) == "" {
		return nil, ErrInvalidGrant
	}

	clientID, err := s.authenticateClient(ctx, r)
	if err != nil {
		log.Warn("client auth failed", logger.Err(err))
		return nil, ErrClientAuth
	}

	tok, entry, err := s.deps.Ledger.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, ledger.ErrAuthCode) {
			log.Warn("code redemption failed", logger.ClientID(clientID))
			return nil, ErrInvalidGrant
		}
		return nil, err
	}

	// The final access token is what userinfo will see from now on.
	if s.deps.AccessTokens != nil && tok.AccessToken != "" {
		if err := s.deps.AccessTokens.Register(ctx, tok.AccessToken, entry.UserID, clientID, entry.Request.Scopes); err != nil {
			log.Error("access token registration failed", logger.Err(err))
		}
	}

	metrics.TokensIssued.WithLabelValues("access").Inc()
	if tok.IDToken != "" {
		metrics.TokensIssued.WithLabelValues("id").Inc()
	}
	log.Info("code exchanged", logger.ClientID(clientID))

	// The redeemed code must not echo back in the JSON body.
	out := *tok
	out.Code = ""
	return &out, nil
}

// authenticateClient resolves the calling client from Basic auth or the form
// body and verifies its secret when it is confidential. Public clients pass
// with client_id alone.
func (s *TokenService) authenticateClient(ctx context.Context, r *http.Request) (string, error) {
	clientID, secret, ok := r.BasicAuth()
	if !ok {
		clientID = r.PostFormValue("client_id")
		secret = r.PostFormValue("client_secret")
	}
	if clientID == "" {
		return "", ErrClientAuth
	}

	client, err := s.deps.Clients.Get(ctx, clientID)
	if err != nil {
		return "", ErrClientAuth
	}
	if client.Type == repository.ClientTypeConfidential {
		if !client.VerifySecret(secret) {
			return "", ErrClientAuth
		}
	}
	return clientID, nil
}
