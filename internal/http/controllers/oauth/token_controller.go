package oauth

import (
	"encoding/json"
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/janus/internal/http/errors"
	svc "github.com/dropDatabas3/janus/internal/http/services/oauth"
	"github.com/dropDatabas3/janus/internal/observability/logger"
)

// TokenController handles POST /connect/token.
type TokenController struct {
	service *svc.TokenService
}

func NewTokenController(s *svc.TokenService) *TokenController {
	return &TokenController{service: s}
}

// Token redeems an authorization code for tokens. Responses carry no-store
// headers; error bodies use the protocol's error/error_description shape.
func (c *TokenController) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TokenController.Token"))

	if err := r.ParseForm(); err != nil {
		httperrors.WriteOAuthError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}

	grantType := r.PostFormValue("grant_type")
	code := r.PostFormValue("code")

	tok, err := c.service.Exchange(ctx, r, grantType, code)
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrUnsupportedGrant):
			httperrors.WriteOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "only authorization_code is supported")
		case errors.Is(err, svc.ErrInvalidGrant):
			httperrors.WriteOAuthError(w, http.StatusBadRequest, "invalid_grant", "code is invalid, expired or already used")
		case errors.Is(err, svc.ErrClientAuth):
			w.Header().Set("WWW-Authenticate", `Basic realm="token"`)
			httperrors.WriteOAuthError(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
		default:
			log.Error("token exchange failed", logger.Err(err))
			httperrors.WriteOAuthError(w, http.StatusInternalServerError, "server_error", "unexpected error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(tok)
}
