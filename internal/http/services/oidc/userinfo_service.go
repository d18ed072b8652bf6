package oidc

import (
	"context"
	"errors"

	"github.com/dropDatabas3/janus/internal/domain/repository"
	oauthsvc "github.com/dropDatabas3/janus/internal/http/services/oauth"
	"github.com/dropDatabas3/janus/internal/observability/logger"
)

var ErrInvalidAccessToken = errors.New("invalid access token")

// UserinfoClaims es la respuesta del endpoint userinfo. Los claims de
// profile/email solo se incluyen si el scope correspondiente fue otorgado.
type UserinfoClaims struct {
	Sub           string `json:"sub"`
	Name          string `json:"name,omitempty"`
	GivenName     string `json:"given_name,omitempty"`
	FamilyName    string `json:"family_name,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified *bool  `json:"email_verified,omitempty"`
}

// UserinfoService resuelve un access token a los claims de su usuario.
type UserinfoService struct {
	users        repository.UserRepository
	accessTokens *oauthsvc.AccessTokenStore
}

func NewUserinfoService(users repository.UserRepository, ats *oauthsvc.AccessTokenStore) *UserinfoService {
	return &UserinfoService{users: users, accessTokens: ats}
}

func (s *UserinfoService) Claims(ctx context.Context, accessToken string) (*UserinfoClaims, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("UserinfoService.Claims"))

	payload, err := s.accessTokens.Lookup(ctx, accessToken)
	if err != nil {
		return nil, ErrInvalidAccessToken
	}

	user, err := s.users.GetByID(ctx, payload.UserID)
	if err != nil {
		log.Error("user lookup failed", logger.Err(err), logger.UserID(payload.UserID))
		return nil, err
	}

	claims := &UserinfoClaims{Sub: user.ID}
	for _, scope := range payload.Scopes {
		switch scope {
		case "profile":
			claims.Name = user.Name
			claims.GivenName = user.GivenName
			claims.FamilyName = user.FamilyName
		case "email":
			claims.Email = user.Email
			verified := user.EmailVerified
			claims.EmailVerified = &verified
		}
	}
	return claims, nil
}
