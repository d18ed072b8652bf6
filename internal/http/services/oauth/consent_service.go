package oauth

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dropDatabas3/janus/internal/domain/repository"
	dto "github.com/dropDatabas3/janus/internal/http/dto/oauth"
	"github.com/dropDatabas3/janus/internal/http/services/session"
	oauthx "github.com/dropDatabas3/janus/internal/oauth"
	"github.com/dropDatabas3/janus/internal/observability/logger"
)

// ConsentDeps contains dependencies for ConsentService.
type ConsentDeps struct {
	Clients  repository.ClientRepository
	Grants   repository.GrantRepository
	Codec    *oauthx.ContinuationCodec
	Sessions *session.Service
}

// ConsentService renders and consumes the consent step of the flow.
type ConsentService struct {
	deps ConsentDeps
}

func NewConsentService(d ConsentDeps) *ConsentService {
	return &ConsentService{deps: d}
}

// Show decodes the parked request and prepares the consent page data.
func (s *ConsentService) Show(ctx context.Context, r *http.Request, returnToken string) (dto.ConsentPage, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("ConsentService.Show"))

	path, req, err := s.deps.Codec.DecodeRequest(returnToken)
	if err != nil || path != PathConsent {
		log.Warn("continuation decode failed", logger.Err(err))
		return dto.ConsentPage{}, ErrContinuation
	}

	if _, err := s.deps.Sessions.FromRequest(ctx, r); err != nil {
		return dto.ConsentPage{}, ErrLoginRequired
	}

	client, err := s.deps.Clients.Get(ctx, req.ClientID)
	if err != nil {
		return dto.ConsentPage{}, ErrInvalidClient
	}

	name := client.Name
	if name == "" {
		name = client.ClientID
	}
	return dto.ConsentPage{
		ClientID:    client.ClientID,
		ClientName:  name,
		Scopes:      req.Scopes,
		ReturnToken: returnToken,
	}, nil
}

// Submit persists the user's decision and re-parks the request for the
// complete handler. Checked permissions are granted; requested-but-unchecked
// permissions are recorded as denied.
func (s *ConsentService) Submit(ctx context.Context, r *http.Request, returnToken string, granted []string) (dto.AuthResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("ConsentService.Submit"))

	path, req, err := s.deps.Codec.DecodeRequest(returnToken)
	if err != nil || path != PathConsent {
		log.Warn("continuation decode failed", logger.Err(err))
		return dto.AuthResult{}, ErrContinuation
	}

	userID, err := s.deps.Sessions.FromRequest(ctx, r)
	if err != nil {
		return dto.AuthResult{}, ErrLoginRequired
	}

	// Only scopes that were actually requested can be granted.
	added := make([]string, 0, len(granted))
	for _, p := range granted {
		if req.HasScope(p) {
			added = append(added, p)
		}
	}
	var removed []string
	for _, p := range req.Scopes {
		if !containsString(added, p) {
			removed = append(removed, p)
		}
	}

	update := repository.GrantUpdate{
		UserID:             userID,
		ClientID:           req.ClientID,
		PermissionsAdded:   added,
		PermissionsRemoved: removed,
	}
	if _, err := s.deps.Grants.CreateOrUpdate(ctx, update); err != nil {
		log.Error("grant update failed", logger.Err(err))
		return dto.AuthResult{}, err
	}

	log.Info("consent recorded",
		logger.UserID(userID),
		logger.ClientID(req.ClientID),
		logger.Int("granted", len(added)),
		logger.Int("denied", len(removed)),
	)

	token, err := s.deps.Codec.EncodeRequest(PathComplete, req)
	if err != nil {
		return dto.AuthResult{}, err
	}
	return dto.AuthResult{
		Type:        dto.AuthResultRedirect,
		RedirectURL: PathComplete + "?return=" + url.QueryEscape(token),
	}, nil
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
