// Package oauth contains the services behind the authorization endpoints.
package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/dropDatabas3/janus/internal/domain/repository"
	dto "github.com/dropDatabas3/janus/internal/http/dto/oauth"
	"github.com/dropDatabas3/janus/internal/http/services/session"
	"github.com/dropDatabas3/janus/internal/ledger"
	"github.com/dropDatabas3/janus/internal/metrics"
	oauthx "github.com/dropDatabas3/janus/internal/oauth"
	"github.com/dropDatabas3/janus/internal/observability/logger"
)

// Errors for the authorize flow.
var (
	ErrInvalidClient   = errors.New("invalid client")
	ErrInvalidRedirect = errors.New("redirect_uri not allowed")
	ErrLoginRequired   = errors.New("login required")
	ErrContinuation    = errors.New("invalid continuation token")
)

// Default mount points for the flow endpoints.
const (
	PathAuthorize = "/connect/authorize"
	PathConsent   = "/connect/consent"
	PathComplete  = "/connect/complete"
)

// AuthorizeDeps contains dependencies for AuthorizeService.
type AuthorizeDeps struct {
	Clients      repository.ClientRepository
	Grants       repository.GrantRepository
	Codec        *oauthx.ContinuationCodec
	Ledger       ledger.Ledger
	Sessions     *session.Service
	AccessTokens *AccessTokenStore
	SiteOpts     oauthx.SiteOptions
	LoginURL     string
}

// AuthorizeService drives an authorization request through its states:
// authorize, then login and consent as needed, then complete.
type AuthorizeService struct {
	deps AuthorizeDeps
}

func NewAuthorizeService(d AuthorizeDeps) *AuthorizeService {
	return &AuthorizeService{deps: d}
}

// Authorize handles a fresh or resumed authorization request and decides the
// next hop for the user agent.
func (s *AuthorizeService) Authorize(ctx context.Context, r *http.Request, values url.Values) (dto.AuthResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("AuthorizeService.Authorize"))

	// A return parameter means we are resuming a parked request, typically
	// after login. The token's parameters replace whatever else was sent.
	if ret := values.Get("return"); ret != "" {
		path, params, err := s.deps.Codec.Decode(ret)
		if err != nil || path != PathAuthorize {
			log.Warn("continuation decode failed", logger.Err(err))
			return dto.AuthResult{}, ErrContinuation
		}
		values = params
	}

	req, _, err := s.parseAndValidate(ctx, values)
	if err != nil {
		return dto.AuthResult{}, err
	}

	userID, err := s.deps.Sessions.FromRequest(ctx, r)
	if err != nil {
		if strings.EqualFold(req.Prompt, "none") {
			// The client asked for a silent check; answer through the
			// already-validated redirect_uri instead of parking the flow.
			return s.errorRedirect(req, "login_required"), nil
		}
		token, err := s.deps.Codec.EncodeRequest(PathAuthorize, req)
		if err != nil {
			return dto.AuthResult{}, err
		}
		log.Debug("no session, redirecting to login", logger.ClientID(req.ClientID))
		return dto.AuthResult{
			Type:        dto.AuthResultRedirect,
			RedirectURL: s.deps.LoginURL + "?return=" + url.QueryEscape(token),
		}, nil
	}

	if s.shouldPrompt(ctx, userID, req) {
		token, err := s.deps.Codec.EncodeRequest(PathConsent, req)
		if err != nil {
			return dto.AuthResult{}, err
		}
		log.Debug("consent required", logger.UserID(userID), logger.ClientID(req.ClientID))
		return dto.AuthResult{
			Type:        dto.AuthResultRedirect,
			RedirectURL: PathConsent + "?return=" + url.QueryEscape(token),
		}, nil
	}

	return s.complete(ctx, userID, req)
}

// Complete finalizes a flow parked behind a continuation token, typically
// arriving from the consent handler.
func (s *AuthorizeService) Complete(ctx context.Context, r *http.Request, returnToken string) (dto.AuthResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("AuthorizeService.Complete"))

	path, req, err := s.deps.Codec.DecodeRequest(returnToken)
	if err != nil || (path != PathComplete && path != PathAuthorize) {
		log.Warn("continuation decode failed", logger.Err(err))
		return dto.AuthResult{}, ErrContinuation
	}

	userID, err := s.deps.Sessions.FromRequest(ctx, r)
	if err != nil {
		return dto.AuthResult{}, ErrLoginRequired
	}

	// Clients and their registered URIs can change while a flow is parked;
	// validate again before anything is issued.
	if _, _, err := s.parseAndValidate(ctx, req.Values()); err != nil {
		return dto.AuthResult{}, err
	}

	return s.complete(ctx, userID, req)
}

func (s *AuthorizeService) complete(ctx context.Context, userID string, req *oauthx.AuthorizeRequest) (dto.AuthResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("AuthorizeService.complete"))

	tok, _, err := s.deps.Ledger.Issue(ctx, userID, req)
	if err != nil {
		log.Error("token issue failed", logger.Err(err))
		return dto.AuthResult{}, err
	}

	if tok.AccessToken != "" && s.deps.AccessTokens != nil {
		if err := s.deps.AccessTokens.Register(ctx, tok.AccessToken, userID, req.ClientID, req.Scopes); err != nil {
			log.Error("access token registration failed", logger.Err(err))
			return dto.AuthResult{}, err
		}
	}

	if tok.AccessToken != "" {
		metrics.TokensIssued.WithLabelValues("access").Inc()
	}
	if tok.IDToken != "" {
		metrics.TokensIssued.WithLabelValues("id").Inc()
	}

	log.Info("authorization complete",
		logger.UserID(userID),
		logger.ClientID(req.ClientID),
		logger.ResponseType(req.ResponseType.String()),
	)
	return dto.AuthResult{
		Type:        dto.AuthResultRedirect,
		RedirectURL: assembleRedirect(req, tok),
	}, nil
}

// parseAndValidate runs the full validation pass against the request and its
// client. Nothing is trusted, and no redirect to redirect_uri happens, until
// this returns nil.
func (s *AuthorizeService) parseAndValidate(ctx context.Context, values url.Values) (*oauthx.AuthorizeRequest, *repository.Client, error) {
	req, state := oauthx.ParseAuthorizeRequest(values)

	var client *repository.Client
	if req.ClientID != "" {
		c, err := s.deps.Clients.Get(ctx, req.ClientID)
		if err != nil && !repository.IsNotFound(err) {
			return nil, nil, err
		}
		client = c
	}

	if err := oauthx.ValidateAuthorizeRequest(req, client, s.deps.SiteOpts, state); err != nil {
		return nil, nil, err
	}
	return req, client, nil
}

// shouldPrompt is the consent policy: prompt whenever the client forces it
// via the prompt parameter, or when no grant covers every requested scope.
func (s *AuthorizeService) shouldPrompt(ctx context.Context, userID string, req *oauthx.AuthorizeRequest) bool {
	if req.Prompt != "" && !strings.EqualFold(req.Prompt, "none") {
		return true
	}
	grant, err := s.deps.Grants.Get(ctx, userID, req.ClientID)
	if err != nil {
		return true
	}
	return len(grant.Allowed(req.Scopes)) != len(req.Scopes)
}

// errorRedirect delivers a protocol error to an already-validated
// redirect_uri, echoing state.
func (s *AuthorizeService) errorRedirect(req *oauthx.AuthorizeRequest, code string) dto.AuthResult {
	params := url.Values{}
	params.Set("error", code)
	if req.State != "" {
		params.Set("state", req.State)
	}
	return dto.AuthResult{
		Type:        dto.AuthResultRedirect,
		RedirectURL: attachParams(req.RedirectURI, req.EffectiveResponseMode(), params),
	}
}

// assembleRedirect builds the terminal redirect carrying the issued
// artifacts over the response-mode-selected channel.
func assembleRedirect(req *oauthx.AuthorizeRequest, tok *oauthx.Token) string {
	return attachParams(req.RedirectURI, req.EffectiveResponseMode(), tok.QueryPairs())
}

func attachParams(redirectURI string, mode oauthx.ResponseMode, params url.Values) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		// The URI matched a registered one; a parse failure here means the
		// registration itself is broken.
		return redirectURI
	}
	switch mode {
	case oauthx.ResponseModeFragment:
		u.Fragment = params.Encode()
	default:
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}
