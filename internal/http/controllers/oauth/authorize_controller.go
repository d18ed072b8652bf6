// Package oauth - controllers for the front-channel authorization endpoints.
package oauth

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	dto "github.com/dropDatabas3/janus/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/janus/internal/http/errors"
	svc "github.com/dropDatabas3/janus/internal/http/services/oauth"
	oauthx "github.com/dropDatabas3/janus/internal/oauth"
	"github.com/dropDatabas3/janus/internal/observability/logger"
)

// AuthorizeController handles /connect/authorize and /connect/complete.
type AuthorizeController struct {
	service *svc.AuthorizeService
}

func NewAuthorizeController(s *svc.AuthorizeService) *AuthorizeController {
	return &AuthorizeController{service: s}
}

// Authorize handles GET /connect/authorize, fresh or resumed via ?return=.
func (c *AuthorizeController) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthorizeController.Authorize"))

	w.Header().Add("Vary", "Cookie")

	q := r.URL.Query()
	log.Debug("authorize request",
		logger.ClientID(q.Get("client_id")),
		logger.String("response_type", q.Get("response_type")),
		logger.String("scope", q.Get("scope")),
	)

	result, err := c.service.Authorize(ctx, r, q)
	if err != nil {
		writeFlowError(w, log, err)
		return
	}
	writeResult(w, r, result)
}

// Complete handles GET /connect/complete?return=<token>.
func (c *AuthorizeController) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthorizeController.Complete"))

	result, err := c.service.Complete(ctx, r, r.URL.Query().Get("return"))
	if err != nil {
		writeFlowError(w, log, err)
		return
	}
	writeResult(w, r, result)
}

// writeFlowError maps service errors to user-agent responses. Validation and
// continuation failures never redirect anywhere; the error stays with the
// user agent.
func writeFlowError(w http.ResponseWriter, log *zap.Logger, err error) {
	var verr *oauthx.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make(map[string]string, len(verr.Fields))
		for _, f := range verr.Fields {
			if _, seen := fields[f.Field]; !seen {
				fields[f.Field] = f.Message
			}
		}
		httperrors.WriteError(w, httperrors.ErrInvalidAuthorizeRequest.WithFields(fields))
	case errors.Is(err, svc.ErrContinuation):
		httperrors.WriteError(w, httperrors.ErrInvalidContinuation)
	case errors.Is(err, svc.ErrLoginRequired):
		httperrors.WriteError(w, httperrors.ErrSessionExpired)
	case errors.Is(err, svc.ErrInvalidClient):
		httperrors.WriteError(w, httperrors.ErrClientNotFound)
	default:
		log.Error("authorize flow failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}

func writeResult(w http.ResponseWriter, r *http.Request, result dto.AuthResult) {
	switch result.Type {
	case dto.AuthResultRedirect:
		http.Redirect(w, r, result.RedirectURL, http.StatusFound)
	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
