package oidc

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/janus/internal/domain/repository"
	httperrors "github.com/dropDatabas3/janus/internal/http/errors"
	svc "github.com/dropDatabas3/janus/internal/http/services/oidc"
	"github.com/dropDatabas3/janus/internal/observability/logger"
)

// UserinfoController maneja GET/POST /connect/userinfo.
type UserinfoController struct {
	service *svc.UserinfoService
}

func NewUserinfoController(service *svc.UserinfoService) *UserinfoController {
	return &UserinfoController{service: service}
}

func (c *UserinfoController) Userinfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UserinfoController.Userinfo"))

	token := bearerToken(r)
	if token == "" {
		w.Header().Set("WWW-Authenticate", `Bearer realm="userinfo"`)
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	claims, err := c.service.Claims(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrInvalidAccessToken):
			w.Header().Set("WWW-Authenticate", `Bearer realm="userinfo", error="invalid_token"`)
			httperrors.WriteError(w, httperrors.ErrUnauthorized)
		case repository.IsNotFound(err):
			httperrors.WriteError(w, httperrors.ErrUserNotFound)
		default:
			log.Error("userinfo failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(claims)
}

func bearerToken(r *http.Request) string {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(ah) > 7 && strings.EqualFold(ah[:7], "bearer ") {
		return strings.TrimSpace(ah[7:])
	}
	return ""
}
