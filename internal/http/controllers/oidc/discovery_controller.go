// Package oidc - controllers para discovery, webfinger, JWKS y userinfo.
package oidc

import (
	"encoding/json"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/janus/internal/http/errors"
	svc "github.com/dropDatabas3/janus/internal/http/services/oidc"
	"github.com/dropDatabas3/janus/internal/observability/logger"
)

// DiscoveryController maneja /.well-known/openid-configuration, webfinger y JWKS.
type DiscoveryController struct {
	service *svc.DiscoveryService
}

func NewDiscoveryController(service *svc.DiscoveryService) *DiscoveryController {
	return &DiscoveryController{service: service}
}

// Get maneja GET /.well-known/openid-configuration.
func (c *DiscoveryController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("DiscoveryController.Get"))

	meta := c.service.GetDiscovery(ctx)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=600, must-revalidate")
	log.Debug("serving OIDC discovery")
	_ = json.NewEncoder(w).Encode(meta)
}

// Webfinger maneja GET /.well-known/webfinger. Siempre apunta al issuer:
// este deployment es single-issuer.
func (c *DiscoveryController) Webfinger(w http.ResponseWriter, r *http.Request) {
	resource := strings.TrimSpace(r.URL.Query().Get("resource"))
	if resource == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("resource parameter required"))
		return
	}

	doc := map[string]any{
		"subject": resource,
		"links": []map[string]string{
			{
				"rel":  "http://openid.net/specs/connect/1.0/issuer",
				"href": c.service.Issuer(),
			},
		},
	}
	w.Header().Set("Content-Type", "application/jrd+json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(doc)
}

// JWKS maneja GET /connect/jwks. Las claves de firma son simétricas y nunca
// se publican; el keyset expuesto es vacío.
func (c *DiscoveryController) JWKS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=600, must-revalidate")
	_ = json.NewEncoder(w).Encode(map[string]any{"keys": []any{}})
}
