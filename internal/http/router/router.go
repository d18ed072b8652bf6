// Package router define las rutas HTTP del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	healthctrl "github.com/dropDatabas3/janus/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/janus/internal/http/controllers/oauth"
	oidcctrl "github.com/dropDatabas3/janus/internal/http/controllers/oidc"
	sessionctrl "github.com/dropDatabas3/janus/internal/http/controllers/session"
	mw "github.com/dropDatabas3/janus/internal/http/middlewares"
	"github.com/dropDatabas3/janus/internal/metrics"
)

// Deps contiene los controllers ya construidos y la config de transporte.
type Deps struct {
	Authorize *oauthctrl.AuthorizeController
	Consent   *oauthctrl.ConsentController
	Token     *oauthctrl.TokenController
	Discovery *oidcctrl.DiscoveryController
	Userinfo  *oidcctrl.UserinfoController
	Login     *sessionctrl.LoginController
	Health    *healthctrl.Controller

	CORSAllowedOrigins []string
}

// New arma el router completo con la cadena de middlewares base.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// Cadena base: recover primero, luego request id y logging para que
	// todo lo de abajo loggee con contexto.
	r.Use(mw.WithRecover())
	r.Use(mw.WithRequestID())
	r.Use(mw.WithLogging())
	r.Use(mw.WithSecurityHeaders())
	r.Use(metrics.Middleware)

	// Flujo de autorización (front-channel, navegación top-level).
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore())
		r.Get("/connect/authorize", d.Authorize.Authorize)
		r.Get("/connect/complete", d.Authorize.Complete)
		r.Get("/connect/consent", d.Consent.Show)
		r.Post("/connect/consent", d.Consent.Submit)
		r.Get("/login", d.Login.Show)
		r.Post("/login", d.Login.Submit)
	})

	// Endpoints JSON (back-channel): CORS habilitado.
	r.Group(func(r chi.Router) {
		r.Use(mw.WithCORS(d.CORSAllowedOrigins))
		r.Post("/connect/token", d.Token.Token)
		r.Get("/connect/userinfo", d.Userinfo.Userinfo)
		r.Post("/connect/userinfo", d.Userinfo.Userinfo)
	})

	// Discovery
	r.Get("/.well-known/openid-configuration", d.Discovery.Get)
	r.Get("/.well-known/webfinger", d.Discovery.Webfinger)
	r.Get("/connect/jwks", d.Discovery.JWKS)

	// Operacional
	r.Get("/healthz", d.Health.Healthz)
	r.Get("/readyz", d.Health.Readyz)
	r.Handle("/metrics", metrics.Handler())

	return r
}
