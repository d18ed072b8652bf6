// Package session - login endpoint that backs the authorize flow's redirect.
//
// Credential verification is intentionally not implemented here: production
// deployments put a real identity provider at oauth.login_url and only need
// it to end up creating a session and bouncing back through
// /connect/authorize?return=<token>. This controller is that contract, with
// username-only login for development.
package session

import (
	"html/template"
	"net/http"

	"github.com/dropDatabas3/janus/internal/domain/repository"
	httperrors "github.com/dropDatabas3/janus/internal/http/errors"
	sess "github.com/dropDatabas3/janus/internal/http/services/session"
	"github.com/dropDatabas3/janus/internal/observability/logger"
)

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Sign in</title></head>
<body>
<h1>Sign in</h1>
<form method="POST" action="/login">
  <input type="hidden" name="return" value="{{.Return}}">
  <label>Username <input type="text" name="username" autofocus></label>
  <button type="submit">Continue</button>
</form>
</body>
</html>
`))

// LoginController maneja GET/POST /login.
type LoginController struct {
	users    repository.UserRepository
	sessions *sess.Service
}

func NewLoginController(users repository.UserRepository, sessions *sess.Service) *LoginController {
	return &LoginController{users: users, sessions: sessions}
}

// Show renderiza el form de login preservando el token de continuación.
func (c *LoginController) Show(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = loginTemplate.Execute(w, struct{ Return string }{Return: r.URL.Query().Get("return")})
}

// Submit crea la sesión y retoma el flujo de autorización parkeado.
func (c *LoginController) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Submit"))

	if err := r.ParseForm(); err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest)
		return
	}
	username := r.PostFormValue("username")
	returnToken := r.PostFormValue("return")

	user, err := c.users.GetByUsername(ctx, username)
	if err != nil {
		if repository.IsNotFound(err) {
			httperrors.WriteError(w, httperrors.ErrUserNotFound)
			return
		}
		log.Error("user lookup failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	cookie, err := c.sessions.Create(ctx, user.ID)
	if err != nil {
		log.Error("session create failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}
	http.SetCookie(w, cookie)

	log.Info("login ok", logger.UserID(user.ID))

	if returnToken != "" {
		http.Redirect(w, r, "/connect/authorize?return="+template.URLQueryEscaper(returnToken), http.StatusFound)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
