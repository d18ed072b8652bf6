package oauth

import (
	"html/template"
	"net/http"

	"github.com/dropDatabas3/janus/internal/observability/logger"

	svc "github.com/dropDatabas3/janus/internal/http/services/oauth"
)

// consentTemplate is the minimal consent form. Deployments that want a real
// UI front the flow with their own pages and drive the same endpoints.
var consentTemplate = template.Must(template.New("consent").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Authorize {{.ClientName}}</title></head>
<body>
<h1>{{.ClientName}} is requesting access</h1>
<form method="POST" action="/connect/consent">
  <input type="hidden" name="return" value="{{.ReturnToken}}">
  <ul>
  {{range .Scopes}}
    <li><label><input type="checkbox" name="permissions[]" value="{{.}}" checked> {{.}}</label></li>
  {{end}}
  </ul>
  <button type="submit">Allow</button>
</form>
</body>
</html>
`))

// ConsentController handles GET/POST /connect/consent.
type ConsentController struct {
	service *svc.ConsentService
}

func NewConsentController(s *svc.ConsentService) *ConsentController {
	return &ConsentController{service: s}
}

// Show handles GET /connect/consent?return=<token>.
func (c *ConsentController) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ConsentController.Show"))

	page, err := c.service.Show(ctx, r, r.URL.Query().Get("return"))
	if err != nil {
		writeFlowError(w, log, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := consentTemplate.Execute(w, page); err != nil {
		log.Error("consent render failed", logger.Err(err))
	}
}

// Submit handles POST /connect/consent (form: permissions[], return).
func (c *ConsentController) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ConsentController.Submit"))

	if err := r.ParseForm(); err != nil {
		writeFlowError(w, log, err)
		return
	}
	returnToken := r.PostFormValue("return")
	granted := r.PostForm["permissions[]"]

	result, err := c.service.Submit(ctx, r, returnToken, granted)
	if err != nil {
		writeFlowError(w, log, err)
		return
	}
	writeResult(w, r, result)
}
