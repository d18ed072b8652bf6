package oauth

import (
	"net/url"
	"strings"

	"github.com/dropDatabas3/janus/internal/domain/repository"
)

// AuthorizeRequest is the parsed form of a front-channel authorization
// request. Parsing is lenient; ValidateAuthorizeRequest decides whether the
// request may proceed.
type AuthorizeRequest struct {
	Iss          string
	Aud          string
	ResponseType ResponseType
	Scopes       []string
	ClientID     string
	State        string
	Nonce        string
	RedirectURI  string
	// ResponseMode is nil when the client did not send response_mode
	// explicitly; EffectiveResponseMode falls back to the default.
	ResponseMode *ResponseMode
	Prompt       string
	Display      string
}

// ParseAuthorizeRequest builds an AuthorizeRequest from query or form values.
// Unknown parameters are ignored; malformed response_type or response_mode
// values surface as rejections rather than parse errors so the caller can
// report them alongside the rest of the validation pass.
func ParseAuthorizeRequest(values url.Values) (*AuthorizeRequest, *ValidationState) {
	state := &ValidationState{}
	req := &AuthorizeRequest{
		Iss:         values.Get("iss"),
		Aud:         values.Get("aud"),
		ClientID:    values.Get("client_id"),
		State:       values.Get("state"),
		Nonce:       values.Get("nonce"),
		RedirectURI: values.Get("redirect_uri"),
		Prompt:      values.Get("prompt"),
		Display:     values.Get("display"),
	}

	if raw := values.Get("response_type"); raw == "" {
		state.Reject("response_type", "missing required parameter")
	} else if rt, err := ParseResponseType(raw); err != nil {
		state.Reject("response_type", "%v", err)
	} else {
		req.ResponseType = rt
	}

	if raw := values.Get("scope"); raw != "" {
		req.Scopes = strings.Fields(raw)
	}

	if raw := values.Get("response_mode"); raw != "" {
		rm, err := ParseResponseMode(raw)
		if err != nil {
			state.Reject("response_mode", "%v", err)
		} else {
			req.ResponseMode = &rm
		}
	}

	return req, state
}

// Values renders the request back to url.Values suitable for embedding in a
// continuation token. Only parameters that were present survive the trip.
func (r *AuthorizeRequest) Values() url.Values {
	values := url.Values{}
	set := func(key, val string) {
		if val != "" {
			values.Set(key, val)
		}
	}
	set("iss", r.Iss)
	set("aud", r.Aud)
	values.Set("response_type", r.ResponseType.String())
	if len(r.Scopes) > 0 {
		values.Set("scope", strings.Join(r.Scopes, " "))
	}
	set("client_id", r.ClientID)
	set("state", r.State)
	set("nonce", r.Nonce)
	set("redirect_uri", r.RedirectURI)
	if r.ResponseMode != nil {
		values.Set("response_mode", r.ResponseMode.String())
	}
	set("prompt", r.Prompt)
	set("display", r.Display)
	return values
}

// HasScope reports whether scope is among the requested scopes.
func (r *AuthorizeRequest) HasScope(scope string) bool {
	for _, s := range r.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// EffectiveResponseMode returns the explicit response_mode when one was sent,
// otherwise the default for the response type.
func (r *AuthorizeRequest) EffectiveResponseMode() ResponseMode {
	if r.ResponseMode != nil {
		return *r.ResponseMode
	}
	return DefaultResponseMode(r.ResponseType)
}

// SiteOptions carries per-deployment validation policy.
type SiteOptions struct {
	// RequireOpenIDScope demands the openid scope on every request when set.
	RequireOpenIDScope bool
}

// ValidateAuthorizeRequest applies the full rule set against a parsed request
// and the client it names. Rejections accumulate; nothing about the request
// is trusted until the returned error is nil.
func ValidateAuthorizeRequest(req *AuthorizeRequest, client *repository.Client, opts SiteOptions, parsed *ValidationState) error {
	state := parsed
	if state == nil {
		state = &ValidationState{}
	}

	if req.ClientID == "" {
		state.Reject("client_id", "missing required parameter")
	} else if client == nil {
		state.Reject("client_id", "unknown client %q", req.ClientID)
	}

	if req.RedirectURI == "" {
		state.Reject("redirect_uri", "missing required parameter")
	} else if client != nil && !client.MatchesRedirectURI(req.RedirectURI) {
		state.Reject("redirect_uri", "not registered for this client")
	}

	if opts.RequireOpenIDScope && !req.HasScope("openid") {
		state.Reject("scope", "the openid scope is required")
	}

	// An id_token cannot be bound to the request without a nonce.
	if req.ResponseType.IDToken && req.Nonce == "" {
		state.Reject("nonce", "required when requesting an id_token")
	}

	if req.ResponseMode != nil {
		if err := ValidateResponseMode(*req.ResponseMode, req.ResponseType); err != nil {
			state.Reject("response_mode", "%v", err)
		}
	}

	return state.Err()
}
