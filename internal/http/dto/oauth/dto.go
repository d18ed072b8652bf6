// Package oauth contains wire-level types for the authorization endpoints.
package oauth

import "time"

// AuthResultType discriminates what the controller should do with a result.
type AuthResultType string

const (
	// AuthResultRedirect sends the user agent to RedirectURL (login, consent
	// or the client's redirect_uri with the issued artifacts).
	AuthResultRedirect AuthResultType = "redirect"
	// AuthResultError renders an error page to the user agent. Errors are
	// never forwarded to a redirect_uri that did not pass validation.
	AuthResultError AuthResultType = "error"
)

// AuthResult is the decision produced by the authorize flow for one request.
type AuthResult struct {
	Type        AuthResultType
	RedirectURL string
}

// ConsentPage carries everything the consent template needs.
type ConsentPage struct {
	ClientID    string
	ClientName  string
	Scopes      []string
	ReturnToken string
}

// SessionPayload is what the session cache stores per cookie.
type SessionPayload struct {
	UserID  string    `json:"user_id"`
	Expires time.Time `json:"expires"`
}

// AccessTokenPayload is the cache record behind an opaque access token.
type AccessTokenPayload struct {
	UserID   string    `json:"user_id"`
	ClientID string    `json:"client_id"`
	Scopes   []string  `json:"scopes"`
	Expires  time.Time `json:"expires"`
}
