package oauth

import (
	"net/url"
	"strconv"
)

// TokenTypeBearer is the only token_type this server issues.
const TokenTypeBearer = "Bearer"

// Token is the union of everything an authorization response or a token
// endpoint response can carry. Empty fields are omitted on the wire, so the
// same struct serves code-only redirects, hybrid responses and token
// endpoint JSON bodies.
type Token struct {
	Code         string `json:"code,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	State        string `json:"state,omitempty"`
}

// QueryPairs renders the non-empty fields as url.Values for assembly into a
// redirect query string or fragment. The refresh token is deliberately left
// out: it is only ever delivered in the token endpoint response body, never
// over the front channel.
func (t *Token) QueryPairs() url.Values {
	values := url.Values{}
	set := func(key, val string) {
		if val != "" {
			values.Set(key, val)
		}
	}
	set("code", t.Code)
	set("access_token", t.AccessToken)
	set("token_type", t.TokenType)
	set("id_token", t.IDToken)
	if t.ExpiresIn > 0 {
		values.Set("expires_in", strconv.FormatInt(t.ExpiresIn, 10))
	}
	set("state", t.State)
	return values
}
