package oauth

import (
	"errors"
	"net/url"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/janus/internal/jwt"
)

// redirectTokenTyp marks continuation tokens in the JWT header so an id
// token can never be replayed as a continuation and vice versa.
const redirectTokenTyp = "redirect"

// DefaultContinuationTTL bounds how long an interrupted authorization flow
// can stay parked at login or consent before the user has to start over.
const DefaultContinuationTTL = time.Hour

var ErrContinuationInvalid = errors.New("invalid_continuation_token")

// ContinuationCodec mints and verifies the signed tokens that carry a
// pending authorization request across login and consent redirects. The
// token replaces any server-side session affinity: whoever presents it can
// resume the flow it encodes, within its validity window.
type ContinuationCodec struct {
	Issuer *jwt.Issuer
	TTL    time.Duration
}

func NewContinuationCodec(issuer *jwt.Issuer) *ContinuationCodec {
	return &ContinuationCodec{Issuer: issuer, TTL: DefaultContinuationTTL}
}

// Encode signs a continuation token for the given path and query parameters.
func (c *ContinuationCodec) Encode(path string, params url.Values) (string, error) {
	now := time.Now().UTC()
	claims := jwtv5.MapClaims{
		"iss":    c.Issuer.Iss,
		"path":   path,
		"params": params.Encode(),
		"iat":    now.Unix(),
		"nbf":    now.Unix(),
		"exp":    now.Add(c.TTL).Unix(),
	}
	return c.Issuer.SignRaw(redirectTokenTyp, claims)
}

// Decode verifies a continuation token and recovers the path and parameters
// it was minted for. Tampered, expired or wrong-use tokens all collapse into
// ErrContinuationInvalid; the flow cannot be resumed from a bad token.
func (c *ContinuationCodec) Decode(token string) (string, url.Values, error) {
	claims, err := c.Issuer.Parse(token, redirectTokenTyp)
	if err != nil {
		return "", nil, ErrContinuationInvalid
	}
	if iss, _ := claims["iss"].(string); iss != c.Issuer.Iss {
		return "", nil, ErrContinuationInvalid
	}
	path, _ := claims["path"].(string)
	if path == "" {
		return "", nil, ErrContinuationInvalid
	}
	encoded, _ := claims["params"].(string)
	params, err := url.ParseQuery(encoded)
	if err != nil {
		return "", nil, ErrContinuationInvalid
	}
	return path, params, nil
}

// EncodeRequest is a convenience wrapper that parks a parsed authorization
// request for later resumption at path.
func (c *ContinuationCodec) EncodeRequest(path string, req *AuthorizeRequest) (string, error) {
	return c.Encode(path, req.Values())
}

// DecodeRequest recovers a parked authorization request. The parameters were
// validated before the token was minted, so a parse failure here means the
// token itself is damaged.
func (c *ContinuationCodec) DecodeRequest(token string) (string, *AuthorizeRequest, error) {
	path, params, err := c.Decode(token)
	if err != nil {
		return "", nil, err
	}
	req, state := ParseAuthorizeRequest(params)
	if !state.Valid() {
		return "", nil, ErrContinuationInvalid
	}
	return path, req, nil
}
