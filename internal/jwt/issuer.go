package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Errores comunes de firma/validación.
var (
	ErrInvalidToken  = errors.New("invalid_jwt")
	ErrInvalidIssuer = errors.New("invalid_issuer")
	ErrWrongTokenUse = errors.New("wrong_token_use")
	ErrEmptyKey      = errors.New("empty_signing_key")
)

// Issuer firma tokens con una clave simétrica del deployment (HS256).
// El header "typ" distingue los usos: "JWT" para id tokens, "redirect"
// para tokens de continuación del flujo de autorización.
type Issuer struct {
	Iss      string        // "iss"
	key      []byte        // clave HMAC del sitio
	TokenTTL time.Duration // TTL de access/id tokens
	CodeTTL  time.Duration // TTL de authorization codes
}

// NewIssuer construye un Issuer con los TTL por defecto (24h / 10m).
func NewIssuer(iss string, key []byte) (*Issuer, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	return &Issuer{
		Iss:      iss,
		key:      key,
		TokenTTL: 24 * time.Hour,
		CodeTTL:  10 * time.Minute,
	}, nil
}

// SignRaw firma un MapClaims arbitrario con el header typ indicado.
func (i *Issuer) SignRaw(typ string, claims jwtv5.MapClaims) (string, error) {
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = typ
	return tk.SignedString(i.key)
}

// IssueIDToken emite un ID Token OIDC con claims estándar y extras.
func (i *Issuer) IssueIDToken(sub, aud string, extra map[string]any) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.TokenTTL)

	claims := jwtv5.MapClaims{
		"iss": i.Iss,
		"sub": sub,
		"aud": aud,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": exp.Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}

	signed, err := i.SignRaw("JWT", claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// BindingHash calcula el valor at_hash/c_hash para ligar un token a un
// id_token: MAC-SHA256 del token con la clave del sitio, truncado a la
// mitad y codificado base64url sin padding.
func (i *Issuer) BindingHash(token string) string {
	mac := hmac.New(sha256.New, i.key)
	mac.Write([]byte(token))
	sum := mac.Sum(nil)
	return base64.RawURLEncoding.EncodeToString(sum[:len(sum)/2])
}
