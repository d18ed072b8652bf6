package jwt

import (
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Parse valida firma (HS256), chequea el header "typ" contra wantTyp y
// valida exp/nbf. Devuelve las claims como MapClaims.
func (i *Issuer) Parse(token, wantTyp string) (jwtv5.MapClaims, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) {
		return i.key, nil
	}

	tok, err := jwtv5.Parse(token, keyfunc,
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	if typ, _ := tok.Header["typ"].(string); typ != wantTyp {
		return nil, ErrWrongTokenUse
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
