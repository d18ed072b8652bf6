// Package oauth contains the protocol core of the authorization server:
// the authorize request model and validation, response type/mode handling,
// the continuation token codec and token issuance.
package oauth

import (
	"fmt"
	"strings"
)

// ResponseType is the parsed response_type parameter: three independent
// flags. "none" is the all-false case.
//
// Authorization Code flow: "code"
// Implicit flow: "id_token" or "id_token token"
// Hybrid flow: "code id_token", "code token", "code id_token token"
type ResponseType struct {
	Code    bool
	Token   bool
	IDToken bool
}

// ParseResponseType parses a space-joined response_type value.
// Order is irrelevant; unknown tokens are a hard error.
func ParseResponseType(s string) (ResponseType, error) {
	var rt ResponseType
	for _, part := range strings.Split(s, " ") {
		switch part {
		case "code":
			rt.Code = true
		case "token":
			rt.Token = true
		case "id_token":
			rt.IDToken = true
		case "none":
			rt = ResponseType{}
		default:
			return ResponseType{}, fmt.Errorf("unknown response_type %q", s)
		}
	}
	return rt, nil
}

// None reports whether no response type was requested.
func (rt ResponseType) None() bool {
	return !rt.Code && !rt.Token && !rt.IDToken
}

// String renders the canonical space-joined form, or "none".
func (rt ResponseType) String() string {
	var parts []string
	if rt.Code {
		parts = append(parts, "code")
	}
	if rt.Token {
		parts = append(parts, "token")
	}
	if rt.IDToken {
		parts = append(parts, "id_token")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

// MarshalText serializes as the space-joined form (also used by JSON).
func (rt ResponseType) MarshalText() ([]byte, error) {
	return []byte(rt.String()), nil
}

// UnmarshalText parses the space-joined form (also used by JSON).
func (rt *ResponseType) UnmarshalText(b []byte) error {
	parsed, err := ParseResponseType(string(b))
	if err != nil {
		return err
	}
	*rt = parsed
	return nil
}
