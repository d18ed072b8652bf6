package oauth

import (
	"fmt"

	"github.com/dropDatabas3/janus/internal/jwt"
	tokens "github.com/dropDatabas3/janus/internal/security/token"
)

const opaqueTokenBytes = 32

// TokenIssuer assembles the Token for a completed authorization, minting
// opaque codes and access tokens and signing ID tokens with the binding
// hashes that tie them to their sibling artifacts.
type TokenIssuer struct {
	Issuer *jwt.Issuer
}

func NewTokenIssuer(issuer *jwt.Issuer) *TokenIssuer {
	return &TokenIssuer{Issuer: issuer}
}

// CreateCodeToken builds the token set produced at authorize-completion
// time. Which fields are populated follows the response type: a code for
// code flows, an access token for implicit/hybrid flows, and an ID token
// carrying at_hash/c_hash for whichever siblings exist. Refresh tokens are
// minted only when a code is part of the response.
func (ti *TokenIssuer) CreateCodeToken(userID string, req *AuthorizeRequest) (*Token, error) {
	tok := &Token{State: req.State}

	if req.ResponseType.Code {
		code, err := tokens.GenerateOpaqueToken(opaqueTokenBytes)
		if err != nil {
			return nil, fmt.Errorf("mint code: %w", err)
		}
		tok.Code = code

		refresh, err := tokens.GenerateOpaqueToken(opaqueTokenBytes)
		if err != nil {
			return nil, fmt.Errorf("mint refresh token: %w", err)
		}
		tok.RefreshToken = refresh
	}

	if req.ResponseType.Token {
		access, err := tokens.GenerateOpaqueToken(opaqueTokenBytes)
		if err != nil {
			return nil, fmt.Errorf("mint access token: %w", err)
		}
		tok.AccessToken = access
		tok.TokenType = TokenTypeBearer
		tok.ExpiresIn = int64(ti.Issuer.TokenTTL.Seconds())
	}

	if req.ResponseType.IDToken {
		idToken, err := ti.signIDToken(userID, req, tok)
		if err != nil {
			return nil, err
		}
		tok.IDToken = idToken
	}

	return tok, nil
}

// CreateAuthToken builds the token endpoint response for a redeemed code.
// An access token minted at authorize time is reused; otherwise a fresh one
// is minted here. The ID token is always re-signed so its at_hash binds the
// final access token value.
func (ti *TokenIssuer) CreateAuthToken(userID string, req *AuthorizeRequest, codeToken *Token) (*Token, error) {
	tok := &Token{
		AccessToken:  codeToken.AccessToken,
		RefreshToken: codeToken.RefreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int64(ti.Issuer.TokenTTL.Seconds()),
		State:        req.State,
	}

	if tok.AccessToken == "" {
		access, err := tokens.GenerateOpaqueToken(opaqueTokenBytes)
		if err != nil {
			return nil, fmt.Errorf("mint access token: %w", err)
		}
		tok.AccessToken = access
	}

	if req.HasScope("openid") {
		idToken, err := ti.signIDToken(userID, req, tok)
		if err != nil {
			return nil, err
		}
		tok.IDToken = idToken
	}

	return tok, nil
}

func (ti *TokenIssuer) signIDToken(userID string, req *AuthorizeRequest, tok *Token) (string, error) {
	extra := map[string]any{}
	if req.Nonce != "" {
		extra["nonce"] = req.Nonce
	}
	if tok.AccessToken != "" {
		extra["at_hash"] = ti.Issuer.BindingHash(tok.AccessToken)
	}
	if tok.Code != "" {
		extra["c_hash"] = ti.Issuer.BindingHash(tok.Code)
	}
	signed, _, err := ti.Issuer.IssueIDToken(userID, req.ClientID, extra)
	if err != nil {
		return "", fmt.Errorf("sign id token: %w", err)
	}
	return signed, nil
}
