// Package oidc contiene los services para endpoints OIDC/Discovery.
package oidc

import (
	"context"
	"strings"
)

// DiscoveryMetadata es el documento de /.well-known/openid-configuration.
type DiscoveryMetadata struct {
	Issuer                           string   `json:"issuer"`
	AuthorizationEndpoint            string   `json:"authorization_endpoint"`
	TokenEndpoint                    string   `json:"token_endpoint"`
	UserinfoEndpoint                 string   `json:"userinfo_endpoint"`
	JWKSURI                          string   `json:"jwks_uri"`
	ResponseTypesSupported           []string `json:"response_types_supported"`
	ResponseModesSupported           []string `json:"response_modes_supported"`
	GrantTypesSupported              []string `json:"grant_types_supported"`
	SubjectTypesSupported            []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported []string `json:"id_token_signing_alg_values_supported"`
	ScopesSupported                  []string `json:"scopes_supported"`
	TokenEndpointAuthMethods         []string `json:"token_endpoint_auth_methods_supported"`
	ClaimsSupported                  []string `json:"claims_supported"`
}

// DiscoveryService arma el documento de discovery a partir del issuer.
type DiscoveryService struct {
	issuer string
}

func NewDiscoveryService(issuer string) *DiscoveryService {
	return &DiscoveryService{issuer: strings.TrimRight(issuer, "/")}
}

func (s *DiscoveryService) GetDiscovery(_ context.Context) DiscoveryMetadata {
	base := s.issuer
	return DiscoveryMetadata{
		Issuer:                base,
		AuthorizationEndpoint: base + "/connect/authorize",
		TokenEndpoint:         base + "/connect/token",
		UserinfoEndpoint:      base + "/connect/userinfo",
		JWKSURI:               base + "/connect/jwks",
		ResponseTypesSupported: []string{
			"code", "token", "id_token",
			"code token", "code id_token", "token id_token",
			"code token id_token", "none",
		},
		ResponseModesSupported:           []string{"query", "fragment"},
		GrantTypesSupported:              []string{"authorization_code", "implicit"},
		SubjectTypesSupported:            []string{"public"},
		IDTokenSigningAlgValuesSupported: []string{"HS256"},
		ScopesSupported:                  []string{"openid", "profile", "email"},
		TokenEndpointAuthMethods:         []string{"client_secret_basic", "client_secret_post"},
		ClaimsSupported: []string{
			"iss", "sub", "aud", "exp", "iat", "nonce",
			"name", "given_name", "family_name", "email", "email_verified",
		},
	}
}

// Issuer expone el issuer normalizado (para webfinger).
func (s *DiscoveryService) Issuer() string {
	return s.issuer
}
