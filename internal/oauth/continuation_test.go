package oauth_test

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dropDatabas3/janus/internal/jwt"
	"github.com/dropDatabas3/janus/internal/oauth"
)

func testCodec(t *testing.T) *oauth.ContinuationCodec {
	t.Helper()
	issuer, err := jwt.NewIssuer("https://auth.example", []byte(strings.Repeat("k", 32)))
	if err != nil {
		t.Fatal(err)
	}
	return oauth.NewContinuationCodec(issuer)
}

func TestContinuation_RoundTrip(t *testing.T) {
	codec := testCodec(t)
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {"demo-web"},
		"state":         {"abc"},
	}

	token, err := codec.Encode("/connect/authorize", params)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	path, got, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if path != "/connect/authorize" {
		t.Fatalf("path: %q", path)
	}
	if got.Get("client_id") != "demo-web" || got.Get("state") != "abc" {
		t.Fatalf("params lost: %v", got)
	}
}

func TestContinuation_RequestRoundTrip(t *testing.T) {
	codec := testCodec(t)
	req, state := oauth.ParseAuthorizeRequest(url.Values{
		"response_type": {"code id_token"},
		"client_id":     {"demo-web"},
		"redirect_uri":  {"https://rp.example/callback"},
		"scope":         {"openid"},
		"nonce":         {"n-1"},
		"state":         {"s-1"},
	})
	if !state.Valid() {
		t.Fatalf("parse: %v", state.Err())
	}

	token, err := codec.EncodeRequest("/connect/consent", req)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	path, got, err := codec.DecodeRequest(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if path != "/connect/consent" {
		t.Fatalf("path: %q", path)
	}
	if got.ClientID != req.ClientID || got.Nonce != req.Nonce || got.ResponseType != req.ResponseType {
		t.Fatalf("request mismatch:\n%+v\n%+v", req, got)
	}
}

func TestContinuation_Expired(t *testing.T) {
	codec := testCodec(t)
	codec.TTL = -time.Minute

	token, err := codec.Encode("/connect/authorize", url.Values{"state": {"x"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, _, err := codec.Decode(token); !errors.Is(err, oauth.ErrContinuationInvalid) {
		t.Fatalf("expired token: got %v", err)
	}
}

func TestContinuation_Tampered(t *testing.T) {
	codec := testCodec(t)
	token, err := codec.Encode("/connect/authorize", url.Values{"state": {"x"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Flip a character in the payload segment.
	parts := strings.SplitN(token, ".", 3)
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, _, err := codec.Decode(tampered); !errors.Is(err, oauth.ErrContinuationInvalid) {
		t.Fatalf("tampered token: got %v", err)
	}
}

func TestContinuation_RejectsIDToken(t *testing.T) {
	codec := testCodec(t)

	// An id_token signed with the same key must not decode as a continuation.
	idToken, _, err := codec.Issuer.IssueIDToken("u1", "demo-web", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := codec.Decode(idToken); !errors.Is(err, oauth.ErrContinuationInvalid) {
		t.Fatalf("id_token accepted as continuation: %v", err)
	}
}

func TestContinuation_WrongIssuer(t *testing.T) {
	codec := testCodec(t)
	other, err := jwt.NewIssuer("https://other.example", []byte(strings.Repeat("k", 32)))
	if err != nil {
		t.Fatal(err)
	}
	otherCodec := oauth.NewContinuationCodec(other)

	token, err := otherCodec.Encode("/connect/authorize", url.Values{"state": {"x"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := codec.Decode(token); !errors.Is(err, oauth.ErrContinuationInvalid) {
		t.Fatalf("foreign issuer accepted: %v", err)
	}
}
