package repository_test

import (
	"reflect"
	"testing"

	"github.com/dropDatabas3/janus/internal/domain/repository"
)

func TestGrant_Apply_MergeUnion(t *testing.T) {
	g := &repository.Grant{
		UserID:             "u1",
		ClientID:           "demo-web",
		PermissionsAllowed: []string{"openid", "profile"},
	}

	g.Apply(repository.GrantUpdate{
		PermissionsAdded:   []string{"profile", "email"},
		PermissionsRemoved: []string{"address"},
	})

	if !reflect.DeepEqual(g.PermissionsAllowed, []string{"openid", "profile", "email"}) {
		t.Fatalf("allowed: %v", g.PermissionsAllowed)
	}
	if !reflect.DeepEqual(g.PermissionsDenied, []string{"address"}) {
		t.Fatalf("denied: %v", g.PermissionsDenied)
	}
	if g.ModifiedAt.IsZero() || g.AccessedAt.IsZero() {
		t.Fatal("timestamps must be touched")
	}
}

func TestGrant_Apply_NoRetraction(t *testing.T) {
	g := &repository.Grant{PermissionsAllowed: []string{"openid", "email"}}

	// Denying a scope later does not retract the earlier allow.
	g.Apply(repository.GrantUpdate{PermissionsRemoved: []string{"email"}})

	if !reflect.DeepEqual(g.PermissionsAllowed, []string{"openid", "email"}) {
		t.Fatalf("allowed must be untouched: %v", g.PermissionsAllowed)
	}
	if !reflect.DeepEqual(g.PermissionsDenied, []string{"email"}) {
		t.Fatalf("denied: %v", g.PermissionsDenied)
	}
}

func TestGrant_Allowed(t *testing.T) {
	g := &repository.Grant{PermissionsAllowed: []string{"openid", "profile"}}
	got := g.Allowed([]string{"openid", "email", "profile"})
	if !reflect.DeepEqual(got, []string{"openid", "profile"}) {
		t.Fatalf("Allowed: %v", got)
	}
	if out := g.Allowed(nil); len(out) != 0 {
		t.Fatalf("empty request: %v", out)
	}
}

func TestClient_MatchesRedirectURI(t *testing.T) {
	c := &repository.Client{RedirectURIs: []string{"https://rp.example/callback"}}
	if !c.MatchesRedirectURI("https://rp.example/callback") {
		t.Fatal("exact match must pass")
	}
	for _, uri := range []string{
		"https://rp.example/callback/",
		"https://rp.example/Callback",
		"https://rp.example/callback?x=1",
		"https://evil.example/callback",
	} {
		if c.MatchesRedirectURI(uri) {
			t.Fatalf("must not match %q", uri)
		}
	}
}

func TestClient_VerifySecret(t *testing.T) {
	hash, err := repository.HashClientSecret("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	c := &repository.Client{Type: repository.ClientTypeConfidential, SecretHash: hash}
	if !c.VerifySecret("s3cret") {
		t.Fatal("correct secret rejected")
	}
	if c.VerifySecret("wrong") {
		t.Fatal("wrong secret accepted")
	}
	if (&repository.Client{}).VerifySecret("") {
		t.Fatal("public client must never verify")
	}
}
