package memory_test

import (
	"context"
	"testing"

	"github.com/dropDatabas3/janus/internal/domain/repository"
	"github.com/dropDatabas3/janus/internal/store/memory"
)

func TestClientRepo_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()

	created, err := st.Clients.Create(ctx, repository.ClientInput{
		ClientID:     "demo-web",
		Name:         "Demo",
		Secret:       "s3cret",
		RedirectURIs: []string{"https://rp.example/callback"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("create must assign an id")
	}
	if created.Type != repository.ClientTypeConfidential {
		t.Fatalf("client with secret must be confidential, got %q", created.Type)
	}

	got, err := st.Clients.Get(ctx, "demo-web")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.VerifySecret("s3cret") {
		t.Fatal("secret must verify against the stored hash")
	}

	if _, err := st.Clients.Get(ctx, "missing"); !repository.IsNotFound(err) {
		t.Fatalf("missing client: got %v", err)
	}
}

func TestClientRepo_PublicWithoutSecret(t *testing.T) {
	st := memory.NewStore()
	c, err := st.Clients.Create(context.Background(), repository.ClientInput{
		ClientID:     "spa",
		RedirectURIs: []string{"https://spa.example/cb"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if c.Type != repository.ClientTypePublic || c.SecretHash != "" {
		t.Fatalf("expected public client, got %+v", c)
	}
}

func TestClientRepo_Conflict(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	input := repository.ClientInput{ClientID: "dup", RedirectURIs: []string{"https://rp.example/cb"}}

	if _, err := st.Clients.Create(ctx, input); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Clients.Create(ctx, input); !repository.IsConflict(err) {
		t.Fatalf("duplicate client_id: got %v", err)
	}
}

func TestUserRepo_Lookup(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()

	if err := st.Users.Put(repository.User{Username: "alice", Email: "alice@example.com"}); err != nil {
		t.Fatal(err)
	}
	u, err := st.Users.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("by username: %v", err)
	}
	if u.ID == "" {
		t.Fatal("Put must assign an id")
	}
	again, err := st.Users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if again.Email != "alice@example.com" {
		t.Fatalf("user fields: %+v", again)
	}
	if _, err := st.Users.GetByUsername(ctx, "bob"); !repository.IsNotFound(err) {
		t.Fatalf("missing user: got %v", err)
	}
}

func TestGrantRepo_CreateOrUpdate(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()

	g1, err := st.Grants.CreateOrUpdate(ctx, repository.GrantUpdate{
		UserID: "u1", ClientID: "demo-web",
		PermissionsAdded: []string{"openid"},
	})
	if err != nil {
		t.Fatal(err)
	}
	g2, err := st.Grants.CreateOrUpdate(ctx, repository.GrantUpdate{
		UserID: "u1", ClientID: "demo-web",
		PermissionsAdded:   []string{"profile"},
		PermissionsRemoved: []string{"email"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if g2.ID != g1.ID {
		t.Fatal("second update must merge into the existing grant")
	}

	got, err := st.Grants.Get(ctx, "u1", "demo-web")
	if err != nil {
		t.Fatal(err)
	}
	allowed := got.Allowed([]string{"openid", "profile", "email"})
	if len(allowed) != 2 {
		t.Fatalf("allowed after merge: %v", got.PermissionsAllowed)
	}
	if len(got.PermissionsDenied) != 1 || got.PermissionsDenied[0] != "email" {
		t.Fatalf("denied: %v", got.PermissionsDenied)
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()

	err := st.Seed(ctx,
		[]repository.ClientInput{{ClientID: "demo-web", RedirectURIs: []string{"https://rp.example/cb"}}},
		[]repository.User{{Username: "alice"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	// Seeding twice must be idempotent for clients.
	err = st.Seed(ctx,
		[]repository.ClientInput{{ClientID: "demo-web", RedirectURIs: []string{"https://rp.example/cb"}}},
		nil,
	)
	if err != nil {
		t.Fatalf("re-seed: %v", err)
	}
}
