package ledger_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/janus/internal/cache"
	"github.com/dropDatabas3/janus/internal/jwt"
	"github.com/dropDatabas3/janus/internal/ledger"
	"github.com/dropDatabas3/janus/internal/oauth"
)

func testIssuer(t *testing.T) *oauth.TokenIssuer {
	t.Helper()
	issuer, err := jwt.NewIssuer("https://auth.example", []byte(strings.Repeat("k", 32)))
	if err != nil {
		t.Fatal(err)
	}
	return oauth.NewTokenIssuer(issuer)
}

func codeRequest(t *testing.T, responseType string) *oauth.AuthorizeRequest {
	t.Helper()
	req, state := oauth.ParseAuthorizeRequest(url.Values{
		"response_type": {responseType},
		"client_id":     {"demo-web"},
		"redirect_uri":  {"https://rp.example/callback"},
		"scope":         {"openid profile"},
		"state":         {"s-1"},
		"nonce":         {"n-1"},
	})
	if !state.Valid() {
		t.Fatalf("parse: %v", state.Err())
	}
	return req
}

func ledgers(t *testing.T) map[string]ledger.Ledger {
	return map[string]ledger.Ledger{
		"memory": ledger.NewMemoryLedger(testIssuer(t)),
		"cache":  ledger.NewCacheLedger(cache.NewMemory("test"), testIssuer(t)),
	}
}

func TestLedger_IssueAndExchange(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tok, entry, err := l.Issue(ctx, "u1", codeRequest(t, "code"))
			if err != nil {
				t.Fatalf("issue: %v", err)
			}
			if tok.Code == "" || entry == nil {
				t.Fatal("code flow must produce a code and an entry")
			}
			if tok.RefreshToken == "" {
				t.Fatal("code flow must carry a refresh token")
			}
			if tok.AccessToken != "" {
				t.Fatal("plain code flow must not mint an access token yet")
			}

			final, got, err := l.Exchange(ctx, tok.Code)
			if err != nil {
				t.Fatalf("exchange: %v", err)
			}
			if got.UserID != "u1" {
				t.Fatalf("entry user: %q", got.UserID)
			}
			if final.AccessToken == "" || final.TokenType != oauth.TokenTypeBearer {
				t.Fatalf("exchange result incomplete: %+v", final)
			}
			if final.IDToken == "" {
				t.Fatal("openid scope must produce an id_token at exchange")
			}
			if final.RefreshToken != tok.RefreshToken {
				t.Fatal("refresh token must survive the exchange")
			}
		})
	}
}

func TestLedger_ReplayPoisonsCode(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tok, _, err := l.Issue(ctx, "u1", codeRequest(t, "code"))
			if err != nil {
				t.Fatal(err)
			}
			if _, _, err := l.Exchange(ctx, tok.Code); err != nil {
				t.Fatalf("first exchange: %v", err)
			}
			if _, _, err := l.Exchange(ctx, tok.Code); !errors.Is(err, ledger.ErrAuthCode) {
				t.Fatalf("second exchange: got %v, want ErrAuthCode", err)
			}
			// Poisoned: a third attempt keeps failing the same way.
			if _, _, err := l.Exchange(ctx, tok.Code); !errors.Is(err, ledger.ErrAuthCode) {
				t.Fatalf("third exchange: got %v, want ErrAuthCode", err)
			}
		})
	}
}

func TestLedger_UnknownCode(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			if _, _, err := l.Exchange(context.Background(), "never-issued"); !errors.Is(err, ledger.ErrAuthCode) {
				t.Fatalf("got %v, want ErrAuthCode", err)
			}
		})
	}
}

func TestLedger_NoCodeMeansNoEntry(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			tok, entry, err := l.Issue(context.Background(), "u1", codeRequest(t, "id_token token"))
			if err != nil {
				t.Fatal(err)
			}
			if entry != nil {
				t.Fatal("implicit flow must not record a ledger entry")
			}
			if tok.Code != "" {
				t.Fatal("implicit flow must not mint a code")
			}
			if tok.AccessToken == "" || tok.IDToken == "" {
				t.Fatalf("implicit flow result incomplete: %+v", tok)
			}
			if tok.RefreshToken != "" {
				t.Fatal("refresh tokens are reserved for code flows")
			}
		})
	}
}

func TestMemoryLedger_ExpiredCode(t *testing.T) {
	l := ledger.NewMemoryLedger(testIssuer(t))
	ctx := context.Background()

	tok, _, err := l.Issue(ctx, "u1", codeRequest(t, "code"))
	if err != nil {
		t.Fatal(err)
	}

	l.SetNow(func() time.Time { return time.Now().Add(time.Hour) })
	if _, _, err := l.Exchange(ctx, tok.Code); !errors.Is(err, ledger.ErrAuthCode) {
		t.Fatalf("expired code: got %v, want ErrAuthCode", err)
	}
	entry, ok := l.Entry(tok.Code)
	if !ok || entry.State != ledger.StateRevoked {
		t.Fatalf("expired code must be revoked, got %+v", entry)
	}
}

func TestMemoryLedger_ConcurrentExchange(t *testing.T) {
	l := ledger.NewMemoryLedger(testIssuer(t))
	ctx := context.Background()

	tok, _, err := l.Issue(ctx, "u1", codeRequest(t, "code"))
	if err != nil {
		t.Fatal(err)
	}

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := l.Exchange(ctx, tok.Code)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok int
	for err := range results {
		if err == nil {
			ok++
		} else if !errors.Is(err, ledger.ErrAuthCode) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("exactly one exchange may succeed, got %d", ok)
	}
}

func TestState_String(t *testing.T) {
	cases := map[ledger.State]string{
		ledger.StateIssued:    "issued",
		ledger.StateExchanged: "exchanged",
		ledger.StateRevoked:   "revoked",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Fatalf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
