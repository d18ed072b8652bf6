package ledger

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/dropDatabas3/janus/internal/cache"
	"github.com/dropDatabas3/janus/internal/metrics"
	"github.com/dropDatabas3/janus/internal/oauth"
	tokens "github.com/dropDatabas3/janus/internal/security/token"
)

const authCodeKeyPrefix = "authcode:"

// CacheLedger persists entries in a cache backend (Redis or in-process) so
// codes survive restarts and can be shared across replicas. The cache key is
// a hash of the code; raw codes are never used as storage keys.
//
// The read-modify-write in Exchange is serialized per process. Multi-replica
// deployments that need strict single-redemption across nodes should point
// every replica at the same Redis and keep replica-affinity on /connect/token.
type CacheLedger struct {
	mu      sync.Mutex
	client  cache.Client
	issuer  *oauth.TokenIssuer
	codeTTL time.Duration
	now     func() time.Time
}

func NewCacheLedger(client cache.Client, issuer *oauth.TokenIssuer) *CacheLedger {
	return &CacheLedger{
		client:  client,
		issuer:  issuer,
		codeTTL: issuer.Issuer.CodeTTL,
		now:     time.Now,
	}
}

func authCodeKey(code string) string {
	return authCodeKeyPrefix + tokens.SHA256Base64URL(code)
}

func (l *CacheLedger) Issue(ctx context.Context, userID string, req *oauth.AuthorizeRequest) (*oauth.Token, *Entry, error) {
	tok, err := l.issuer.CreateCodeToken(userID, req)
	if err != nil {
		return nil, nil, err
	}
	if tok.Code == "" {
		return tok, nil, nil
	}

	now := l.now().UTC()
	entry := &Entry{
		Code:      tok.Code,
		UserID:    userID,
		Request:   req,
		Params:    req.Values().Encode(),
		Token:     tok,
		State:     StateIssued,
		CreatedAt: now,
		ExpiresAt: now.Add(l.codeTTL),
	}
	if err := l.put(ctx, entry); err != nil {
		return nil, nil, err
	}
	metrics.AuthCodesIssued.Inc()
	return tok, entry, nil
}

func (l *CacheLedger) Exchange(ctx context.Context, code string) (*oauth.Token, *Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, err := l.get(ctx, code)
	if err != nil {
		return nil, nil, ErrAuthCode
	}
	if entry.State != StateIssued || entry.Expired(l.now().UTC()) {
		if entry.State != StateIssued {
			metrics.AuthCodeReplays.Inc()
		}
		entry.State = StateRevoked
		_ = l.put(ctx, entry)
		return nil, nil, ErrAuthCode
	}
	entry.State = StateExchanged

	tok, err := l.issuer.CreateAuthToken(entry.UserID, entry.Request, entry.Token)
	if err != nil {
		return nil, nil, err
	}
	entry.Token = tok
	if err := l.put(ctx, entry); err != nil {
		return nil, nil, err
	}
	return tok, entry, nil
}

func (l *CacheLedger) put(ctx context.Context, entry *Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	// Revoked entries outlive the redemption window so replay attempts keep
	// failing against the poisoned record rather than a cache miss.
	ttl := l.codeTTL * 2
	return l.client.Set(ctx, authCodeKey(entry.Code), raw, ttl)
}

func (l *CacheLedger) get(ctx context.Context, code string) (*Entry, error) {
	raw, err := l.client.Get(ctx, authCodeKey(code))
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, err
	}
	params, err := url.ParseQuery(entry.Params)
	if err != nil {
		return nil, err
	}
	req, state := oauth.ParseAuthorizeRequest(params)
	if !state.Valid() {
		return nil, ErrAuthCode
	}
	entry.Request = req
	return &entry, nil
}
