package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/janus/internal/metrics"
	"github.com/dropDatabas3/janus/internal/oauth"
)

// MemoryLedger keeps entries in a map guarded by a mutex. The check-then-mark
// step of Exchange runs inside the lock so a double redemption race cannot
// have both branches succeed.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string]*Entry
	issuer  *oauth.TokenIssuer
	codeTTL time.Duration
	now     func() time.Time
}

func NewMemoryLedger(issuer *oauth.TokenIssuer) *MemoryLedger {
	return &MemoryLedger{
		entries: make(map[string]*Entry),
		issuer:  issuer,
		codeTTL: issuer.Issuer.CodeTTL,
		now:     time.Now,
	}
}

func (l *MemoryLedger) Issue(_ context.Context, userID string, req *oauth.AuthorizeRequest) (*oauth.Token, *Entry, error) {
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
		Token:     tok,
		State:     StateIssued,
		CreatedAt: now,
		ExpiresAt: now.Add(l.codeTTL),
	}

	l.mu.Lock()
	l.entries[entry.Code] = entry
	l.mu.Unlock()

	metrics.AuthCodesIssued.Inc()
	return tok, entry, nil
}

func (l *MemoryLedger) Exchange(_ context.Context, code string) (*oauth.Token, *Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[code]
	if !ok {
		return nil, nil, ErrAuthCode
	}
	if entry.State != StateIssued {
		// A second attempt is evidence of leakage; poison the code.
		entry.State = StateRevoked
		metrics.AuthCodeReplays.Inc()
		return nil, nil, ErrAuthCode
	}
	if entry.Expired(l.now().UTC()) {
		entry.State = StateRevoked
		return nil, nil, ErrAuthCode
	}
	entry.State = StateExchanged

	tok, err := l.issuer.CreateAuthToken(entry.UserID, entry.Request, entry.Token)
	if err != nil {
		return nil, nil, err
	}
	entry.Token = tok
	return tok, entry, nil
}

// SetNow overrides the ledger clock. Test use only.
func (l *MemoryLedger) SetNow(now func() time.Time) {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
}

// Entry looks up an entry by code for inspection. Test and admin use only;
// redemption goes through Exchange.
func (l *MemoryLedger) Entry(code string) (*Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[code]
	return e, ok
}
