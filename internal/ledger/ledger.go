package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/janus/internal/oauth"
)

// ErrAuthCode is the single error surfaced for every failed exchange.
// Replayed, revoked, expired and unknown codes are deliberately not
// distinguished so a caller probing the endpoint learns nothing.
var ErrAuthCode = errors.New("auth_code_error")

// State is the lifecycle of an issued authorization code. The transitions
// are Issued -> Exchanged on the first redemption and anything -> Revoked
// when a redemption is attempted on a code that is no longer Issued.
type State int

const (
	StateIssued State = iota
	StateExchanged
	StateRevoked
)

func (s State) String() string {
	switch s {
	case StateIssued:
		return "issued"
	case StateExchanged:
		return "exchanged"
	case StateRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}

// Entry is the unit of mutation in the ledger: one code plus everything
// needed to finish the exchange later.
type Entry struct {
	Code      string                  `json:"code"`
	UserID    string                  `json:"user_id"`
	Request   *oauth.AuthorizeRequest `json:"-"`
	Params    string                  `json:"params"`
	Token     *oauth.Token            `json:"token"`
	State     State                   `json:"state"`
	CreatedAt time.Time               `json:"created_at"`
	ExpiresAt time.Time               `json:"expires_at"`
}

// Expired reports whether the code's redemption window has passed.
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Ledger issues single-use authorization codes and redeems them exactly
// once. A second redemption of the same code revokes it.
type Ledger interface {
	// Issue mints the token set for a completed authorization and records
	// the entry under its code. When the response type carries no code the
	// token set is returned with a nil entry; there is nothing to redeem.
	Issue(ctx context.Context, userID string, req *oauth.AuthorizeRequest) (*oauth.Token, *Entry, error)

	// Exchange redeems a code for its token and owning entry. Exactly one
	// call per code can succeed; every other call returns ErrAuthCode and
	// poisons the entry.
	Exchange(ctx context.Context, code string) (*oauth.Token, *Entry, error)
}
