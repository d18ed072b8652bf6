package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/janus/internal/domain/repository"
)

// GrantRepo guarda grants en un mapa por (user, client).
type GrantRepo struct {
	mu     sync.RWMutex
	grants map[grantKey]repository.Grant
}

type grantKey struct {
	userID   string
	clientID string
}

func NewGrantRepo() *GrantRepo {
	return &GrantRepo{grants: make(map[grantKey]repository.Grant)}
}

func (r *GrantRepo) Get(ctx context.Context, userID, clientID string) (*repository.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.grants[grantKey{userID, clientID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := g
	return &out, nil
}

func (r *GrantRepo) CreateOrUpdate(ctx context.Context, update repository.GrantUpdate) (*repository.Grant, error) {
	if update.UserID == "" || update.ClientID == "" {
		return nil, repository.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := grantKey{update.UserID, update.ClientID}
	g, ok := r.grants[key]
	if !ok {
		now := time.Now().UTC()
		g = repository.Grant{
			ID:        uuid.NewString(),
			UserID:    update.UserID,
			ClientID:  update.ClientID,
			CreatedAt: now,
		}
	}
	g.Apply(update)
	r.grants[key] = g
	out := g
	return &out, nil
}

func (r *GrantRepo) ListByUser(ctx context.Context, userID string) ([]repository.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []repository.Grant
	for k, g := range r.grants {
		if k.userID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}
