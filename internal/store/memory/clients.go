package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dropDatabas3/janus/internal/domain/repository"
)

// ClientRepo guarda clients en un mapa por client_id.
type ClientRepo struct {
	mu      sync.RWMutex
	clients map[string]repository.Client
}

func NewClientRepo() *ClientRepo {
	return &ClientRepo{clients: make(map[string]repository.Client)}
}

func (r *ClientRepo) Get(ctx context.Context, clientID string) (*repository.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[clientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := c
	return &out, nil
}

func (r *ClientRepo) Create(ctx context.Context, input repository.ClientInput) (*repository.Client, error) {
	if input.ClientID == "" || len(input.RedirectURIs) == 0 {
		return nil, repository.ErrInvalidInput
	}

	c := repository.Client{
		ID:           uuid.NewString(),
		ClientID:     input.ClientID,
		Name:         input.Name,
		Type:         input.Type,
		RedirectURIs: append([]string(nil), input.RedirectURIs...),
	}
	if c.Type == "" {
		c.Type = repository.ClientTypePublic
	}
	if input.Secret != "" {
		hash, err := repository.HashClientSecret(input.Secret)
		if err != nil {
			return nil, err
		}
		c.SecretHash = hash
		c.Type = repository.ClientTypeConfidential
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c.ClientID]; ok {
		return nil, repository.ErrConflict
	}
	r.clients[c.ClientID] = c
	out := c
	return &out, nil
}

func (r *ClientRepo) List(ctx context.Context) ([]repository.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]repository.Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out, nil
}

func (r *ClientRepo) Delete(ctx context.Context, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[clientID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.clients, clientID)
	return nil
}
