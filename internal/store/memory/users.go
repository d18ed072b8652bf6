package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dropDatabas3/janus/internal/domain/repository"
)

// UserRepo guarda usuarios en mapas por ID y por username.
type UserRepo struct {
	mu         sync.RWMutex
	byID       map[string]repository.User
	byUsername map[string]string // username -> id
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:       make(map[string]repository.User),
		byUsername: make(map[string]string),
	}
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := u
	return &out, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUsername[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := r.byID[id]
	return &u, nil
}

// Put inserta o reemplaza un usuario (seeding y tests).
func (r *UserRepo) Put(u repository.User) error {
	if u.Username == "" {
		return repository.ErrInvalidInput
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = u
	r.byUsername[u.Username] = u.ID
	return nil
}
