// Package memory implementa los repositorios sobre mapas en proceso.
// Pensado para desarrollo, tests y deployments single-node sin DB.
package memory

import (
	"context"

	"github.com/dropDatabas3/janus/internal/domain/repository"
)

// Store agrupa los repositorios in-memory.
type Store struct {
	Clients *ClientRepo
	Users   *UserRepo
	Grants  *GrantRepo
}

func NewStore() *Store {
	return &Store{
		Clients: NewClientRepo(),
		Users:   NewUserRepo(),
		Grants:  NewGrantRepo(),
	}
}

// Seed carga clients y usuarios iniciales (config de desarrollo).
func (s *Store) Seed(ctx context.Context, clients []repository.ClientInput, users []repository.User) error {
	for _, c := range clients {
		if _, err := s.Clients.Create(ctx, c); err != nil && !repository.IsConflict(err) {
			return err
		}
	}
	for _, u := range users {
		if err := s.Users.Put(u); err != nil {
			return err
		}
	}
	return nil
}
