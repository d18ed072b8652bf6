package repository

import "context"

// User representa al resource owner. Solo lo que el emisor de claims
// necesita: la autenticación en sí vive fuera de este core.
type User struct {
	ID            string
	Username      string
	Email         string
	EmailVerified bool
	Name          string
	GivenName     string
	FamilyName    string
}

// UserRepository define el acceso read-only a usuarios.
type UserRepository interface {
	// GetByID obtiene un usuario por su ID. Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, userID string) (*User, error)

	// GetByUsername obtiene un usuario por su username.
	GetByUsername(ctx context.Context, username string) (*User, error)
}
