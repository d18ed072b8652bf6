package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/janus/internal/domain/repository"
)

// UserRepo implementa repository.UserRepository sobre Postgres.
type UserRepo struct {
	db Querier
}

func NewUserRepo(db Querier) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, username, email, email_verified,
COALESCE(name, ''), COALESCE(given_name, ''), COALESCE(family_name, '')`

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*repository.User, error) {
	q := `SELECT ` + userColumns + ` FROM app_user WHERE id = $1;`
	return r.scanOne(r.db.QueryRow(ctx, q, userID))
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*repository.User, error) {
	q := `SELECT ` + userColumns + ` FROM app_user WHERE username = $1;`
	return r.scanOne(r.db.QueryRow(ctx, q, username))
}

func (r *UserRepo) scanOne(row pgx.Row) (*repository.User, error) {
	var u repository.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.EmailVerified,
		&u.Name, &u.GivenName, &u.FamilyName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
