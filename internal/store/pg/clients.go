package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/janus/internal/domain/repository"
)

// ClientRepo implementa repository.ClientRepository sobre Postgres.
type ClientRepo struct {
	db Querier
}

func NewClientRepo(db Querier) *ClientRepo {
	return &ClientRepo{db: db}
}

func (r *ClientRepo) Get(ctx context.Context, clientID string) (*repository.Client, error) {
	const q = `
SELECT id, client_id, name, type, redirect_uris, COALESCE(secret_hash, '')
FROM client
WHERE client_id = $1;
`
	var c repository.Client
	err := r.db.QueryRow(ctx, q, clientID).
		Scan(&c.ID, &c.ClientID, &c.Name, &c.Type, &c.RedirectURIs, &c.SecretHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepo) Create(ctx context.Context, input repository.ClientInput) (*repository.Client, error) {
	if input.ClientID == "" || len(input.RedirectURIs) == 0 {
		return nil, repository.ErrInvalidInput
	}

	typ := input.Type
	if typ == "" {
		typ = repository.ClientTypePublic
	}
	var secretHash string
	if input.Secret != "" {
		h, err := repository.HashClientSecret(input.Secret)
		if err != nil {
			return nil, err
		}
		secretHash = h
		typ = repository.ClientTypeConfidential
	}

	const q = `
INSERT INTO client (id, client_id, name, type, redirect_uris, secret_hash)
VALUES (gen_random_uuid(), $1, $2, $3, $4, NULLIF($5, ''))
RETURNING id;
`
	c := repository.Client{
		ClientID:     input.ClientID,
		Name:         input.Name,
		Type:         typ,
		RedirectURIs: input.RedirectURIs,
		SecretHash:   secretHash,
	}
	err := r.db.QueryRow(ctx, q, c.ClientID, c.Name, c.Type, c.RedirectURIs, secretHash).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepo) List(ctx context.Context) ([]repository.Client, error) {
	const q = `
SELECT id, client_id, name, type, redirect_uris, COALESCE(secret_hash, '')
FROM client
ORDER BY client_id ASC;
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Client
	for rows.Next() {
		var c repository.Client
		if err := rows.Scan(&c.ID, &c.ClientID, &c.Name, &c.Type, &c.RedirectURIs, &c.SecretHash); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ClientRepo) Delete(ctx context.Context, clientID string) error {
	const q = `DELETE FROM client WHERE client_id = $1;`
	tag, err := r.db.Exec(ctx, q, clientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
