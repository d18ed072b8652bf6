package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/janus/internal/domain/repository"
)

// GrantRepo implementa repository.GrantRepository sobre Postgres.
// El merge-union de permisos se hace en SQL con un upsert sobre
// (user_id, client_id).
type GrantRepo struct {
	db Querier
}

func NewGrantRepo(db Querier) *GrantRepo {
	return &GrantRepo{db: db}
}

const grantColumns = `id, user_id, client_id,
permissions_allowed, permissions_denied, created_at, modified_at, accessed_at`

func (r *GrantRepo) Get(ctx context.Context, userID, clientID string) (*repository.Grant, error) {
	q := `SELECT ` + grantColumns + ` FROM grant_record WHERE user_id = $1 AND client_id = $2;`
	return r.scanOne(r.db.QueryRow(ctx, q, userID, clientID))
}

func (r *GrantRepo) CreateOrUpdate(ctx context.Context, update repository.GrantUpdate) (*repository.Grant, error) {
	if update.UserID == "" || update.ClientID == "" {
		return nil, repository.ErrInvalidInput
	}

	// array_cat + unnest/DISTINCT implementa el merge-union: nunca se
	// retira un permiso ya otorgado.
	const q = `
INSERT INTO grant_record (id, user_id, client_id, permissions_allowed, permissions_denied, created_at, modified_at, accessed_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, now(), now(), now())
ON CONFLICT (user_id, client_id) DO UPDATE SET
    permissions_allowed = (
        SELECT COALESCE(array_agg(DISTINCT p), '{}')
        FROM unnest(array_cat(grant_record.permissions_allowed, EXCLUDED.permissions_allowed)) AS p
    ),
    permissions_denied = (
        SELECT COALESCE(array_agg(DISTINCT p), '{}')
        FROM unnest(array_cat(grant_record.permissions_denied, EXCLUDED.permissions_denied)) AS p
    ),
    modified_at = now(),
    accessed_at = now()
RETURNING ` + grantColumns + `;`

	allowed := update.PermissionsAdded
	if allowed == nil {
		allowed = []string{}
	}
	denied := update.PermissionsRemoved
	if denied == nil {
		denied = []string{}
	}
	return r.scanOne(r.db.QueryRow(ctx, q, update.UserID, update.ClientID, allowed, denied))
}

func (r *GrantRepo) ListByUser(ctx context.Context, userID string) ([]repository.Grant, error) {
	q := `SELECT ` + grantColumns + ` FROM grant_record WHERE user_id = $1;`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Grant
	for rows.Next() {
		var g repository.Grant
		if err := rows.Scan(&g.ID, &g.UserID, &g.ClientID,
			&g.PermissionsAllowed, &g.PermissionsDenied,
			&g.CreatedAt, &g.ModifiedAt, &g.AccessedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GrantRepo) scanOne(row pgx.Row) (*repository.Grant, error) {
	var g repository.Grant
	err := row.Scan(&g.ID, &g.UserID, &g.ClientID,
		&g.PermissionsAllowed, &g.PermissionsDenied,
		&g.CreatedAt, &g.ModifiedAt, &g.AccessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}
