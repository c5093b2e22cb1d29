package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborlane/harborlane/internal/platform/db"
	"github.com/harborlane/harborlane/internal/shared"
)

// Repository defines persistence operations for permission grants.
type Repository interface {
	LookupGrant(ctx context.Context, principalID int64, resource, action string) (bool, error)
	RoleGrants(ctx context.Context, roleID int64) ([]Grant, error)
	ReplaceRoleGrants(ctx context.Context, roleID int64, grants []Grant) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// LookupGrant resolves the allowed flag of the grant matching the principal's
// role. A missing row is reported via shared.ErrNotFound.
func (r *PGRepository) LookupGrant(ctx context.Context, principalID int64, resource, action string) (bool, error) {
	var allowed bool
	err := r.pool.QueryRow(ctx,
		`SELECT rp.allowed
		   FROM role_permissions rp
		   JOIN users u ON u.role_id = rp.role_id
		  WHERE u.id = $1 AND u.datamode <> 'D' AND rp.resource = $2 AND rp.action = $3`,
		principalID, resource, action).Scan(&allowed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, shared.ErrNotFound
		}
		return false, err
	}
	return allowed, nil
}

// RoleGrants returns all grants attached to a role.
func (r *PGRepository) RoleGrants(ctx context.Context, roleID int64) ([]Grant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT role_id, resource, action, allowed, created_on FROM role_permissions WHERE role_id = $1 ORDER BY resource, action`,
		roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []Grant
	for rows.Next() {
		var g Grant
		if err := rows.Scan(&g.RoleID, &g.Resource, &g.Action, &g.Allowed, &g.CreatedOn); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// ReplaceRoleGrants swaps the full grant set of a role in one transaction.
// Concurrent updates are last-writer-wins over the whole set, never a merge.
func (r *PGRepository) ReplaceRoleGrants(ctx context.Context, roleID int64, grants []Grant) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		for _, g := range grants {
			if _, err := tx.Exec(ctx,
				`INSERT INTO role_permissions (role_id, resource, action, allowed, created_on) VALUES ($1, $2, $3, $4, NOW())`,
				roleID, g.Resource, g.Action, g.Allowed); err != nil {
				return err
			}
		}
		return nil
	})
}

var _ Repository = (*PGRepository)(nil)
