package roles

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborlane/harborlane/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	Count(ctx context.Context, q Query) (int, error)
	List(ctx context.Context, q Query, limit, offset int) ([]Role, error)
	Get(ctx context.Context, id int64) (Role, error)
	Create(ctx context.Context, role Role) (Role, error)
	Update(ctx context.Context, id int64, role Role) (Role, error)
	SetMode(ctx context.Context, id int64, mode shared.DataMode, actorID int64) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `id, name, description, created_by, updated_by, created_on, updated_on, datamode`

// Count returns the number of non-deleted roles matching the query.
func (r *Repository) Count(ctx context.Context, q Query) (int, error) {
	query := `SELECT COUNT(*) FROM roles WHERE datamode <> 'D'`
	args := []any{}
	if q.Search != "" {
		query += ` AND name ILIKE $1`
		args = append(args, "%"+q.Search+"%")
	}
	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// List returns non-deleted roles, newest first.
func (r *Repository) List(ctx context.Context, q Query, limit, offset int) ([]Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE datamode <> 'D'`
	args := []any{}
	argCount := 0
	if q.Search != "" {
		argCount++
		query += ` AND name ILIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+q.Search+"%")
	}
	query += ` ORDER BY updated_on DESC`
	query += ` LIMIT $` + strconv.Itoa(argCount+1) + ` OFFSET $` + strconv.Itoa(argCount+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, role)
	}
	return list, rows.Err()
}

// Get fetches a role by ID, soft-deleted rows excluded.
func (r *Repository) Get(ctx context.Context, id int64) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1 AND datamode <> 'D'`, id)
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// Create inserts a new role in Active mode.
func (r *Repository) Create(ctx context.Context, role Role) (Role, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO roles (name, description, created_by, updated_by, created_on, updated_on, datamode)
		 VALUES ($1, $2, $3, $3, NOW(), NOW(), 'A')
		 RETURNING `+roleColumns,
		role.Name, role.Description, role.CreatedBy)
	return scanRole(row)
}

// Update rewrites the mutable columns. id and created_on never change;
// updated_on is refreshed on every mutation.
func (r *Repository) Update(ctx context.Context, id int64, role Role) (Role, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE roles SET name = $2, description = $3, updated_by = $4, updated_on = NOW()
		  WHERE id = $1 AND datamode <> 'D'
		 RETURNING `+roleColumns,
		id, role.Name, role.Description, role.UpdatedBy)
	updated, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return updated, nil
}

// SetMode transitions the lifecycle state. Deletion is only ever this
// transition; rows are never removed.
func (r *Repository) SetMode(ctx context.Context, id int64, mode shared.DataMode, actorID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE roles SET datamode = $2, updated_by = $3, updated_on = NOW() WHERE id = $1`,
		id, mode.String(), actorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	var mode string
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedBy, &role.UpdatedBy, &role.CreatedOn, &role.UpdatedOn, &mode); err != nil {
		return Role{}, err
	}
	role.Mode = shared.ParseDataMode(mode)
	return role, nil
}

var _ RepositoryPort = (*Repository)(nil)
