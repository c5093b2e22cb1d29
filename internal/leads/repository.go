package leads

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborlane/harborlane/internal/shared"
)

// RepositoryPort defines data access methods for leads.
type RepositoryPort interface {
	Count(ctx context.Context, q Query) (int, error)
	List(ctx context.Context, q Query, limit, offset int) ([]Lead, error)
	Get(ctx context.Context, id int64) (Lead, error)
	Create(ctx context.Context, in Input) (Lead, error)
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

const leadColumns = `id, name, email, phone, message, property_type, property_id, created_on, updated_on, datamode`

// Count returns the number of non-deleted leads matching the query.
func (r *Repository) Count(ctx context.Context, q Query) (int, error) {
	query := `SELECT COUNT(*) FROM leads WHERE datamode <> 'D'`
	args := []any{}
	if q.Search != "" {
		query += ` AND (name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1)`
		args = append(args, "%"+q.Search+"%")
	}
	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// List returns one page of non-deleted leads, newest first.
func (r *Repository) List(ctx context.Context, q Query, limit, offset int) ([]Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE datamode <> 'D'`
	args := []any{}
	argCount := 0
	if q.Search != "" {
		argCount++
		ph := `$` + strconv.Itoa(argCount)
		query += ` AND (name ILIKE ` + ph + ` OR email ILIKE ` + ph + ` OR phone ILIKE ` + ph + `)`
		args = append(args, "%"+q.Search+"%")
	}
	query += ` ORDER BY created_on DESC, id DESC`
	query += ` LIMIT $` + strconv.Itoa(argCount+1) + ` OFFSET $` + strconv.Itoa(argCount+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, lead)
	}
	return list, rows.Err()
}

// Get fetches a lead by ID, soft-deleted rows excluded.
func (r *Repository) Get(ctx context.Context, id int64) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 AND datamode <> 'D'`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, shared.ErrNotFound
		}
		return Lead{}, err
	}
	return lead, nil
}

// Create inserts an enquiry in Active mode.
func (r *Repository) Create(ctx context.Context, in Input) (Lead, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO leads (name, email, phone, message, property_type, property_id, created_on, updated_on, datamode)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW(), 'A')
		 RETURNING `+leadColumns,
		in.Name, in.Email, in.Phone, in.Message, in.PropertyType, in.PropertyID)
	return scanLead(row)
}

// SetMode transitions the lifecycle state. Deletion is only ever this
// transition; rows are never removed.
func (r *Repository) SetMode(ctx context.Context, id int64, mode shared.DataMode, actorID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE leads SET datamode = $2, updated_on = NOW() WHERE id = $1`,
		id, mode.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	var mode string
	if err := row.Scan(&lead.ID, &lead.Name, &lead.Email, &lead.Phone, &lead.Message,
		&lead.PropertyType, &lead.PropertyID, &lead.CreatedOn, &lead.UpdatedOn, &mode); err != nil {
		return Lead{}, err
	}
	lead.Mode = shared.ParseDataMode(mode)
	return lead, nil
}

var _ RepositoryPort = (*Repository)(nil)
