package maintenance

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborlane/harborlane/internal/shared"
)

// RepositoryPort defines data access methods for maintenance requests.
type RepositoryPort interface {
	Count(ctx context.Context, q Query) (int, error)
	List(ctx context.Context, q Query, limit, offset int) ([]Request, error)
	Get(ctx context.Context, id int64) (Request, error)
	Create(ctx context.Context, in Input) (Request, error)
	UpdateStatus(ctx context.Context, id int64, status string, actorID int64) (Request, error)
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

const requestColumns = `id, name, email, phone, address, description, urgency, preferred_date,
	attachment, status, updated_by, created_on, updated_on, datamode`

func filterClauses(q Query) (string, []any) {
	clauses := []string{`datamode <> 'D'`}
	args := []any{}
	next := func() string { return "$" + strconv.Itoa(len(args)) }

	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		clauses = append(clauses, `(name ILIKE `+next()+` OR email ILIKE `+next()+` OR address ILIKE `+next()+`)`)
	}
	if q.Status != "" {
		args = append(args, q.Status)
		clauses = append(clauses, `status = `+next())
	}
	return ` WHERE ` + strings.Join(clauses, ` AND `), args
}

// Count returns the number of non-deleted requests matching the query.
func (r *Repository) Count(ctx context.Context, q Query) (int, error) {
	where, args := filterClauses(q)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM maintenance_requests`+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// List returns one page of non-deleted requests, newest first.
func (r *Repository) List(ctx context.Context, q Query, limit, offset int) ([]Request, error) {
	where, args := filterClauses(q)
	query := `SELECT ` + requestColumns + ` FROM maintenance_requests` + where +
		` ORDER BY created_on DESC, id DESC` +
		` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, req)
	}
	return list, rows.Err()
}

// Get fetches a request by ID, soft-deleted rows excluded.
func (r *Repository) Get(ctx context.Context, id int64) (Request, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM maintenance_requests WHERE id = $1 AND datamode <> 'D'`, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, shared.ErrNotFound
		}
		return Request{}, err
	}
	return req, nil
}

// Create inserts an intake submission as a pending request.
func (r *Repository) Create(ctx context.Context, in Input) (Request, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO maintenance_requests (name, email, phone, address, description, urgency,
			preferred_date, attachment, status, created_on, updated_on, datamode)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW(), 'A')
		 RETURNING `+requestColumns,
		in.Name, in.Email, in.Phone, in.Address, in.Description, in.Urgency,
		in.PreferredDate, in.Attachment, StatusPending)
	return scanRequest(row)
}

// UpdateStatus moves a request to a new status. id and created_on never
// change; updated_on is refreshed on every mutation.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string, actorID int64) (Request, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE maintenance_requests SET status = $2, updated_by = $3, updated_on = NOW()
		  WHERE id = $1 AND datamode <> 'D'
		 RETURNING `+requestColumns,
		id, status, actorID)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, shared.ErrNotFound
		}
		return Request{}, err
	}
	return req, nil
}

// SetMode transitions the lifecycle state. Deletion is only ever this
// transition; rows are never removed.
func (r *Repository) SetMode(ctx context.Context, id int64, mode shared.DataMode, actorID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE maintenance_requests SET datamode = $2, updated_by = $3, updated_on = NOW() WHERE id = $1`,
		id, mode.String(), actorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	var mode string
	var preferred *time.Time
	var updatedBy *int64
	if err := row.Scan(&req.ID, &req.Name, &req.Email, &req.Phone, &req.Address, &req.Description,
		&req.Urgency, &preferred, &req.Attachment, &req.Status, &updatedBy,
		&req.CreatedOn, &req.UpdatedOn, &mode); err != nil {
		return Request{}, err
	}
	req.PreferredDate = preferred
	if updatedBy != nil {
		req.UpdatedBy = *updatedBy
	}
	req.Mode = shared.ParseDataMode(mode)
	return req, nil
}

var _ RepositoryPort = (*Repository)(nil)
