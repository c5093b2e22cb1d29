package properties

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborlane/harborlane/internal/platform/db"
	"github.com/harborlane/harborlane/internal/shared"
)

// RepositoryPort defines data access methods for property listings.
type RepositoryPort interface {
	Count(ctx context.Context, q Query) (int, error)
	List(ctx context.Context, q Query, limit, offset int) ([]Property, error)
	Get(ctx context.Context, id int64) (Property, error)
	CreateWithAssets(ctx context.Context, in Input) (Property, error)
	Update(ctx context.Context, id int64, in Input) (Property, error)
	SetMode(ctx context.Context, id int64, mode shared.DataMode, actorID int64) error
	Cities(ctx context.Context) ([]string, error)
	TypeNames(ctx context.Context) ([]string, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const propertyColumns = `p.id, p.title, p.address, p.city, p.state, p.zipcode, p.description,
	p.price, p.bedrooms, p.bathrooms, p.sqft, p.garage, p.listing_type, p.property_type_id,
	COALESCE(pt.name, ''), p.created_by, p.updated_by, p.created_on, p.updated_on, p.datamode`

const propertyFrom = ` FROM properties p LEFT JOIN property_types pt ON pt.id = p.property_type_id`

// filterClauses renders the WHERE fragment shared by Count and List. The
// query is assumed normalized; unsupported values were already dropped.
func filterClauses(q Query) (string, []any) {
	clauses := []string{`p.datamode <> 'D'`}
	args := []any{}
	next := func() string { return "$" + strconv.Itoa(len(args)) }

	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		clauses = append(clauses, `(p.title ILIKE `+next()+` OR p.address ILIKE `+next()+` OR p.city ILIKE `+next()+`)`)
	}
	if q.City != "" {
		args = append(args, q.City)
		clauses = append(clauses, `LOWER(p.city) = LOWER(`+next()+`)`)
	}
	if q.ListingType != "" {
		args = append(args, q.ListingType)
		clauses = append(clauses, `LOWER(p.listing_type) = LOWER(`+next()+`)`)
	}
	if q.Type != "" {
		args = append(args, q.Type)
		clauses = append(clauses, `LOWER(pt.name) = LOWER(`+next()+`)`)
	}
	switch q.Budget {
	case BudgetBelow100k:
		clauses = append(clauses, `p.price < 100000`)
	case Budget100kTo300k:
		clauses = append(clauses, `p.price >= 100000 AND p.price <= 300000`)
	case BudgetAbove300k:
		clauses = append(clauses, `p.price > 300000`)
	}
	return ` WHERE ` + strings.Join(clauses, ` AND `), args
}

func orderClause(sort string) string {
	switch sort {
	case SortPriceLow:
		return ` ORDER BY p.price ASC, p.id ASC`
	case SortPriceHigh:
		return ` ORDER BY p.price DESC, p.id ASC`
	default:
		return ` ORDER BY p.created_on DESC, p.id DESC`
	}
}

// Count returns the number of non-deleted properties matching the query.
func (r *Repository) Count(ctx context.Context, q Query) (int, error) {
	where, args := filterClauses(q)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+propertyFrom+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// List returns one page of non-deleted properties. Images are not loaded;
// list views only need the cover path fetched separately per page.
func (r *Repository) List(ctx context.Context, q Query, limit, offset int) ([]Property, error) {
	where, args := filterClauses(q)
	query := `SELECT ` + propertyColumns + propertyFrom + where + orderClause(q.Sort)
	query += ` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Property
	for rows.Next() {
		prop, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, prop)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return r.attachCovers(ctx, list)
}

// attachCovers loads the first active image per listed property.
func (r *Repository) attachCovers(ctx context.Context, list []Property) ([]Property, error) {
	if len(list) == 0 {
		return list, nil
	}
	ids := make([]int64, 0, len(list))
	index := make(map[int64]int, len(list))
	for i, prop := range list {
		ids = append(ids, prop.ID)
		index[prop.ID] = i
	}
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ON (property_id) id, property_id, path, created_on, datamode
		   FROM property_images
		  WHERE property_id = ANY($1) AND datamode = 'A'
		  ORDER BY property_id, id ASC`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[img.PropertyID]; ok {
			list[i].Images = append(list[i].Images, img)
		}
	}
	return list, rows.Err()
}

// Get fetches a property with its active images, soft-deleted rows excluded.
func (r *Repository) Get(ctx context.Context, id int64) (Property, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+propertyColumns+propertyFrom+` WHERE p.id = $1 AND p.datamode <> 'D'`, id)
	prop, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Property{}, shared.ErrNotFound
		}
		return Property{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, property_id, path, created_on, datamode
		   FROM property_images
		  WHERE property_id = $1 AND datamode = 'A'
		  ORDER BY id ASC`, id)
	if err != nil {
		return Property{}, err
	}
	defer rows.Close()

	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return Property{}, err
		}
		prop.Images = append(prop.Images, img)
	}
	return prop, rows.Err()
}

// CreateWithAssets inserts the property, its type lookup row and its images
// in one transaction. A failure at any step leaves nothing behind.
func (r *Repository) CreateWithAssets(ctx context.Context, in Input) (Property, error) {
	var created Property
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO properties (title, address, city, state, zipcode, description, price,
				bedrooms, bathrooms, sqft, garage, listing_type,
				created_by, updated_by, created_on, updated_on, datamode)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13, NOW(), NOW(), 'A')
			 RETURNING id, created_on, updated_on`,
			in.Title, in.Address, in.City, in.State, in.Zipcode, in.Description, in.Price,
			in.Bedrooms, in.Bathrooms, in.Sqft, in.Garage, in.ListingType, in.ActorID)
		if err := row.Scan(&created.ID, &created.CreatedOn, &created.UpdatedOn); err != nil {
			return err
		}

		typeID, err := resolveTypeTx(ctx, tx, in.TypeName)
		if err != nil {
			return err
		}
		if typeID != nil {
			if _, err := tx.Exec(ctx, `UPDATE properties SET property_type_id = $2 WHERE id = $1`, created.ID, *typeID); err != nil {
				return err
			}
		}
		created.TypeID = typeID

		for _, path := range in.ImagePaths {
			if _, err := tx.Exec(ctx,
				`INSERT INTO property_images (property_id, path, created_on, datamode) VALUES ($1, $2, NOW(), 'A')`,
				created.ID, path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Property{}, err
	}
	return r.Get(ctx, created.ID)
}

// resolveTypeTx finds the property type by case-insensitive name, creating it
// when absent. A blank name leaves the listing untyped.
func resolveTypeTx(ctx context.Context, tx pgx.Tx, name string) (*int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var id int64
	err := tx.QueryRow(ctx,
		`SELECT id FROM property_types WHERE LOWER(name) = LOWER($1) AND datamode <> 'D'`, name).Scan(&id)
	if err == nil {
		return &id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO property_types (name, created_on, updated_on, datamode) VALUES ($1, NOW(), NOW(), 'A') RETURNING id`,
		name).Scan(&id)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Update rewrites the mutable columns and appends any new images. id and
// created_on never change; updated_on is refreshed on every mutation.
func (r *Repository) Update(ctx context.Context, id int64, in Input) (Property, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		typeID, err := resolveTypeTx(ctx, tx, in.TypeName)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`UPDATE properties SET title = $2, address = $3, city = $4, state = $5, zipcode = $6,
				description = $7, price = $8, bedrooms = $9, bathrooms = $10, sqft = $11,
				garage = $12, listing_type = $13, property_type_id = $14,
				updated_by = $15, updated_on = NOW()
			  WHERE id = $1 AND datamode <> 'D'`,
			id, in.Title, in.Address, in.City, in.State, in.Zipcode, in.Description, in.Price,
			in.Bedrooms, in.Bathrooms, in.Sqft, in.Garage, in.ListingType, typeID, in.ActorID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		for _, path := range in.ImagePaths {
			if _, err := tx.Exec(ctx,
				`INSERT INTO property_images (property_id, path, created_on, datamode) VALUES ($1, $2, NOW(), 'A')`,
				id, path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Property{}, err
	}
	return r.Get(ctx, id)
}

// SetMode transitions the lifecycle state. Deletion is only ever this
// transition; rows are never removed.
func (r *Repository) SetMode(ctx context.Context, id int64, mode shared.DataMode, actorID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE properties SET datamode = $2, updated_by = $3, updated_on = NOW() WHERE id = $1`,
		id, mode.String(), actorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Cities lists distinct cities of non-deleted listings for the filter bar.
func (r *Repository) Cities(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT city FROM properties WHERE datamode <> 'D' AND city <> '' ORDER BY city`)
}

// TypeNames lists non-deleted property type names for the filter bar.
func (r *Repository) TypeNames(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT name FROM property_types WHERE datamode <> 'D' ORDER BY name`)
}

func (r *Repository) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func scanProperty(row pgx.Row) (Property, error) {
	var p Property
	var mode string
	if err := row.Scan(&p.ID, &p.Title, &p.Address, &p.City, &p.State, &p.Zipcode, &p.Description,
		&p.Price, &p.Bedrooms, &p.Bathrooms, &p.Sqft, &p.Garage, &p.ListingType, &p.TypeID,
		&p.TypeName, &p.CreatedBy, &p.UpdatedBy, &p.CreatedOn, &p.UpdatedOn, &mode); err != nil {
		return Property{}, err
	}
	p.Mode = shared.ParseDataMode(mode)
	return p, nil
}

func scanImage(row pgx.Row) (Image, error) {
	var img Image
	var mode string
	if err := row.Scan(&img.ID, &img.PropertyID, &img.Path, &img.CreatedOn, &mode); err != nil {
		return Image{}, err
	}
	img.Mode = shared.ParseDataMode(mode)
	return img, nil
}

var _ RepositoryPort = (*Repository)(nil)
