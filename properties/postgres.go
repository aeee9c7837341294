package properties

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const propertyColumns = `id, title, price, neighborhood, address, type, bedrooms, bathrooms, garages,
	area, description, image, available, featured, user_id, created_at, updated_at`

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	db *pgxpool.Pool
}

// NewPGRepository creates a new PGRepository.
func NewPGRepository(db *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: db}
}

func scanProperty(row pgx.Row) (Property, error) {
	var p Property
	var typ, available, featured string
	err := row.Scan(&p.ID, &p.Title, &p.Price, &p.Neighborhood, &p.Address, &typ,
		&p.Bedrooms, &p.Bathrooms, &p.Garages, &p.Area, &p.Description, &p.Image,
		&available, &featured, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Property{}, err
	}
	p.Type = PropertyType(typ)
	p.Available = Flag(available)
	p.Featured = Flag(featured)
	return p, nil
}

func collectProperties(rows pgx.Rows) ([]Property, error) {
	defer rows.Close()
	out := []Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// EnsureSeeded inserts any built-in listing whose id is missing.
func (r *PGRepository) EnsureSeeded(ctx context.Context) error {
	for _, p := range Seeds() {
		_, err := r.db.Exec(ctx, `
			INSERT INTO properties (`+propertyColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Title, p.Price, p.Neighborhood, p.Address, string(p.Type), p.Bedrooms, p.Bathrooms,
			p.Garages, p.Area, p.Description, p.Image, string(p.Available), string(p.Featured),
			p.UserID, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("properties: seed %d: %w", p.ID, err)
		}
	}
	return nil
}

// Get returns the listing with the given id.
func (r *PGRepository) Get(ctx context.Context, id int) (Property, error) {
	p, err := scanProperty(r.db.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Property{}, ErrPropertyNotFound
		}
		return Property{}, fmt.Errorf("properties: select: %w", err)
	}
	return p, nil
}

// whereClause builds the WHERE clause for f; placeholders start at $1.
func whereClause(f Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(format string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	if f.Neighborhood != "" {
		add("position(lower($%d) in lower(coalesce(neighborhood, ''))) > 0", f.Neighborhood)
	}
	if f.MinPrice != nil {
		add("price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price <= $%d", *f.MaxPrice)
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.MinBedrooms != nil {
		add("bedrooms >= $%d", *f.MinBedrooms)
	}
	if f.MinBathrooms != nil {
		add("bathrooms >= $%d", *f.MinBathrooms)
	}
	if f.Available != nil {
		add("available = $%d", string(FlagOf(*f.Available)))
	}
	if f.Featured != nil {
		add("featured = $%d", string(FlagOf(*f.Featured)))
	}
	if f.Search != "" {
		args = append(args, f.Search)
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(position(lower($%[1]d) in lower(title)) > 0"+
				" OR position(lower($%[1]d) in lower(coalesce(description, ''))) > 0"+
				" OR position(lower($%[1]d) in lower(coalesce(address, ''))) > 0)", n))
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// Search filters in SQL, newest first.
func (r *PGRepository) Search(ctx context.Context, f Filter) ([]Property, error) {
	where, args := whereClause(f)
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultStoreLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM properties %s ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d`,
		propertyColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("properties: search: %w", err)
	}
	out, err := collectProperties(rows)
	if err != nil {
		return nil, fmt.Errorf("properties: search: %w", err)
	}
	return out, nil
}

// ListByUser returns the listings created by userID.
func (r *PGRepository) ListByUser(ctx context.Context, userID int) ([]Property, error) {
	rows, err := r.db.Query(ctx, `SELECT `+propertyColumns+` FROM properties WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("properties: list by user: %w", err)
	}
	out, err := collectProperties(rows)
	if err != nil {
		return nil, fmt.Errorf("properties: list by user: %w", err)
	}
	return out, nil
}

// Create inserts p with the next free id. The table lock serializes concurrent creators.
func (r *PGRepository) Create(ctx context.Context, p Property) (Property, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Property{}, fmt.Errorf("properties: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `LOCK TABLE properties IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return Property{}, fmt.Errorf("properties: lock: %w", err)
	}
	var nextID int
	if err := tx.QueryRow(ctx, `SELECT GREATEST(COALESCE(MAX(id), 0), $1) + 1 FROM properties`, MaxSeedID).Scan(&nextID); err != nil {
		return Property{}, fmt.Errorf("properties: next id: %w", err)
	}

	created, err := scanProperty(tx.QueryRow(ctx, `
		INSERT INTO properties (id, title, price, neighborhood, address, type, bedrooms, bathrooms, garages,
			area, description, image, available, featured, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
		RETURNING `+propertyColumns,
		nextID, p.Title, p.Price, p.Neighborhood, p.Address, string(p.Type), p.Bedrooms, p.Bathrooms,
		p.Garages, p.Area, p.Description, p.Image, string(p.Available), string(p.Featured), p.UserID))
	if err != nil {
		return Property{}, fmt.Errorf("properties: insert: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Property{}, fmt.Errorf("properties: commit: %w", err)
	}
	return created, nil
}

// Update replaces the row with p.ID.
func (r *PGRepository) Update(ctx context.Context, p Property) (Property, error) {
	updated, err := scanProperty(r.db.QueryRow(ctx, `
		UPDATE properties
		SET title = $1, price = $2, neighborhood = $3, address = $4, type = $5, bedrooms = $6,
			bathrooms = $7, garages = $8, area = $9, description = $10, image = $11,
			available = $12, featured = $13, user_id = $14, updated_at = NOW()
		WHERE id = $15
		RETURNING `+propertyColumns,
		p.Title, p.Price, p.Neighborhood, p.Address, string(p.Type), p.Bedrooms, p.Bathrooms,
		p.Garages, p.Area, p.Description, p.Image, string(p.Available), string(p.Featured), p.UserID, p.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Property{}, ErrPropertyNotFound
		}
		return Property{}, fmt.Errorf("properties: update: %w", err)
	}
	return updated, nil
}

// Delete removes the row with id.
func (r *PGRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("properties: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPropertyNotFound
	}
	return nil
}
