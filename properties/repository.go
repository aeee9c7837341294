package properties

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/imobiliaria-go/jsonstore"
)

// ErrPropertyNotFound signals that no listing has the requested id.
var ErrPropertyNotFound = errors.New("properties: property not found")

// Repository handles data access for listings.
type Repository interface {
	Get(ctx context.Context, id int) (Property, error)
	Search(ctx context.Context, f Filter) ([]Property, error)
	ListByUser(ctx context.Context, userID int) ([]Property, error)
	// Create assigns the id (beyond every seed and stored id) and the timestamps.
	Create(ctx context.Context, p Property) (Property, error)
	// Update replaces the stored row with the same id and bumps UpdatedAt.
	Update(ctx context.Context, p Property) (Property, error)
	Delete(ctx context.Context, id int) error
}

// TableRepository implements Repository over a whole-table JSON store. Seed
// listings missing from the table are merged in on every read.
type TableRepository struct {
	mu    sync.Mutex
	table jsonstore.Table[Property]
	now   func() time.Time
}

// NewTableRepository wraps table. A nil now uses time.Now.
func NewTableRepository(table jsonstore.Table[Property], now func() time.Time) *TableRepository {
	if now == nil {
		now = time.Now
	}
	return &TableRepository{table: table, now: now}
}

func (r *TableRepository) load(ctx context.Context) ([]Property, error) {
	rows, err := r.table.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("properties: load: %w", err)
	}
	present := make(map[int]bool, len(rows))
	for _, p := range rows {
		present[p.ID] = true
	}
	for _, seed := range Seeds() {
		if !present[seed.ID] {
			rows = append(rows, seed)
		}
	}
	return rows, nil
}

func (r *TableRepository) save(ctx context.Context, rows []Property) error {
	if err := r.table.Save(ctx, rows); err != nil {
		return fmt.Errorf("properties: save: %w", err)
	}
	return nil
}

// Get returns the listing with the given id.
func (r *TableRepository) Get(ctx context.Context, id int) (Property, error) {
	rows, err := r.load(ctx)
	if err != nil {
		return Property{}, err
	}
	for _, p := range rows {
		if p.ID == id {
			return p, nil
		}
	}
	return Property{}, ErrPropertyNotFound
}

// Search scans every row, newest first.
func (r *TableRepository) Search(ctx context.Context, f Filter) ([]Property, error) {
	rows, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]Property, 0, len(rows))
	for _, p := range rows {
		if f.Matches(p) {
			matched = append(matched, p)
		}
	}
	sortNewestFirst(matched)
	return f.page(matched), nil
}

// ListByUser returns the listings created by userID.
func (r *TableRepository) ListByUser(ctx context.Context, userID int) ([]Property, error) {
	rows, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := []Property{}
	for _, p := range rows {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

// Create appends p with the next free id.
func (r *TableRepository) Create(ctx context.Context, p Property) (Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.load(ctx)
	if err != nil {
		return Property{}, err
	}
	maxID := MaxSeedID
	for _, existing := range rows {
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}
	now := r.now()
	p.ID = maxID + 1
	p.CreatedAt = now
	p.UpdatedAt = now
	rows = append(rows, p)
	if err := r.save(ctx, rows); err != nil {
		return Property{}, err
	}
	return p, nil
}

// Update replaces the row with p.ID.
func (r *TableRepository) Update(ctx context.Context, p Property) (Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.load(ctx)
	if err != nil {
		return Property{}, err
	}
	for i := range rows {
		if rows[i].ID == p.ID {
			p.CreatedAt = rows[i].CreatedAt
			p.UpdatedAt = r.now()
			rows[i] = p
			if err := r.save(ctx, rows); err != nil {
				return Property{}, err
			}
			return p, nil
		}
	}
	return Property{}, ErrPropertyNotFound
}

// Delete removes the row with id.
func (r *TableRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range rows {
		if rows[i].ID == id {
			rows = append(rows[:i], rows[i+1:]...)
			return r.save(ctx, rows)
		}
	}
	return ErrPropertyNotFound
}
