package users

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/imobiliaria-go/jsonstore"
)

var (
	// ErrUserNotFound signals that the user does not exist.
	ErrUserNotFound = errors.New("users: user not found")
	// ErrMissingIdentity signals an upsert with neither openId nor username.
	ErrMissingIdentity = errors.New("users: openId or username is required")
)

// Repository handles data access for users.
type Repository interface {
	GetByID(ctx context.Context, id int) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByOpenID(ctx context.Context, openID string) (User, error)
	Upsert(ctx context.Context, params UpsertParams) (User, error)
	TouchLastSignedIn(ctx context.Context, id int, at time.Time) error
}

// TableRepository implements Repository over a whole-table JSON store (memory or file).
type TableRepository struct {
	mu    sync.Mutex
	table jsonstore.Table[User]
	now   func() time.Time
}

// NewTableRepository wraps table. A nil now uses time.Now.
func NewTableRepository(table jsonstore.Table[User], now func() time.Time) *TableRepository {
	if now == nil {
		now = time.Now
	}
	return &TableRepository{table: table, now: now}
}

func (r *TableRepository) find(ctx context.Context, match func(User) bool) (User, error) {
	rows, err := r.table.Load(ctx)
	if err != nil {
		return User{}, fmt.Errorf("users: load: %w", err)
	}
	for _, u := range rows {
		if match(u) {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

// GetByID retrieves a user by id.
func (r *TableRepository) GetByID(ctx context.Context, id int) (User, error) {
	return r.find(ctx, func(u User) bool { return u.ID == id })
}

// GetByUsername retrieves a user by username.
func (r *TableRepository) GetByUsername(ctx context.Context, username string) (User, error) {
	return r.find(ctx, func(u User) bool { return u.Username != nil && *u.Username == username })
}

// GetByOpenID retrieves a user by external login identity.
func (r *TableRepository) GetByOpenID(ctx context.Context, openID string) (User, error) {
	return r.find(ctx, func(u User) bool { return u.OpenID != nil && *u.OpenID == openID })
}

// Upsert inserts or updates the user identified by OpenID (preferred) or Username.
func (r *TableRepository) Upsert(ctx context.Context, p UpsertParams) (User, error) {
	if p.OpenID == nil && p.Username == nil {
		return User{}, ErrMissingIdentity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.table.Load(ctx)
	if err != nil {
		return User{}, fmt.Errorf("users: load: %w", err)
	}

	idx := -1
	for i, u := range rows {
		if p.OpenID != nil && u.OpenID != nil && *u.OpenID == *p.OpenID {
			idx = i
			break
		}
		if p.OpenID == nil && u.Username != nil && *u.Username == *p.Username {
			idx = i
			break
		}
	}

	now := r.now()
	u := User{
		OpenID:       p.OpenID,
		Username:     p.Username,
		PasswordHash: p.PasswordHash,
		Name:         p.Name,
		Email:        p.Email,
		LoginMethod:  p.LoginMethod,
		Role:         p.Role,
		UpdatedAt:    now,
		LastSignedIn: p.LastSignedIn,
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.LastSignedIn.IsZero() {
		u.LastSignedIn = now
	}

	if idx >= 0 {
		u.ID = rows[idx].ID
		u.CreatedAt = rows[idx].CreatedAt
		rows[idx] = u
	} else {
		maxID := 0
		for _, existing := range rows {
			if existing.ID > maxID {
				maxID = existing.ID
			}
		}
		u.ID = maxID + 1
		u.CreatedAt = now
		rows = append(rows, u)
	}

	if err := r.table.Save(ctx, rows); err != nil {
		return User{}, fmt.Errorf("users: save: %w", err)
	}
	return u, nil
}

// TouchLastSignedIn records a successful sign-in.
func (r *TableRepository) TouchLastSignedIn(ctx context.Context, id int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.table.Load(ctx)
	if err != nil {
		return fmt.Errorf("users: load: %w", err)
	}
	for i := range rows {
		if rows[i].ID == id {
			rows[i].LastSignedIn = at
			if err := r.table.Save(ctx, rows); err != nil {
				return fmt.Errorf("users: save: %w", err)
			}
			return nil
		}
	}
	return ErrUserNotFound
}
