package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, open_id, username, password_hash, name, email, login_method, role,
	created_at, updated_at, last_signed_in`

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	db *pgxpool.Pool
}

// NewPGRepository creates a new PGRepository.
func NewPGRepository(db *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: db}
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.OpenID, &u.Username, &u.PasswordHash, &u.Name, &u.Email,
		&u.LoginMethod, &role, &u.CreatedAt, &u.UpdatedAt, &u.LastSignedIn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	u.Role = Role(role)
	return u, nil
}

func (r *PGRepository) getBy(ctx context.Context, column string, value any) (User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)
	u, err := scanUser(r.db.QueryRow(ctx, query, value))
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return User{}, fmt.Errorf("users: select by %s: %w", column, err)
	}
	return u, err
}

// GetByID retrieves a user by id.
func (r *PGRepository) GetByID(ctx context.Context, id int) (User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByUsername retrieves a user by username.
func (r *PGRepository) GetByUsername(ctx context.Context, username string) (User, error) {
	return r.getBy(ctx, "username", username)
}

// GetByOpenID retrieves a user by external login identity.
func (r *PGRepository) GetByOpenID(ctx context.Context, openID string) (User, error) {
	return r.getBy(ctx, "open_id", openID)
}

// Upsert inserts or updates the user identified by OpenID (preferred) or Username.
func (r *PGRepository) Upsert(ctx context.Context, p UpsertParams) (User, error) {
	if p.OpenID == nil && p.Username == nil {
		return User{}, ErrMissingIdentity
	}
	role := p.Role
	if role == "" {
		role = RoleUser
	}
	lastSignedIn := p.LastSignedIn
	if lastSignedIn.IsZero() {
		lastSignedIn = time.Now()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return User{}, fmt.Errorf("users: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var existingID int
	if p.OpenID != nil {
		err = tx.QueryRow(ctx, `SELECT id FROM users WHERE open_id = $1 FOR UPDATE`, *p.OpenID).Scan(&existingID)
	} else {
		err = tx.QueryRow(ctx, `SELECT id FROM users WHERE username = $1 FOR UPDATE`, *p.Username).Scan(&existingID)
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("users: lookup: %w", err)
	}

	var row pgx.Row
	if existingID != 0 {
		row = tx.QueryRow(ctx, `
			UPDATE users
			SET open_id = $1, username = $2, password_hash = $3, name = $4, email = $5,
				login_method = $6, role = $7, last_signed_in = $8, updated_at = NOW()
			WHERE id = $9
			RETURNING `+userColumns,
			p.OpenID, p.Username, p.PasswordHash, p.Name, p.Email, p.LoginMethod, string(role), lastSignedIn, existingID)
	} else {
		row = tx.QueryRow(ctx, `
			INSERT INTO users (open_id, username, password_hash, name, email, login_method, role, last_signed_in)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+userColumns,
			p.OpenID, p.Username, p.PasswordHash, p.Name, p.Email, p.LoginMethod, string(role), lastSignedIn)
	}
	u, err := scanUser(row)
	if err != nil {
		return User{}, fmt.Errorf("users: upsert: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return User{}, fmt.Errorf("users: commit: %w", err)
	}
	return u, nil
}

// TouchLastSignedIn records a successful sign-in.
func (r *PGRepository) TouchLastSignedIn(ctx context.Context, id int, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET last_signed_in = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("users: touch last_signed_in: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
