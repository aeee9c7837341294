package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/imobiliaria-go/apperror"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// ErrInvalidCredentials is returned by Authenticate for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("users: invalid credentials")

// CreateParams describes a password user to create.
type CreateParams struct {
	Username string
	Password string
	Name     string
	Email    string
	Role     Role
}

// UserService provides methods for user lookup, password verification and seeding.
type UserService struct {
	repo       Repository
	bcryptCost int
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewUserService creates a new UserService. A cost outside bcrypt's range falls back to bcrypt.DefaultCost.
func NewUserService(repo Repository, bcryptCost int) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{repo: repo, bcryptCost: bcryptCost, now: time.Now}
}

// GetByID returns the user with the given id or a NotFoundError.
func (s *UserService) GetByID(ctx context.Context, id int) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, apperror.NewNotFoundError(fmt.Sprintf("user with ID %d not found", id), err)
		}
		return User{}, apperror.NewDatabaseError("failed to get user", err)
	}
	return u, nil
}

// Authenticate verifies username and password. Unknown users, users without a
// password and wrong passwords all yield ErrInvalidCredentials so callers cannot
// tell them apart.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Spend the same bcrypt work as a real comparison.
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return User{}, ErrInvalidCredentials
		}
		return User{}, apperror.NewDatabaseError("failed to get user", err)
	}
	if u.PasswordHash == nil || *u.PasswordHash == "" {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	at := s.now()
	if err := s.repo.TouchLastSignedIn(ctx, u.ID, at); err != nil {
		return User{}, apperror.NewDatabaseError("failed to record sign-in", err)
	}
	u.LastSignedIn = at
	return u, nil
}

// CreatePasswordUser hashes the password and inserts a new user. An existing
// username is reported as a ConflictError.
func (s *UserService) CreatePasswordUser(ctx context.Context, p CreateParams) (User, error) {
	username := strings.TrimSpace(p.Username)
	if username == "" || p.Password == "" {
		return User{}, apperror.NewValidationError("username and password are required", nil)
	}

	_, err := s.repo.GetByUsername(ctx, username)
	if err == nil {
		return User{}, apperror.NewConflictError("username already exists", nil)
	}
	if !errors.Is(err, ErrUserNotFound) {
		return User{}, apperror.NewDatabaseError("failed to get user", err)
	}

	params, err := s.passwordParams(username, p)
	if err != nil {
		return User{}, err
	}
	u, err := s.repo.Upsert(ctx, params)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return User{}, apperror.NewConflictError("username already exists", nil)
		}
		return User{}, apperror.NewDatabaseError("failed to create user", err)
	}
	return u, nil
}

// SeedDemoUser makes sure the demo account exists with the given password.
// Running it again refreshes the hash and keeps the same id.
func (s *UserService) SeedDemoUser(ctx context.Context, username, password string) (User, error) {
	params, err := s.passwordParams(username, CreateParams{
		Password: password,
		Name:     "Cliente 96",
		Role:     RoleAdmin,
	})
	if err != nil {
		return User{}, err
	}
	if existing, err := s.repo.GetByUsername(ctx, username); err == nil {
		params.LastSignedIn = existing.LastSignedIn
	}
	u, err := s.repo.Upsert(ctx, params)
	if err != nil {
		return User{}, apperror.NewDatabaseError("failed to seed demo user", err)
	}
	return u, nil
}

func (s *UserService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), s.bcryptCost)
	})
	return s.dummyHash
}

func (s *UserService) passwordParams(username string, p CreateParams) (UpsertParams, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.bcryptCost)
	if err != nil {
		return UpsertParams{}, apperror.NewInternalError("failed to hash password", err)
	}
	role := p.Role
	if role == "" {
		role = RoleUser
	}
	params := UpsertParams{
		Username:     strPtr(username),
		PasswordHash: strPtr(string(hash)),
		LoginMethod:  strPtr(LoginMethodPassword),
		Role:         role,
		LastSignedIn: s.now(),
	}
	if p.Name != "" {
		params.Name = strPtr(p.Name)
	}
	if p.Email != "" {
		params.Email = strPtr(strings.ToLower(p.Email))
	}
	return params, nil
}
