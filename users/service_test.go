package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/imobiliaria-go/apperror"
	"github.com/user/imobiliaria-go/jsonstore"
)

func newTestService(t *testing.T) (*UserService, *TableRepository) {
	t.Helper()
	repo := NewTableRepository(jsonstore.NewMemory[User](), nil)
	return NewUserService(repo, bcrypt.MinCost), repo
}

func TestSeedDemoUserAuthenticates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	seeded, err := svc.SeedDemoUser(ctx, "@userCliente96", "@passwordCliente96")
	require.NoError(t, err)
	assert.Equal(t, 1, seeded.ID)
	assert.Equal(t, RoleAdmin, seeded.Role)
	require.NotNil(t, seeded.Name)
	assert.Equal(t, "Cliente 96", *seeded.Name)
	require.NotNil(t, seeded.LoginMethod)
	assert.Equal(t, LoginMethodPassword, *seeded.LoginMethod)

	u, err := svc.Authenticate(ctx, "@userCliente96", "@passwordCliente96")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, u.ID)
}

func TestSeedDemoUserIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	first, err := svc.SeedDemoUser(ctx, "demo", "one")
	require.NoError(t, err)
	second, err := svc.SeedDemoUser(ctx, "demo", "two")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	rows, err := repo.table.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = svc.Authenticate(ctx, "demo", "one")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "demo", "two")
	assert.NoError(t, err)
}

func TestAuthenticateRejects(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	_, err := svc.SeedDemoUser(ctx, "demo", "secret")
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, UpsertParams{OpenID: strPtr("oauth|1"), Username: strPtr("external")})
	require.NoError(t, err)

	cases := map[string][2]string{
		"unknown user":   {"nobody", "secret"},
		"wrong password": {"demo", "wrong"},
		"no password":    {"external", ""},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Authenticate(ctx, c[0], c[1])
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestAuthenticateTouchesLastSignedIn(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	_, err := svc.SeedDemoUser(ctx, "demo", "secret")
	require.NoError(t, err)

	later := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return later }
	_, err = svc.Authenticate(ctx, "demo", "secret")
	require.NoError(t, err)

	stored, err := repo.GetByUsername(ctx, "demo")
	require.NoError(t, err)
	assert.True(t, later.Equal(stored.LastSignedIn))
}

func TestCreatePasswordUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	u, err := svc.CreatePasswordUser(ctx, CreateParams{Username: " maria ", Password: "pw", Email: "Maria@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "maria", *u.Username)
	assert.Equal(t, "maria@example.com", *u.Email)
	assert.Equal(t, RoleUser, u.Role)

	_, err = svc.CreatePasswordUser(ctx, CreateParams{Username: "maria", Password: "other"})
	assert.True(t, apperror.IsConflictError(err))

	_, err = svc.CreatePasswordUser(ctx, CreateParams{Username: "", Password: "pw"})
	assert.True(t, apperror.IsValidationError(err))
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	seeded, err := svc.SeedDemoUser(ctx, "demo", "secret")
	require.NoError(t, err)

	u, err := svc.GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "demo", *u.Username)

	_, err = svc.GetByID(ctx, 99)
	assert.True(t, apperror.IsNotFound(err))
}

func TestProfileHidesPasswordHash(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	u, err := svc.SeedDemoUser(ctx, "demo", "secret")
	require.NoError(t, err)

	p := u.ToProfile()
	assert.Equal(t, u.ID, p.ID)
	assert.Equal(t, u.Username, p.Username)
}

func TestUpsertRequiresIdentity(t *testing.T) {
	repo := NewTableRepository(jsonstore.NewMemory[User](), nil)
	_, err := repo.Upsert(context.Background(), UpsertParams{Name: strPtr("x")})
	assert.True(t, errors.Is(err, ErrMissingIdentity))
}
