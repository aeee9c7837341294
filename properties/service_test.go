package properties

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/imobiliaria-go/apperror"
	"github.com/user/imobiliaria-go/jsonstore"
)

func intp(i int) *int                    { return &i }
func boolp(b bool) *bool                 { return &b }
func strp(s string) *string              { return &s }
func typep(t PropertyType) *PropertyType { return &t }

type tickingClock struct{ t time.Time }

func (c *tickingClock) Now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newService(t *testing.T) *PropertyService {
	t.Helper()
	clock := &tickingClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewPropertyService(NewTableRepository(jsonstore.NewMemory[Property](), clock.Now))
}

func studio(title string) CreateInput {
	return CreateInput{Title: title, Type: TypeStudio, Area: 40, Price: 100000}
}

func TestSearchByType(t *testing.T) {
	svc := newService(t)
	rows, err := svc.Search(context.Background(), SearchInput{Type: typep(TypeCasa)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].ID)
	assert.Equal(t, "Casa com Piscina e Jardim", rows[0].Title)
}

func TestSearchFilters(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   SearchInput
		ids  []int
	}{
		{"all seeds in id order", SearchInput{}, []int{1, 2, 3, 4, 5, 6}},
		{"neighborhood is case-insensitive", SearchInput{Neighborhood: strp("moinhos")}, []int{4}},
		{"price range inclusive", SearchInput{MinPrice: intp(450000), MaxPrice: intp(650000)}, []int{1, 4, 5}},
		{"bedrooms and bathrooms", SearchInput{MinBedrooms: intp(4), MinBathrooms: intp(4)}, []int{6}},
		{"not featured", SearchInput{Featured: boolp(false)}, []int{3, 5}},
		{"free text over address", SearchInput{Search: strp("paulista")}, []int{2}},
		{"pagination", SearchInput{Limit: intp(2), Offset: intp(1)}, []int{2, 3}},
		{"offset past end", SearchInput{Offset: intp(50)}, []int{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rows, err := svc.Search(ctx, c.in)
			require.NoError(t, err)
			ids := make([]int, 0, len(rows))
			for _, p := range rows {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, c.ids, ids)
		})
	}
}

func TestSearchRejectsBadInput(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Search(ctx, SearchInput{Limit: intp(101)})
	assert.True(t, apperror.IsValidationError(err))
	_, err = svc.Search(ctx, SearchInput{Limit: intp(0)})
	assert.True(t, apperror.IsValidationError(err))
	_, err = svc.Search(ctx, SearchInput{Offset: intp(-1)})
	assert.True(t, apperror.IsValidationError(err))
	_, err = svc.Search(ctx, SearchInput{Type: typep("Castelo")})
	assert.True(t, apperror.IsValidationError(err))
}

func TestSearchIsIdempotent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, studio("Novo"), 0)
	require.NoError(t, err)

	in := SearchInput{MinPrice: intp(1)}
	first, err := svc.Search(ctx, in)
	require.NoError(t, err)
	second, err := svc.Search(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCreateDefaultsAndOrdering(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	in := studio("X")
	in.Image = strp("   ")
	p, err := svc.Create(ctx, in, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, p.ID)
	assert.Equal(t, 7, p.UserID)
	assert.Zero(t, p.Bedrooms)
	assert.Nil(t, p.Image)
	assert.Equal(t, FlagTrue, p.Available)
	assert.Equal(t, FlagFalse, p.Featured)

	rows, err := svc.Search(ctx, SearchInput{})
	require.NoError(t, err)
	assert.Equal(t, p.ID, rows[0].ID, "newest listing first")

	mine, err := svc.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, p.ID, mine[0].ID)
}

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	last := MaxSeedID
	for i := 0; i < 5; i++ {
		p, err := svc.Create(ctx, studio("Listing"), 0)
		require.NoError(t, err)
		assert.Greater(t, p.ID, last)
		last = p.ID
	}

	// Ids stay above every remaining row after a delete.
	require.NoError(t, svc.Delete(ctx, last))
	p, err := svc.Create(ctx, studio("Again"), 0)
	require.NoError(t, err)
	assert.Greater(t, p.ID, MaxSeedID+4)
}

func TestCreateValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	cases := map[string]func(*CreateInput){
		"empty title":    func(in *CreateInput) { in.Title = "" },
		"negative price": func(in *CreateInput) { in.Price = -1 },
		"zero area":      func(in *CreateInput) { in.Area = 0 },
		"bad type":       func(in *CreateInput) { in.Type = "Castelo" },
		"negative rooms": func(in *CreateInput) { in.Bedrooms = intp(-1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := studio("X")
			mutate(&in)
			_, err := svc.Create(ctx, in, 0)
			assert.True(t, apperror.IsValidationError(err))
		})
	}

	in := studio("X")
	in.Image = strp("ftp://example.com/a.png")
	_, err := svc.Create(ctx, in, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Imagem deve ser uma URL válida ou uma imagem em base64")

	in.Image = strp("data:image/png;base64,AAAA")
	_, err = svc.Create(ctx, in, 0)
	assert.NoError(t, err)
}

func TestCreateThenDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, studio("X"), 0)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, p.ID))

	got, err := svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = svc.Delete(ctx, p.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestSeedListingsAreImmutable(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for _, seed := range Seeds() {
		err := svc.Delete(ctx, seed.ID)
		assert.True(t, apperror.IsUnauthorizedError(err), "delete %d", seed.ID)

		_, err = svc.Update(ctx, UpdateInput{ID: seed.ID, Price: intp(1)})
		assert.True(t, apperror.IsUnauthorizedError(err), "update %d", seed.ID)
	}

	got, err := svc.GetByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 450000, got.Price)
}

func TestSeedTitleIsImmutableOnCreatedListing(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, studio("Casa com Piscina e Jardim"), 0)
	require.NoError(t, err)
	err = svc.Delete(ctx, p.ID)
	assert.True(t, apperror.IsUnauthorizedError(err))
}

func TestUpdateMergesFields(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, studio("X"), 3)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, UpdateInput{ID: p.ID, Price: intp(120000), Featured: boolp(true)})
	require.NoError(t, err)
	assert.Equal(t, 120000, updated.Price)
	assert.Equal(t, FlagTrue, updated.Featured)
	assert.Equal(t, "X", updated.Title)
	assert.Equal(t, 3, updated.UserID)
	assert.True(t, updated.UpdatedAt.After(p.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(p.CreatedAt))

	_, err = svc.Update(ctx, UpdateInput{ID: 999, Price: intp(1)})
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.Update(ctx, UpdateInput{ID: p.ID, Title: strp("")})
	assert.True(t, apperror.IsValidationError(err))
}

func TestFileBackedRepositoryPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "properties.json")

	svc := NewPropertyService(NewTableRepository(jsonstore.NewFile[Property](path), nil))
	p, err := svc.Create(ctx, studio("Persisted"), 0)
	require.NoError(t, err)

	reopened := NewPropertyService(NewTableRepository(jsonstore.NewFile[Property](path), nil))
	got, err := reopened.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Persisted", got.Title)

	rows, err := reopened.Search(ctx, SearchInput{Limit: intp(100)})
	require.NoError(t, err)
	assert.Len(t, rows, 7)
}
