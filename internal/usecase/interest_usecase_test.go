package usecase

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchmate/internal/domain/entity"
)

func TestDefaultInterestsHaveSlugIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, i := range DefaultInterests() {
		assert.NotEmpty(t, i.Category, i.Name)
		assert.False(t, seen[i.ID], "duplicate id %s", i.ID)
		seen[i.ID] = true
	}
	assert.True(t, seen["vegan-food"])
	assert.True(t, seen["board-games"])
	assert.True(t, seen["music"])
}

func TestListInterestsSeedsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.interests.ListInterests(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	interests, err := f.interests.ListInterests(ctx)
	require.NoError(t, err)
	assert.Len(t, interests, len(DefaultInterests()))
	assert.True(t, sort.SliceIsSorted(interests, func(i, j int) bool {
		return interests[i].Name < interests[j].Name
	}))
}

func TestListInterestsKeepsExistingCatalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.catalog.SaveAll(ctx, []*entity.Interest{{ID: "chess", Name: "Chess", Category: "Games"}}))

	interests, err := f.interests.ListInterests(ctx)
	require.NoError(t, err)
	require.Len(t, interests, 1)
	assert.Equal(t, "chess", interests[0].ID)
}

func TestUnknownInterests(t *testing.T) {
	f := newFixture(t)

	unknown, err := f.interests.Unknown(context.Background(), []string{"music", "underwater-basket", "hiking"})
	require.NoError(t, err)
	assert.Equal(t, []string{"underwater-basket"}, unknown)
}
