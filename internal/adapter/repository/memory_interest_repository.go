package repository

import (
	"context"
	"sort"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/internal/infrastructure/memstore"
)

type memoryInterestRepository struct {
	store *memstore.Store
}

func NewMemoryInterestRepository(store *memstore.Store) repository.InterestRepository {
	return &memoryInterestRepository{store: store}
}

func (r *memoryInterestRepository) List(ctx context.Context) ([]*entity.Interest, error) {
	docs := r.store.List(interestsCollection)
	interests := make([]*entity.Interest, 0, len(docs))
	for _, doc := range docs {
		i := *doc.Value.(*entity.Interest)
		interests = append(interests, &i)
	}
	sortInterests(interests)
	return interests, nil
}

func (r *memoryInterestRepository) SaveAll(ctx context.Context, interests []*entity.Interest) error {
	return r.store.Update(func(tx *memstore.Tx) error {
		for _, i := range interests {
			stored := *i
			tx.Set(interestsCollection, i.ID, &stored)
		}
		return nil
	})
}

func sortInterests(interests []*entity.Interest) {
	sort.SliceStable(interests, func(i, j int) bool {
		if interests[i].Name != interests[j].Name {
			return interests[i].Name < interests[j].Name
		}
		return interests[i].ID < interests[j].ID
	})
}
