package repository

import (
	"context"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/internal/infrastructure/memstore"
	"matchmate/pkg/errors"
)

type memoryUserRepository struct {
	store *memstore.Store
}

func NewMemoryUserRepository(store *memstore.Store) repository.UserRepository {
	return &memoryUserRepository{store: store}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *entity.User) error {
	r.store.Set(usersCollection, user.ID, user.Clone())
	return nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	v, ok := r.store.Get(usersCollection, id)
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return v.(*entity.User).Clone(), nil
}

func (r *memoryUserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.User, error) {
	users := make(map[string]*entity.User, len(ids))
	for _, id := range ids {
		if v, ok := r.store.Get(usersCollection, id); ok {
			users[id] = v.(*entity.User).Clone()
		}
	}
	return users, nil
}

func (r *memoryUserRepository) Update(ctx context.Context, user *entity.User) error {
	return r.store.Update(func(tx *memstore.Tx) error {
		if _, ok := tx.Get(usersCollection, user.ID); !ok {
			return errors.NotFound("User", nil)
		}
		tx.Set(usersCollection, user.ID, user.Clone())
		return nil
	})
}
