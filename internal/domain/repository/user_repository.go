package repository

import (
	"context"

	"matchmate/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
}
