package repository

import (
	"context"

	"matchmate/internal/domain/entity"
)

type InterestRepository interface {
	List(ctx context.Context) ([]*entity.Interest, error)
	SaveAll(ctx context.Context, interests []*entity.Interest) error
}
