package repository

import (
	"context"
	"time"

	"matchmate/internal/domain/entity"
)

type QueueRepository interface {
	GetByUserID(ctx context.Context, uid string) (*entity.QueueEntry, error)

	// Upsert writes interests and timestamp. A new entry starts waiting; an
	// existing entry keeps its status.
	Upsert(ctx context.Context, uid string, interests []string) (*entity.QueueEntry, error)

	// FindWaiting returns waiting entries sharing at least one of interests,
	// oldest first. Callers bound interests to the backend's disjunction cap.
	FindWaiting(ctx context.Context, interests []string, limit int) ([]*entity.QueueEntry, error)

	SetStatus(ctx context.Context, uid string, status entity.QueueStatus) error

	// ReleaseMatchedBefore flips entries matched before cutoff back to waiting.
	ReleaseMatchedBefore(ctx context.Context, cutoff time.Time) (int, error)

	Subscribe(ctx context.Context, uid string, fn func(*entity.QueueEntry)) (Subscription, error)
}
