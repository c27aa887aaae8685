package repository

import (
	"context"
	"time"

	"matchmate/internal/domain/entity"
)

// MatchTx is the view of the store inside a match transaction. Reads observe
// one consistent snapshot and must all happen before the first write.
type MatchTx interface {
	// GetMatch returns nil without error when the match does not exist.
	GetMatch(id string) (*entity.Match, error)
	// GetQueueEntry returns nil without error when the user is not queued.
	GetQueueEntry(uid string) (*entity.QueueEntry, error)
	CreateMatch(match *entity.Match) error
	SetQueueStatus(uid string, status entity.QueueStatus, at time.Time) error
	Now() time.Time
}

type MatchRepository interface {
	// RunInTransaction executes fn atomically. Optimistic conflicts are
	// retried by the store; once retries are exhausted the error carries
	// the TRANSACTION_CONFLICT code. An error returned by fn aborts the
	// transaction without writes and is returned unchanged.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx MatchTx) error) error

	GetByID(ctx context.Context, id string) (*entity.Match, error)
	ListByParticipant(ctx context.Context, uid string, limit int) ([]*entity.Match, error)
	UpdateLastMessage(ctx context.Context, id, text string, at time.Time) error
	MarkSeen(ctx context.Context, id, uid string, at time.Time) error
	Unlock(ctx context.Context, id, uid string) error

	Subscribe(ctx context.Context, id string, fn func(*entity.Match)) (Subscription, error)
}
