package usecase

import (
	"context"
	"sync"
	"time"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/internal/infrastructure/ratelimit"
	"matchmate/internal/infrastructure/telemetry"
	"matchmate/pkg/errors"
	"matchmate/pkg/logger"
)

type QueueUseCase struct {
	queueRepo    repository.QueueRepository
	rateLimiter  *ratelimit.RateLimiter
	releaseAfter time.Duration
	now          func() time.Time

	mu          sync.Mutex
	lastWritten map[string][]string
}

// NewQueueUseCase builds the queue use case. Writes per user are throttled by
// the limiter's queue_write policy; releaseAfter > 0 enables ReleaseStale.
func NewQueueUseCase(queueRepo repository.QueueRepository, rateLimiter *ratelimit.RateLimiter, releaseAfter time.Duration) *QueueUseCase {
	return &QueueUseCase{
		queueRepo:    queueRepo,
		rateLimiter:  rateLimiter,
		releaseAfter: releaseAfter,
		now:          time.Now,
		lastWritten:  make(map[string][]string),
	}
}

// SyncInterests publishes the user's interests to the queue. Identical sets
// and writes inside the throttle window are skipped. It reports whether the
// entry was written.
func (uc *QueueUseCase) SyncInterests(ctx context.Context, uid string, interests []string) (bool, error) {
	if uid == "" {
		return false, errors.Validation("user id is required")
	}
	interests = entity.NormalizeInterests(interests)
	if len(interests) == 0 {
		return false, errors.Validation("interests must not be empty")
	}

	uc.mu.Lock()
	last, ok := uc.lastWritten[uid]
	uc.mu.Unlock()
	if ok && entity.SameInterests(last, interests) {
		return false, nil
	}

	if allowed, wait := uc.rateLimiter.Allow(uid, ratelimit.ActionQueueWrite); !allowed {
		logger.Debug("Queue write for %s throttled for %s", uid, wait)
		return false, nil
	}

	if _, err := uc.queueRepo.Upsert(ctx, uid, interests); err != nil {
		return false, err
	}

	uc.mu.Lock()
	uc.lastWritten[uid] = interests
	uc.mu.Unlock()

	logger.Debug("Queue entry of %s synced with %d interests", uid, len(interests))
	return true, nil
}

func (uc *QueueUseCase) GetEntry(ctx context.Context, uid string) (*entity.QueueEntry, error) {
	return uc.queueRepo.GetByUserID(ctx, uid)
}

// Rejoin puts a matched user back into the waiting pool.
func (uc *QueueUseCase) Rejoin(ctx context.Context, uid string) (*entity.QueueEntry, error) {
	entry, err := uc.queueRepo.GetByUserID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if entry.IsWaiting() {
		return entry, nil
	}

	if err := uc.queueRepo.SetStatus(ctx, uid, entity.QueueStatusWaiting); err != nil {
		return nil, err
	}
	logger.Info("User %s rejoined the queue", uid)
	return uc.queueRepo.GetByUserID(ctx, uid)
}

// MarkMatched takes a user out of the pool without creating a match.
func (uc *QueueUseCase) MarkMatched(ctx context.Context, uid string) error {
	if uid == "" {
		return errors.Validation("user id is required")
	}
	if err := uc.queueRepo.SetStatus(ctx, uid, entity.QueueStatusMatched); err != nil {
		return err
	}
	logger.Info("User %s marked as matched", uid)
	return nil
}

// ReleaseStale returns users matched longer than releaseAfter to the pool.
func (uc *QueueUseCase) ReleaseStale(ctx context.Context) (int, error) {
	if uc.releaseAfter <= 0 {
		return 0, nil
	}

	released, err := uc.queueRepo.ReleaseMatchedBefore(ctx, uc.now().Add(-uc.releaseAfter))
	if err != nil {
		return 0, err
	}
	if released > 0 {
		telemetry.AddQueueReleased(released)
		logger.Info("Released %d queue entries back to waiting", released)
	}
	return released, nil
}

func (uc *QueueUseCase) Watch(ctx context.Context, uid string, fn func(*entity.QueueEntry)) (repository.Subscription, error) {
	return uc.queueRepo.Subscribe(ctx, uid, fn)
}
