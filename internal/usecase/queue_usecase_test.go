package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapter "matchmate/internal/adapter/repository"
	"matchmate/internal/domain/entity"
	"matchmate/internal/infrastructure/memstore"
	"matchmate/internal/infrastructure/ratelimit"
	"matchmate/pkg/errors"
)

func TestSyncInterestsSkipsUnchangedSet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	written, err := f.queue.SyncInterests(ctx, "alice", []string{"music", "hiking"})
	require.NoError(t, err)
	assert.True(t, written)

	before, err := f.queue.GetEntry(ctx, "alice")
	require.NoError(t, err)

	written, err = f.queue.SyncInterests(ctx, "alice", []string{"hiking", "music", "music"})
	require.NoError(t, err)
	assert.False(t, written)

	after, err := f.queue.GetEntry(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, before.Timestamp, after.Timestamp)

	written, err = f.queue.SyncInterests(ctx, "alice", []string{"cooking"})
	require.NoError(t, err)
	assert.True(t, written)

	after, err = f.queue.GetEntry(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"cooking"}, after.Interests)
	assert.True(t, after.Timestamp.After(before.Timestamp))
}

func TestSyncInterestsThrottlesWrites(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	limiter := ratelimit.NewRateLimiter(ratelimit.WithClock(clock.Now))
	queueRepo := adapter.NewMemoryQueueRepository(memstore.New())
	uc := NewQueueUseCase(queueRepo, limiter, 0)

	written, err := uc.SyncInterests(ctx, "alice", []string{"music"})
	require.NoError(t, err)
	assert.True(t, written)

	written, err = uc.SyncInterests(ctx, "alice", []string{"hiking"})
	require.NoError(t, err)
	assert.False(t, written, "second write inside the window is dropped")

	entry, err := uc.GetEntry(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"music"}, entry.Interests)

	clock.Advance(6 * time.Second)
	written, err = uc.SyncInterests(ctx, "alice", []string{"hiking"})
	require.NoError(t, err)
	assert.True(t, written)

	written, err = uc.SyncInterests(ctx, "bob", []string{"hiking"})
	require.NoError(t, err)
	assert.True(t, written, "throttle is per user")
}

func TestSyncInterestsValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.queue.SyncInterests(context.Background(), "alice", []string{"", ""})
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = f.queue.SyncInterests(context.Background(), "", []string{"music"})
	assert.True(t, errors.Is(err, errors.CodeValidation))
}

func TestMarkMatchedAndRejoin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "alice", 0, "music")

	require.NoError(t, f.queue.MarkMatched(ctx, "alice"))
	entry, err := f.queue.GetEntry(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, entity.QueueStatusMatched, entry.Status)

	entry, err = f.queue.Rejoin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, entity.QueueStatusWaiting, entry.Status)

	again, err := f.queue.Rejoin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, entry.Timestamp, again.Timestamp, "rejoining while waiting is a no-op")

	_, err = f.queue.Rejoin(ctx, "ghost")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
	assert.True(t, errors.Is(f.queue.MarkMatched(ctx, "ghost"), errors.CodeNotFound))
}

func TestReleaseStale(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := memstore.New(memstore.WithClock(clock.Now))
	queueRepo := adapter.NewMemoryQueueRepository(store)
	limiter := ratelimit.NewRateLimiter(ratelimit.WithPolicy(ratelimit.ActionQueueWrite, ratelimit.Policy{}))

	uc := NewQueueUseCase(queueRepo, limiter, time.Minute)
	uc.now = clock.Now

	_, err := queueRepo.Upsert(ctx, "alice", []string{"music"})
	require.NoError(t, err)
	_, err = queueRepo.Upsert(ctx, "bob", []string{"music"})
	require.NoError(t, err)
	require.NoError(t, uc.MarkMatched(ctx, "alice"))

	released, err := uc.ReleaseStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, released)

	clock.Advance(2 * time.Minute)
	require.NoError(t, uc.MarkMatched(ctx, "bob"))

	released, err = uc.ReleaseStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	alice, err := uc.GetEntry(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, alice.IsWaiting())
	bob, err := uc.GetEntry(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, bob.IsWaiting())

	disabled := NewQueueUseCase(queueRepo, limiter, 0)
	released, err = disabled.ReleaseStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, released)
}

func TestReleaseStaleIgnoresInterestEdits(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := memstore.New(memstore.WithClock(clock.Now))
	queueRepo := adapter.NewMemoryQueueRepository(store)
	limiter := ratelimit.NewRateLimiter(ratelimit.WithPolicy(ratelimit.ActionQueueWrite, ratelimit.Policy{}))

	uc := NewQueueUseCase(queueRepo, limiter, time.Minute)
	uc.now = clock.Now

	_, err := uc.SyncInterests(ctx, "alice", []string{"music"})
	require.NoError(t, err)
	require.NoError(t, uc.MarkMatched(ctx, "alice"))
	matched, err := uc.GetEntry(ctx, "alice")
	require.NoError(t, err)

	clock.Advance(50 * time.Second)
	written, err := uc.SyncInterests(ctx, "alice", []string{"music", "hiking"})
	require.NoError(t, err)
	require.True(t, written)

	edited, err := uc.GetEntry(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, entity.QueueStatusMatched, edited.Status)
	assert.True(t, edited.Timestamp.After(matched.Timestamp))
	assert.Equal(t, matched.StatusAt, edited.StatusAt)

	clock.Advance(20 * time.Second)
	released, err := uc.ReleaseStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	alice, err := uc.GetEntry(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, alice.IsWaiting())
	assert.Equal(t, alice.Timestamp, alice.StatusAt)
}

func TestQueueWatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "alice", 0, "music")

	updates := make(chan entity.QueueStatus, 8)
	sub, err := f.queue.Watch(ctx, "alice", func(e *entity.QueueEntry) {
		if e != nil {
			updates <- e.Status
		}
	})
	require.NoError(t, err)
	defer sub.Stop()

	require.NoError(t, f.queue.MarkMatched(ctx, "alice"))

	assert.Eventually(t, func() bool {
		for {
			select {
			case s := <-updates:
				if s == entity.QueueStatusMatched {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 10*time.Millisecond)
}
