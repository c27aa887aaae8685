package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	adapter "matchmate/internal/adapter/repository"
	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/internal/infrastructure/memstore"
	"matchmate/internal/infrastructure/ratelimit"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	store     *memstore.Store
	users     repository.UserRepository
	queueRepo repository.QueueRepository
	matches   repository.MatchRepository
	messages  repository.MessageRepository
	catalog   repository.InterestRepository
	limiter   *ratelimit.RateLimiter

	queue     *QueueUseCase
	match     *MatchUseCase
	chat      *ChatUseCase
	interests *InterestUseCase
	profiles  *UserUseCase
}

// newFixture wires every use case over one in-memory store. Rate limits are
// off unless opts set a policy.
func newFixture(t *testing.T, opts ...ratelimit.Option) *fixture {
	t.Helper()

	limiterOpts := []ratelimit.Option{
		ratelimit.WithPolicy(ratelimit.ActionSendMessage, ratelimit.Policy{}),
		ratelimit.WithPolicy(ratelimit.ActionSearch, ratelimit.Policy{}),
		ratelimit.WithPolicy(ratelimit.ActionCreateMatch, ratelimit.Policy{}),
		ratelimit.WithPolicy(ratelimit.ActionQueueWrite, ratelimit.Policy{}),
	}
	limiterOpts = append(limiterOpts, opts...)

	store := memstore.New()
	f := &fixture{
		store:     store,
		users:     adapter.NewMemoryUserRepository(store),
		queueRepo: adapter.NewMemoryQueueRepository(store),
		matches:   adapter.NewMemoryMatchRepository(store),
		messages:  adapter.NewMemoryMessageRepository(store),
		catalog:   adapter.NewMemoryInterestRepository(store),
		limiter:   ratelimit.NewRateLimiter(limiterOpts...),
	}
	f.queue = NewQueueUseCase(f.queueRepo, f.limiter, time.Hour)
	f.match = NewMatchUseCase(f.matches, f.queueRepo, f.users, f.queue, f.limiter, MatchConfig{})
	f.chat = NewChatUseCase(f.matches, f.messages, f.users, f.limiter, 50)
	f.interests = NewInterestUseCase(f.catalog)
	f.profiles = NewUserUseCase(f.users, f.interests, f.queue, nil, 5)
	return f
}

// addUser stores a profile and a waiting queue entry for uid.
func (f *fixture) addUser(t *testing.T, uid string, age int, interests ...string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.users.Create(ctx, &entity.User{
		ID:        uid,
		Nickname:  "nick-" + uid,
		Age:       age,
		Interests: interests,
	}))
	_, err := f.queueRepo.Upsert(ctx, uid, interests)
	require.NoError(t, err)
}

func (f *fixture) pair(t *testing.T, a, b string) *entity.Match {
	t.Helper()
	ctx := context.Background()

	outcome, err := f.match.CreateMatchIfAvailable(ctx, a, b)
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome.Kind)

	m, err := f.matches.GetByID(ctx, outcome.MatchID)
	require.NoError(t, err)
	return m
}
