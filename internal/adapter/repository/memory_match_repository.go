package repository

import (
	"context"
	"sort"
	"time"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/internal/infrastructure/memstore"
	"matchmate/pkg/errors"
)

type memoryMatchRepository struct {
	store *memstore.Store
}

func NewMemoryMatchRepository(store *memstore.Store) repository.MatchRepository {
	return &memoryMatchRepository{store: store}
}

func (r *memoryMatchRepository) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.MatchTx) error) error {
	if err := ctx.Err(); err != nil {
		return errors.Retrieval("Transaction not started", err)
	}
	return r.store.Update(func(tx *memstore.Tx) error {
		return fn(ctx, &memoryMatchTx{tx: tx})
	})
}

func (r *memoryMatchRepository) GetByID(ctx context.Context, id string) (*entity.Match, error) {
	v, ok := r.store.Get(matchesCollection, id)
	if !ok {
		return nil, errors.NotFound("Match", nil)
	}
	return v.(*entity.Match).Clone(), nil
}

func (r *memoryMatchRepository) ListByParticipant(ctx context.Context, uid string, limit int) ([]*entity.Match, error) {
	var matches []*entity.Match
	for _, doc := range r.store.List(matchesCollection) {
		m := doc.Value.(*entity.Match)
		if m.HasParticipant(uid) {
			matches = append(matches, m.Clone())
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].LastMessageAt.Equal(matches[j].LastMessageAt) {
			return matches[i].LastMessageAt.After(matches[j].LastMessageAt)
		}
		return matches[i].ID < matches[j].ID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *memoryMatchRepository) UpdateLastMessage(ctx context.Context, id, text string, at time.Time) error {
	return r.modify(id, func(m *entity.Match) {
		m.LastMessageAt = at
		m.LastMessageText = entity.PreviewText(text)
	})
}

func (r *memoryMatchRepository) MarkSeen(ctx context.Context, id, uid string, at time.Time) error {
	return r.modify(id, func(m *entity.Match) {
		m.LastSeen[uid] = at
	})
}

func (r *memoryMatchRepository) Unlock(ctx context.Context, id, uid string) error {
	return r.modify(id, func(m *entity.Match) {
		m.Unlocked[uid] = true
	})
}

func (r *memoryMatchRepository) modify(id string, fn func(*entity.Match)) error {
	return r.store.Update(func(tx *memstore.Tx) error {
		v, ok := tx.Get(matchesCollection, id)
		if !ok {
			return errors.NotFound("Match", nil)
		}
		m := v.(*entity.Match).Clone()
		fn(m)
		tx.Set(matchesCollection, id, m)
		return nil
	})
}

func (r *memoryMatchRepository) Subscribe(ctx context.Context, id string, fn func(*entity.Match)) (repository.Subscription, error) {
	return r.store.Watch(ctx, matchesCollection, id, func() {
		v, ok := r.store.Get(matchesCollection, id)
		if !ok {
			fn(nil)
			return
		}
		fn(v.(*entity.Match).Clone())
	}), nil
}

type memoryMatchTx struct {
	tx *memstore.Tx
}

func (t *memoryMatchTx) GetMatch(id string) (*entity.Match, error) {
	v, ok := t.tx.Get(matchesCollection, id)
	if !ok {
		return nil, nil
	}
	return v.(*entity.Match).Clone(), nil
}

func (t *memoryMatchTx) GetQueueEntry(uid string) (*entity.QueueEntry, error) {
	v, ok := t.tx.Get(queueCollection, uid)
	if !ok {
		return nil, nil
	}
	return v.(*entity.QueueEntry).Clone(), nil
}

func (t *memoryMatchTx) CreateMatch(match *entity.Match) error {
	t.tx.Set(matchesCollection, match.ID, match.Clone())
	return nil
}

func (t *memoryMatchTx) SetQueueStatus(uid string, status entity.QueueStatus, at time.Time) error {
	v, ok := t.tx.Get(queueCollection, uid)
	if !ok {
		return errors.NotFound("Queue entry", nil)
	}
	entry := v.(*entity.QueueEntry).Clone()
	entry.Status = status
	entry.Timestamp = at
	entry.StatusAt = at
	t.tx.Set(queueCollection, uid, entry)
	return nil
}

func (t *memoryMatchTx) Now() time.Time {
	return t.tx.Now()
}
