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

type memoryQueueRepository struct {
	store *memstore.Store
}

func NewMemoryQueueRepository(store *memstore.Store) repository.QueueRepository {
	return &memoryQueueRepository{store: store}
}

func (r *memoryQueueRepository) GetByUserID(ctx context.Context, uid string) (*entity.QueueEntry, error) {
	v, ok := r.store.Get(queueCollection, uid)
	if !ok {
		return nil, errors.NotFound("Queue entry", nil)
	}
	return v.(*entity.QueueEntry).Clone(), nil
}

func (r *memoryQueueRepository) Upsert(ctx context.Context, uid string, interests []string) (*entity.QueueEntry, error) {
	var saved *entity.QueueEntry
	err := r.store.Update(func(tx *memstore.Tx) error {
		entry := &entity.QueueEntry{UserID: uid, Status: entity.QueueStatusWaiting, StatusAt: tx.Now()}
		if v, ok := tx.Get(queueCollection, uid); ok {
			entry = v.(*entity.QueueEntry).Clone()
		}
		entry.Interests = entity.NormalizeInterests(interests)
		entry.Timestamp = tx.Now()
		tx.Set(queueCollection, uid, entry)
		saved = entry.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *memoryQueueRepository) FindWaiting(ctx context.Context, interests []string, limit int) ([]*entity.QueueEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Retrieval("Failed to query queue", err)
	}

	wanted := make(map[string]struct{}, len(interests))
	for _, id := range interests {
		wanted[id] = struct{}{}
	}

	var entries []*entity.QueueEntry
	for _, doc := range r.store.List(queueCollection) {
		entry := doc.Value.(*entity.QueueEntry)
		if !entry.IsWaiting() || !containsAny(entry.Interests, wanted) {
			continue
		}
		entries = append(entries, entry.Clone())
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *memoryQueueRepository) SetStatus(ctx context.Context, uid string, status entity.QueueStatus) error {
	return r.store.Update(func(tx *memstore.Tx) error {
		v, ok := tx.Get(queueCollection, uid)
		if !ok {
			return errors.NotFound("Queue entry", nil)
		}
		entry := v.(*entity.QueueEntry).Clone()
		entry.Status = status
		entry.Timestamp = tx.Now()
		entry.StatusAt = entry.Timestamp
		tx.Set(queueCollection, uid, entry)
		return nil
	})
}

func (r *memoryQueueRepository) ReleaseMatchedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	released := 0
	err := r.store.Update(func(tx *memstore.Tx) error {
		for _, doc := range tx.List(queueCollection) {
			entry := doc.Value.(*entity.QueueEntry)
			if entry.Status != entity.QueueStatusMatched || !entry.StatusSince().Before(cutoff) {
				continue
			}
			updated := entry.Clone()
			updated.Status = entity.QueueStatusWaiting
			updated.Timestamp = tx.Now()
			updated.StatusAt = updated.Timestamp
			tx.Set(queueCollection, doc.ID, updated)
			released++
		}
		return nil
	})
	return released, err
}

func (r *memoryQueueRepository) Subscribe(ctx context.Context, uid string, fn func(*entity.QueueEntry)) (repository.Subscription, error) {
	return r.store.Watch(ctx, queueCollection, uid, func() {
		v, ok := r.store.Get(queueCollection, uid)
		if !ok {
			fn(nil)
			return
		}
		fn(v.(*entity.QueueEntry).Clone())
	}), nil
}

func containsAny(values []string, set map[string]struct{}) bool {
	for _, v := range values {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}
