package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/pkg/errors"
	"matchmate/pkg/logger"
)

type firestoreQueueRepository struct {
	client *firestore.Client
}

func NewFirestoreQueueRepository(client *firestore.Client) repository.QueueRepository {
	return &firestoreQueueRepository{
		client: client,
	}
}

func (r *firestoreQueueRepository) GetByUserID(ctx context.Context, uid string) (*entity.QueueEntry, error) {
	doc, err := r.client.Collection(queueCollection).Doc(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Queue entry", err)
		}
		return nil, errors.Retrieval("Failed to load queue entry", err)
	}
	return decodeQueueEntry(doc)
}

func (r *firestoreQueueRepository) Upsert(ctx context.Context, uid string, interests []string) (*entity.QueueEntry, error) {
	ref := r.client.Collection(queueCollection).Doc(uid)
	interests = entity.NormalizeInterests(interests)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(ref)
		switch {
		case isNotFound(err):
			return tx.Set(ref, map[string]interface{}{
				"status":    string(entity.QueueStatusWaiting),
				"interests": interests,
				"ts":        firestore.ServerTimestamp,
				"statusAt":  firestore.ServerTimestamp,
			})
		case err != nil:
			return err
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "interests", Value: interests},
			{Path: "ts", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		return nil, errors.Internal("Failed to write queue entry", err)
	}

	return r.GetByUserID(ctx, uid)
}

func (r *firestoreQueueRepository) FindWaiting(ctx context.Context, interests []string, limit int) ([]*entity.QueueEntry, error) {
	if len(interests) == 0 {
		return []*entity.QueueEntry{}, nil
	}

	values := make([]interface{}, 0, len(interests))
	for _, id := range interests {
		values = append(values, id)
	}

	query := r.client.Collection(queueCollection).
		Where("status", "==", string(entity.QueueStatusWaiting)).
		Where("interests", "array-contains-any", values).
		OrderBy("ts", firestore.Asc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Retrieval("Failed to query queue", err)
	}

	entries := make([]*entity.QueueEntry, 0, len(docs))
	for _, doc := range docs {
		entry, err := decodeQueueEntry(doc)
		if err != nil {
			logger.Warn("Skipping undecodable queue entry %s: %v", doc.Ref.ID, err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *firestoreQueueRepository) SetStatus(ctx context.Context, uid string, status entity.QueueStatus) error {
	_, err := r.client.Collection(queueCollection).Doc(uid).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(status)},
		{Path: "ts", Value: firestore.ServerTimestamp},
		{Path: "statusAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if isNotFound(err) {
			return errors.NotFound("Queue entry", err)
		}
		return errors.Internal("Failed to update queue status", err)
	}
	return nil
}

// ReleaseMatchedBefore reads every matched entry and filters on StatusSince,
// since entries written before statusAt existed lack the field and a range
// query on it would skip them. Each entry is re-checked in its own
// transaction so a concurrent match is never undone.
func (r *firestoreQueueRepository) ReleaseMatchedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	docs, err := r.client.Collection(queueCollection).
		Where("status", "==", string(entity.QueueStatusMatched)).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Retrieval("Failed to query matched entries", err)
	}

	released := 0
	for _, doc := range docs {
		if entry, err := decodeQueueEntry(doc); err != nil || !entry.StatusSince().Before(cutoff) {
			continue
		}
		ref := doc.Ref
		var changed bool
		err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			changed = false
			snap, err := tx.Get(ref)
			if err != nil {
				return err
			}
			entry, err := decodeQueueEntry(snap)
			if err != nil {
				return err
			}
			if entry.Status != entity.QueueStatusMatched || !entry.StatusSince().Before(cutoff) {
				return nil
			}
			changed = true
			return tx.Update(ref, []firestore.Update{
				{Path: "status", Value: string(entity.QueueStatusWaiting)},
				{Path: "ts", Value: firestore.ServerTimestamp},
				{Path: "statusAt", Value: firestore.ServerTimestamp},
			})
		})
		if err != nil {
			logger.Error("Failed to release queue entry %s: %v", ref.ID, err)
			continue
		}
		if changed {
			released++
		}
	}
	return released, nil
}

func (r *firestoreQueueRepository) Subscribe(ctx context.Context, uid string, fn func(*entity.QueueEntry)) (repository.Subscription, error) {
	ref := r.client.Collection(queueCollection).Doc(uid)
	return watchDocument(ctx, ref, func(snap *firestore.DocumentSnapshot) {
		if !snap.Exists() {
			fn(nil)
			return
		}
		entry, err := decodeQueueEntry(snap)
		if err != nil {
			logger.Error("Failed to decode queue entry %s: %v", uid, err)
			return
		}
		fn(entry)
	}), nil
}

func decodeQueueEntry(doc *firestore.DocumentSnapshot) (*entity.QueueEntry, error) {
	var entry entity.QueueEntry
	if err := doc.DataTo(&entry); err != nil {
		return nil, errors.Internal("Failed to decode queue entry", err)
	}
	entry.UserID = doc.Ref.ID
	return &entry, nil
}
