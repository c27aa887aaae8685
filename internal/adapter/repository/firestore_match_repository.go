package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/pkg/errors"
	"matchmate/pkg/logger"
)

type firestoreMatchRepository struct {
	client      *firestore.Client
	maxAttempts int
}

// NewFirestoreMatchRepository returns a repository whose transactions give up
// after maxAttempts optimistic conflicts.
func NewFirestoreMatchRepository(client *firestore.Client, maxAttempts int) repository.MatchRepository {
	if maxAttempts <= 0 {
		maxAttempts = firestore.DefaultTransactionMaxAttempts
	}
	return &firestoreMatchRepository{
		client:      client,
		maxAttempts: maxAttempts,
	}
}

func (r *firestoreMatchRepository) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.MatchTx) error) error {
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, &firestoreMatchTx{client: r.client, tx: tx})
	}, firestore.MaxAttempts(r.maxAttempts))
	if err == nil {
		return nil
	}

	if _, ok := errors.As(err); ok {
		return err
	}
	switch status.Code(err) {
	case codes.Aborted:
		return errors.TransactionConflict("Too much contention, try again", err)
	case codes.Unavailable, codes.DeadlineExceeded:
		return errors.Retrieval("Store unavailable", err)
	}
	return errors.Internal("Transaction failed", err)
}

func (r *firestoreMatchRepository) GetByID(ctx context.Context, id string) (*entity.Match, error) {
	doc, err := r.client.Collection(matchesCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Match", err)
		}
		return nil, errors.Retrieval("Failed to load match", err)
	}
	return decodeMatch(doc)
}

// ListByParticipant needs a composite index on (participants, lastMessageAt desc).
func (r *firestoreMatchRepository) ListByParticipant(ctx context.Context, uid string, limit int) ([]*entity.Match, error) {
	query := r.client.Collection(matchesCollection).
		Where("participants", "array-contains", uid).
		OrderBy("lastMessageAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var matches []*entity.Match
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Retrieval("Failed to list matches", err)
		}

		m, err := decodeMatch(doc)
		if err != nil {
			logger.Warn("Skipping undecodable match %s: %v", doc.Ref.ID, err)
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (r *firestoreMatchRepository) UpdateLastMessage(ctx context.Context, id, text string, at time.Time) error {
	return r.update(ctx, id, []firestore.Update{
		{Path: "lastMessageAt", Value: at},
		{Path: "lastMessageText", Value: entity.PreviewText(text)},
	})
}

func (r *firestoreMatchRepository) MarkSeen(ctx context.Context, id, uid string, at time.Time) error {
	return r.update(ctx, id, []firestore.Update{
		{FieldPath: firestore.FieldPath{"lastSeen", uid}, Value: at},
	})
}

func (r *firestoreMatchRepository) Unlock(ctx context.Context, id, uid string) error {
	return r.update(ctx, id, []firestore.Update{
		{FieldPath: firestore.FieldPath{"unlocked", uid}, Value: true},
	})
}

func (r *firestoreMatchRepository) update(ctx context.Context, id string, updates []firestore.Update) error {
	_, err := r.client.Collection(matchesCollection).Doc(id).Update(ctx, updates)
	if err != nil {
		if isNotFound(err) {
			return errors.NotFound("Match", err)
		}
		return errors.Internal("Failed to update match", err)
	}
	return nil
}

func (r *firestoreMatchRepository) Subscribe(ctx context.Context, id string, fn func(*entity.Match)) (repository.Subscription, error) {
	ref := r.client.Collection(matchesCollection).Doc(id)
	return watchDocument(ctx, ref, func(snap *firestore.DocumentSnapshot) {
		if !snap.Exists() {
			fn(nil)
			return
		}
		m, err := decodeMatch(snap)
		if err != nil {
			logger.Error("Failed to decode match %s: %v", id, err)
			return
		}
		fn(m)
	}), nil
}

type firestoreMatchTx struct {
	client *firestore.Client
	tx     *firestore.Transaction
}

// Store errors are returned as is so RunTransaction can tell aborts apart.
func (t *firestoreMatchTx) GetMatch(id string) (*entity.Match, error) {
	snap, err := t.tx.Get(t.client.Collection(matchesCollection).Doc(id))
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeMatch(snap)
}

func (t *firestoreMatchTx) GetQueueEntry(uid string) (*entity.QueueEntry, error) {
	snap, err := t.tx.Get(t.client.Collection(queueCollection).Doc(uid))
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeQueueEntry(snap)
}

func (t *firestoreMatchTx) CreateMatch(match *entity.Match) error {
	return t.tx.Create(t.client.Collection(matchesCollection).Doc(match.ID), match)
}

func (t *firestoreMatchTx) SetQueueStatus(uid string, queueStatus entity.QueueStatus, at time.Time) error {
	return t.tx.Update(t.client.Collection(queueCollection).Doc(uid), []firestore.Update{
		{Path: "status", Value: string(queueStatus)},
		{Path: "ts", Value: at},
		{Path: "statusAt", Value: at},
	})
}

// Now is the client clock; Firestore does not expose the commit time inside
// the transaction body.
func (t *firestoreMatchTx) Now() time.Time {
	return time.Now().UTC()
}

func decodeMatch(doc *firestore.DocumentSnapshot) (*entity.Match, error) {
	var m entity.Match
	if err := doc.DataTo(&m); err != nil {
		return nil, errors.Internal("Failed to decode match", err)
	}
	m.ID = doc.Ref.ID
	if m.LastSeen == nil {
		m.LastSeen = map[string]time.Time{}
	}
	if m.Unlocked == nil {
		m.Unlocked = map[string]bool{}
	}
	return &m, nil
}
