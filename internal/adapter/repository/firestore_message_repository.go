package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/pkg/errors"
	"matchmate/pkg/logger"
)

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) messages(matchID string) *firestore.CollectionRef {
	return r.client.Collection(matchesCollection).Doc(matchID).Collection(messagesCollection)
}

func (r *firestoreMessageRepository) Append(ctx context.Context, msg *entity.Message) error {
	ref := r.messages(msg.MatchID).Doc(uuid.NewString())

	result, err := ref.Create(ctx, map[string]interface{}{
		"from":      msg.From,
		"text":      msg.Text,
		"createdAt": firestore.ServerTimestamp,
	})
	if err != nil {
		return errors.Internal("Failed to send message", err)
	}

	msg.ID = ref.ID
	msg.CreatedAt = result.UpdateTime
	return nil
}

func (r *firestoreMessageRepository) ListBefore(ctx context.Context, matchID, beforeID string, limit int) ([]*entity.Message, error) {
	col := r.messages(matchID)
	query := col.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)

	if beforeID != "" {
		cursor, err := col.Doc(beforeID).Get(ctx)
		if err != nil {
			if isNotFound(err) {
				return nil, errors.NotFound("Message", err)
			}
			return nil, errors.Retrieval("Failed to load message cursor", err)
		}
		query = query.StartAfter(cursor)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Retrieval("Failed to load messages", err)
	}
	return decodeNewestFirst(matchID, docs), nil
}

func (r *firestoreMessageRepository) Subscribe(ctx context.Context, matchID string, limit int, fn func([]*entity.Message)) (repository.Subscription, error) {
	query := r.messages(matchID).OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	return watchQuery(ctx, "messages of "+matchID, query, func(docs []*firestore.DocumentSnapshot) {
		fn(decodeNewestFirst(matchID, docs))
	}), nil
}

// decodeNewestFirst turns a descending page into ascending messages.
func decodeNewestFirst(matchID string, docs []*firestore.DocumentSnapshot) []*entity.Message {
	messages := make([]*entity.Message, 0, len(docs))
	for i := len(docs) - 1; i >= 0; i-- {
		var msg entity.Message
		if err := docs[i].DataTo(&msg); err != nil {
			logger.Warn("Skipping undecodable message %s: %v", docs[i].Ref.ID, err)
			continue
		}
		msg.ID = docs[i].Ref.ID
		msg.MatchID = matchID
		messages = append(messages, &msg)
	}
	return messages
}
