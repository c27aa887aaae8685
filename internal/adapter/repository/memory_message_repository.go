package repository

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/internal/infrastructure/memstore"
	"matchmate/pkg/errors"
)

type memoryMessageRepository struct {
	store *memstore.Store
}

func NewMemoryMessageRepository(store *memstore.Store) repository.MessageRepository {
	return &memoryMessageRepository{store: store}
}

func (r *memoryMessageRepository) Append(ctx context.Context, msg *entity.Message) error {
	return r.store.Update(func(tx *memstore.Tx) error {
		msg.ID = uuid.NewString()
		msg.CreatedAt = tx.Now()
		stored := *msg
		tx.Set(messagesPath(msg.MatchID), msg.ID, &stored)
		return nil
	})
}

func (r *memoryMessageRepository) ListBefore(ctx context.Context, matchID, beforeID string, limit int) ([]*entity.Message, error) {
	messages := r.sorted(matchID)

	if beforeID != "" {
		idx := -1
		for i, m := range messages {
			if m.ID == beforeID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, errors.NotFound("Message", nil)
		}
		messages = messages[:idx]
	}

	return newestPage(messages, limit), nil
}

func (r *memoryMessageRepository) Subscribe(ctx context.Context, matchID string, limit int, fn func([]*entity.Message)) (repository.Subscription, error) {
	return r.store.Watch(ctx, messagesPath(matchID), "", func() {
		fn(newestPage(r.sorted(matchID), limit))
	}), nil
}

func (r *memoryMessageRepository) sorted(matchID string) []*entity.Message {
	docs := r.store.List(messagesPath(matchID))
	messages := make([]*entity.Message, 0, len(docs))
	for _, doc := range docs {
		m := *doc.Value.(*entity.Message)
		messages = append(messages, &m)
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].Before(messages[j]) })
	return messages
}

// newestPage keeps the last limit entries of an ascending slice.
func newestPage(messages []*entity.Message, limit int) []*entity.Message {
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages
}
