package repository

import (
	"context"

	"matchmate/internal/domain/entity"
)

type MessageRepository interface {
	// Append stores msg under its match with a server-assigned timestamp
	// and fills in ID and CreatedAt.
	Append(ctx context.Context, msg *entity.Message) error

	// ListBefore returns up to limit messages older than the message with id
	// beforeID, or the newest messages when beforeID is empty. The page is in
	// ascending chronological order.
	ListBefore(ctx context.Context, matchID, beforeID string, limit int) ([]*entity.Message, error)

	// Subscribe delivers the newest limit messages, ascending, on every change.
	Subscribe(ctx context.Context, matchID string, limit int, fn func([]*entity.Message)) (Subscription, error)
}
