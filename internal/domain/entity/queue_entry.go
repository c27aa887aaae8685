package entity

import "time"

type QueueStatus string

const (
	QueueStatusWaiting QueueStatus = "waiting"
	QueueStatusMatched QueueStatus = "matched"
)

// QueueEntry advertises a user's availability for matching. Stored under
// match_queue/{uid}, one per user. Timestamp moves on every write and orders
// the queue; StatusAt only moves when Status does.
type QueueEntry struct {
	UserID    string      `json:"user_id" firestore:"-"`
	Status    QueueStatus `json:"status" firestore:"status"`
	Interests []string    `json:"interests" firestore:"interests"`
	Timestamp time.Time   `json:"ts" firestore:"ts"`
	StatusAt  time.Time   `json:"status_at" firestore:"statusAt"`
}

func (q *QueueEntry) IsWaiting() bool {
	return q != nil && q.Status == QueueStatusWaiting
}

// StatusSince is when the entry entered its current status. Entries written
// before StatusAt existed fall back to Timestamp.
func (q *QueueEntry) StatusSince() time.Time {
	if q.StatusAt.IsZero() {
		return q.Timestamp
	}
	return q.StatusAt
}

func (q *QueueEntry) Clone() *QueueEntry {
	c := *q
	c.Interests = append([]string(nil), q.Interests...)
	return &c
}
