package entity

import "time"

// MaxMessageLength is the longest message text accepted, in characters.
const MaxMessageLength = 1000

// Message lives in matches/{matchId}/messages and is never mutated after creation.
type Message struct {
	ID        string    `json:"id" firestore:"id"`
	MatchID   string    `json:"match_id" firestore:"-"`
	From      string    `json:"from" firestore:"from"`
	Text      string    `json:"text" firestore:"text"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// Before reports whether m sorts strictly before o in chronological order.
// Equal timestamps fall back to the id so the order is total.
func (m *Message) Before(o *Message) bool {
	if !m.CreatedAt.Equal(o.CreatedAt) {
		return m.CreatedAt.Before(o.CreatedAt)
	}
	return m.ID < o.ID
}
