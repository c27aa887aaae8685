package entity

import (
	"sort"
	"strings"
	"time"
)

// Match is a confirmed pairing stored under matches/{MatchID(a, b)}.
type Match struct {
	ID              string               `json:"id" firestore:"id"`
	Participants    []string             `json:"participants" firestore:"participants"`
	SharedInterests []string             `json:"shared_interests" firestore:"sharedInterests"`
	CreatedAt       time.Time            `json:"created_at" firestore:"createdAt"`
	LastMessageAt   time.Time            `json:"last_message_at" firestore:"lastMessageAt"`
	LastMessageText string               `json:"last_message_text,omitempty" firestore:"lastMessageText,omitempty"`
	LastSeen        map[string]time.Time `json:"last_seen" firestore:"lastSeen"`
	Unlocked        map[string]bool      `json:"unlocked" firestore:"unlocked"`
}

// MatchID derives the match document id from two participant ids. It does
// not depend on argument order, so concurrent attempts from either side
// address the same document.
func MatchID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

// NewMatch builds the match record written when uidA and uidB are paired.
func NewMatch(uidA, uidB string, shared []string, now time.Time) *Match {
	participants := []string{uidA, uidB}
	sort.Strings(participants)
	return &Match{
		ID:              MatchID(uidA, uidB),
		Participants:    participants,
		SharedInterests: append([]string(nil), shared...),
		CreatedAt:       now,
		LastMessageAt:   now,
		LastSeen:        map[string]time.Time{},
		Unlocked:        map[string]bool{uidA: false, uidB: false},
	}
}

func (m *Match) HasParticipant(uid string) bool {
	for _, p := range m.Participants {
		if p == uid {
			return true
		}
	}
	return false
}

// Peer returns the other participant, or "" when uid is not part of the match.
func (m *Match) Peer(uid string) string {
	if !m.HasParticipant(uid) {
		return ""
	}
	for _, p := range m.Participants {
		if p != uid {
			return p
		}
	}
	return ""
}

// HasUnread reports whether a message arrived after uid last opened the match.
func (m *Match) HasUnread(uid string) bool {
	if m.LastMessageText == "" {
		return false
	}
	seen, ok := m.LastSeen[uid]
	return !ok || m.LastMessageAt.After(seen)
}

// PreviewText cuts the message text stored on the match for conversation lists.
func PreviewText(text string) string {
	const maxPreview = 200
	r := []rune(strings.TrimSpace(text))
	if len(r) > maxPreview {
		r = r[:maxPreview]
	}
	return string(r)
}

func (m *Match) Clone() *Match {
	c := *m
	c.Participants = append([]string(nil), m.Participants...)
	c.SharedInterests = append([]string(nil), m.SharedInterests...)
	c.LastSeen = make(map[string]time.Time, len(m.LastSeen))
	for k, v := range m.LastSeen {
		c.LastSeen[k] = v
	}
	c.Unlocked = make(map[string]bool, len(m.Unlocked))
	for k, v := range m.Unlocked {
		c.Unlocked[k] = v
	}
	return &c
}
