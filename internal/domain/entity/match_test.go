package entity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMatchIDIsSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"alice", "bob"},
		{"uid-9", "uid-10"},
		{"Z", "a"},
	}
	for _, p := range pairs {
		assert.Equal(t, MatchID(p[0], p[1]), MatchID(p[1], p[0]))
	}
	assert.Equal(t, "alice_bob", MatchID("bob", "alice"))
}

func TestNewMatch(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewMatch("bob", "alice", []string{"hiking"}, now)

	assert.Equal(t, "alice_bob", m.ID)
	assert.Equal(t, []string{"alice", "bob"}, m.Participants)
	assert.Equal(t, []string{"hiking"}, m.SharedInterests)
	assert.Equal(t, now, m.CreatedAt)
	assert.Equal(t, now, m.LastMessageAt)
	assert.Empty(t, m.LastSeen)
	assert.Equal(t, map[string]bool{"alice": false, "bob": false}, m.Unlocked)
}

func TestMatchPeer(t *testing.T) {
	m := NewMatch("alice", "bob", []string{"x"}, time.Now())

	assert.Equal(t, "bob", m.Peer("alice"))
	assert.Equal(t, "alice", m.Peer("bob"))
	assert.Equal(t, "", m.Peer("carol"))
	assert.False(t, m.HasParticipant("carol"))
}

func TestMatchHasUnread(t *testing.T) {
	now := time.Now()
	m := NewMatch("alice", "bob", []string{"x"}, now)
	assert.False(t, m.HasUnread("alice"), "no messages yet")

	m.LastMessageText = "hi"
	m.LastMessageAt = now.Add(time.Minute)
	assert.True(t, m.HasUnread("alice"))

	m.LastSeen["alice"] = now.Add(2 * time.Minute)
	assert.False(t, m.HasUnread("alice"))
	assert.True(t, m.HasUnread("bob"))
}

func TestMatchCloneIsDeep(t *testing.T) {
	m := NewMatch("alice", "bob", []string{"x"}, time.Now())
	c := m.Clone()
	c.Unlocked["alice"] = true
	c.LastSeen["bob"] = time.Now()
	c.Participants[0] = "mallory"

	assert.False(t, m.Unlocked["alice"])
	assert.Empty(t, m.LastSeen)
	assert.Equal(t, "alice", m.Participants[0])
}

func TestPreviewText(t *testing.T) {
	assert.Equal(t, "hello", PreviewText("  hello \n"))
	long := strings.Repeat("é", 250)
	assert.Equal(t, 200, len([]rune(PreviewText(long))))
}
