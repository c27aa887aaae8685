package usecase

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/internal/infrastructure/ratelimit"
	"matchmate/internal/infrastructure/telemetry"
	"matchmate/pkg/errors"
	"matchmate/pkg/logger"
	"matchmate/pkg/utils"
)

type ChatUseCase struct {
	matchRepo   repository.MatchRepository
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	rateLimiter *ratelimit.RateLimiter
	sanitizer   *bluemonday.Policy
	pageSize    int
	now         func() time.Time
}

func NewChatUseCase(
	matchRepo repository.MatchRepository,
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	rateLimiter *ratelimit.RateLimiter,
	pageSize int,
) *ChatUseCase {
	return &ChatUseCase{
		matchRepo:   matchRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		rateLimiter: rateLimiter,
		sanitizer:   bluemonday.StrictPolicy(),
		pageSize:    utils.ClampPageSize(pageSize, utils.DefaultPageSize),
		now:         time.Now,
	}
}

// PeerSummary is the other participant as shown in a conversation. Photos
// stay hidden until the peer unlocks the match.
type PeerSummary struct {
	ID        string   `json:"id"`
	Nickname  string   `json:"nickname"`
	Avatar    string   `json:"avatar,omitempty"`
	Age       int      `json:"age,omitempty"`
	Bio       string   `json:"bio,omitempty"`
	PhotoURLs []string `json:"photo_urls,omitempty"`
}

type Conversation struct {
	*entity.Match
	Peer     PeerSummary `json:"peer"`
	Unread   bool        `json:"unread"`
	Unlocked bool        `json:"unlocked_by_me"`
}

// SanitizeMessage strips markup and surrounding whitespace from chat text.
func (uc *ChatUseCase) SanitizeMessage(text string) string {
	return strings.TrimSpace(html.UnescapeString(uc.sanitizer.Sanitize(text)))
}

func (uc *ChatUseCase) SendMessage(ctx context.Context, uid, matchID, text string) (*entity.Message, error) {
	clean := uc.SanitizeMessage(text)
	if clean == "" {
		return nil, errors.Validation("message must not be empty")
	}
	if utf8.RuneCountInString(clean) > entity.MaxMessageLength {
		return nil, errors.Validation(fmt.Sprintf("message must be at most %d characters", entity.MaxMessageLength))
	}

	if allowed, wait := uc.rateLimiter.Allow(uid, ratelimit.ActionSendMessage); !allowed {
		return nil, errors.TooManyRequests(fmt.Sprintf("Rate limit exceeded. Try again in %v", wait.Round(time.Second)))
	}

	if _, err := uc.participantMatch(ctx, uid, matchID); err != nil {
		return nil, err
	}

	msg := &entity.Message{MatchID: matchID, From: uid, Text: clean}
	if err := uc.messageRepo.Append(ctx, msg); err != nil {
		return nil, err
	}
	telemetry.IncMessagesSent()

	if err := uc.matchRepo.UpdateLastMessage(ctx, matchID, clean, msg.CreatedAt); err != nil {
		logger.Warn("Failed to update last message of %s: %v", matchID, err)
	}
	return msg, nil
}

// ListMessages returns the newest page when before is empty, otherwise the
// page right before message before. Pages are ascending.
func (uc *ChatUseCase) ListMessages(ctx context.Context, uid, matchID, before string, limit int) ([]*entity.Message, error) {
	if _, err := uc.participantMatch(ctx, uid, matchID); err != nil {
		return nil, err
	}
	return uc.messageRepo.ListBefore(ctx, matchID, before, utils.ClampPageSize(limit, uc.pageSize))
}

func (uc *ChatUseCase) MarkSeen(ctx context.Context, uid, matchID string) error {
	m, err := uc.participantMatch(ctx, uid, matchID)
	if err != nil {
		return err
	}

	at := uc.now().UTC()
	if m.LastMessageAt.After(at) {
		at = m.LastMessageAt
	}
	return uc.matchRepo.MarkSeen(ctx, matchID, uid, at)
}

// Unlock lets the peer see uid's photos in this match.
func (uc *ChatUseCase) Unlock(ctx context.Context, uid, matchID string) (*Conversation, error) {
	if _, err := uc.participantMatch(ctx, uid, matchID); err != nil {
		return nil, err
	}
	if err := uc.matchRepo.Unlock(ctx, matchID, uid); err != nil {
		return nil, err
	}
	return uc.GetConversation(ctx, uid, matchID)
}

func (uc *ChatUseCase) GetConversation(ctx context.Context, uid, matchID string) (*Conversation, error) {
	m, err := uc.participantMatch(ctx, uid, matchID)
	if err != nil {
		return nil, err
	}

	peers, err := uc.userRepo.GetByIDs(ctx, []string{m.Peer(uid)})
	if err != nil {
		return nil, err
	}
	return buildConversation(uid, m, peers), nil
}

// ListConversations returns uid's matches, most recent activity first.
func (uc *ChatUseCase) ListConversations(ctx context.Context, uid string, limit int) ([]*Conversation, error) {
	matches, err := uc.matchRepo.ListByParticipant(ctx, uid, utils.ClampPageSize(limit, uc.pageSize))
	if err != nil {
		return nil, err
	}

	peerIDs := make([]string, 0, len(matches))
	for _, m := range matches {
		peerIDs = append(peerIDs, m.Peer(uid))
	}
	peers, err := uc.userRepo.GetByIDs(ctx, peerIDs)
	if err != nil {
		return nil, err
	}

	conversations := make([]*Conversation, 0, len(matches))
	for _, m := range matches {
		conversations = append(conversations, buildConversation(uid, m, peers))
	}
	return conversations, nil
}

func (uc *ChatUseCase) WatchMatch(ctx context.Context, uid, matchID string, fn func(*entity.Match)) (repository.Subscription, error) {
	if _, err := uc.participantMatch(ctx, uid, matchID); err != nil {
		return nil, err
	}
	return uc.matchRepo.Subscribe(ctx, matchID, fn)
}

func (uc *ChatUseCase) WatchMessages(ctx context.Context, uid, matchID string, fn func([]*entity.Message)) (repository.Subscription, error) {
	if _, err := uc.participantMatch(ctx, uid, matchID); err != nil {
		return nil, err
	}
	return uc.messageRepo.Subscribe(ctx, matchID, uc.pageSize, fn)
}

func (uc *ChatUseCase) participantMatch(ctx context.Context, uid, matchID string) (*entity.Match, error) {
	if matchID == "" {
		return nil, errors.Validation("match id is required")
	}
	m, err := uc.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.HasParticipant(uid) {
		return nil, errors.Forbidden("You are not a participant of this match", nil)
	}
	return m, nil
}

func buildConversation(uid string, m *entity.Match, peers map[string]*entity.User) *Conversation {
	peerID := m.Peer(uid)
	c := &Conversation{
		Match:    m,
		Peer:     PeerSummary{ID: peerID},
		Unread:   m.HasUnread(uid),
		Unlocked: m.Unlocked[uid],
	}
	if p, ok := peers[peerID]; ok {
		c.Peer.Nickname = p.Nickname
		c.Peer.Avatar = p.Avatar
		c.Peer.Age = p.Age
		c.Peer.Bio = p.Bio
		if m.Unlocked[peerID] {
			c.Peer.PhotoURLs = p.PhotoURLs
		}
	}
	return c
}
