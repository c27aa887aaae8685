package websocket

import (
	"encoding/json"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/pkg/errors"
	"matchmate/pkg/logger"
)

// Client message types.
const (
	MessageTypePing         = "ping"
	MessageTypeWatchMatch   = "watch_match"
	MessageTypeUnwatchMatch = "unwatch_match"
	MessageTypeWatchQueue   = "watch_queue"
	MessageTypeUnwatchQueue = "unwatch_queue"
)

// Server event types.
const (
	EventPong     = "pong"
	EventMatch    = "match"
	EventMessages = "messages"
	EventQueue    = "queue"
	EventError    = "error"
	EventWatching = "watching"
	EventReleased = "released"
)

type ClientMessage struct {
	Type    string `json:"type"`
	MatchID string `json:"match_id,omitempty"`
}

type Event struct {
	Type      string      `json:"type"`
	MatchID   string      `json:"match_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *EventError `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type EventError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const queueKey = "queue"

func matchKey(id string) string {
	return "match:" + id
}

// HandleClientMessage dispatches one message read from client.
func (m *Manager) HandleClientMessage(client *Client, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		client.sendError("", errors.Validation("Invalid message format"))
		return
	}

	logger.Debug("WebSocket message %q from %s", msg.Type, client.UserID)

	switch msg.Type {
	case MessageTypePing:
		client.send(Event{Type: EventPong})
	case MessageTypeWatchMatch:
		m.watchMatch(client, msg.MatchID)
	case MessageTypeUnwatchMatch:
		if msg.MatchID == "" {
			client.sendError("", errors.Validation("match_id is required"))
			return
		}
		if client.drop(matchKey(msg.MatchID)) {
			client.send(Event{Type: EventReleased, MatchID: msg.MatchID})
		}
	case MessageTypeWatchQueue:
		m.watchQueue(client)
	case MessageTypeUnwatchQueue:
		if client.drop(queueKey) {
			client.send(Event{Type: EventReleased, Data: queueKey})
		}
	default:
		client.sendError("", errors.Validation("Unknown message type: "+msg.Type))
	}
}

func (m *Manager) watchMatch(client *Client, matchID string) {
	if matchID == "" {
		client.sendError("", errors.Validation("match_id is required"))
		return
	}
	key := matchKey(matchID)
	if client.holds(key) {
		return
	}

	matchSub, err := m.matches.WatchMatch(client.ctx, client.UserID, matchID, func(match *entity.Match) {
		client.send(Event{Type: EventMatch, MatchID: matchID, Data: match})
	})
	if err != nil {
		client.sendError(matchID, err)
		return
	}

	messagesSub, err := m.matches.WatchMessages(client.ctx, client.UserID, matchID, func(messages []*entity.Message) {
		client.send(Event{Type: EventMessages, MatchID: matchID, Data: messages})
	})
	if err != nil {
		matchSub.Stop()
		client.sendError(matchID, err)
		return
	}

	if !client.hold(key, matchSub, messagesSub) {
		stopAll(matchSub, messagesSub)
		return
	}
	client.send(Event{Type: EventWatching, MatchID: matchID})
}

func (m *Manager) watchQueue(client *Client) {
	if client.holds(queueKey) {
		return
	}

	sub, err := m.queue.Watch(client.ctx, client.UserID, func(entry *entity.QueueEntry) {
		client.send(Event{Type: EventQueue, Data: entry})
	})
	if err != nil {
		client.sendError("", err)
		return
	}

	if !client.hold(queueKey, sub) {
		sub.Stop()
		return
	}
	client.send(Event{Type: EventWatching, Data: queueKey})
}

func (c *Client) sendError(matchID string, err error) {
	info := &EventError{Code: errors.CodeInternal, Message: "Request failed"}
	if appErr, ok := errors.As(err); ok {
		info.Code = appErr.Code
		info.Message = appErr.Message
	} else {
		logger.Error("WebSocket request from %s failed: %v", c.UserID, err)
	}
	c.send(Event{Type: EventError, MatchID: matchID, Error: info})
}

func stopAll(subs ...repository.Subscription) {
	for _, s := range subs {
		s.Stop()
	}
}
