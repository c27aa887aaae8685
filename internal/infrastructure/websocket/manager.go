// Package websocket streams live match, message and queue updates to
// connected clients.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/internal/infrastructure/telemetry"
	"matchmate/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// MatchWatcher checks participation before subscribing.
type MatchWatcher interface {
	WatchMatch(ctx context.Context, uid, matchID string, fn func(*entity.Match)) (repository.Subscription, error)
	WatchMessages(ctx context.Context, uid, matchID string, fn func([]*entity.Message)) (repository.Subscription, error)
}

type QueueWatcher interface {
	Watch(ctx context.Context, uid string, fn func(*entity.QueueEntry)) (repository.Subscription, error)
}

// Manager tracks open connections so they can all be closed on shutdown.
type Manager struct {
	matches MatchWatcher
	queue   QueueWatcher

	mu      sync.Mutex
	clients map[*Client]struct{}
	closed  bool
}

func NewManager(matches MatchWatcher, queue QueueWatcher) *Manager {
	return &Manager{
		matches: matches,
		queue:   queue,
		clients: make(map[*Client]struct{}),
	}
}

// Client is one websocket connection and the subscriptions it holds, keyed
// by "match:<id>" or "queue".
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	subs   map[string][]repository.Subscription
	closed bool
}

// Serve runs the connection until the peer goes away or Shutdown is called.
// Every subscription acquired on the connection is released before it returns.
func (m *Manager) Serve(ctx context.Context, uid string, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	client := &Client{
		UserID: uid,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[string][]repository.Subscription),
	}

	if !m.register(client) {
		cancel()
		conn.Close()
		return
	}
	telemetry.IncWSActive()
	logger.Info("WebSocket client connected: %s", uid)

	done := make(chan struct{})
	go func() {
		defer close(done)
		client.writePump()
	}()

	client.readPump(m)

	client.release()
	<-done
	m.unregister(client)
	telemetry.DecWSActive()
	logger.Info("WebSocket client disconnected: %s", uid)
}

// Shutdown disconnects every client.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	clients := make([]*Client, 0, len(m.clients))
	for c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.Unlock()

	for _, c := range clients {
		c.cancel()
		c.Conn.Close()
	}
}

// Connections returns the number of open connections.
func (m *Manager) Connections() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

func (m *Manager) register(c *Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.clients[c] = struct{}{}
	return true
}

func (m *Manager) unregister(c *Client) {
	m.mu.Lock()
	delete(m.clients, c)
	m.mu.Unlock()
}

func (c *Client) readPump(m *Manager) {
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket read from %s failed: %v", c.UserID, err)
			}
			return
		}
		m.HandleClientMessage(c, message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket write to %s failed: %v", c.UserID, err)
				c.cancel()
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.cancel()
				return
			}
		}
	}
}

// send queues an event. Events for a slow client are dropped rather than
// blocking the store listener that produced them.
func (c *Client) send(event Event) {
	event.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to encode %s event: %v", event.Type, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- payload:
		telemetry.IncWSEvent(event.Type)
	default:
		logger.Warn("Dropping %s event for slow client %s", event.Type, c.UserID)
	}
}

// hold records subscriptions under key. It reports false, leaving the caller
// to stop them, when key is already held or the client is closing.
func (c *Client) hold(key string, subs ...repository.Subscription) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if _, ok := c.subs[key]; ok {
		return false
	}
	c.subs[key] = subs
	return true
}

func (c *Client) holds(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subs[key]
	return ok
}

// drop stops the subscriptions under key. Stop runs without c.mu held since
// it waits for callbacks that call send.
func (c *Client) drop(key string) bool {
	c.mu.Lock()
	subs, ok := c.subs[key]
	delete(c.subs, key)
	c.mu.Unlock()

	for _, s := range subs {
		s.Stop()
	}
	return ok
}

func (c *Client) release() {
	c.cancel()

	c.mu.Lock()
	c.closed = true
	all := c.subs
	c.subs = make(map[string][]repository.Subscription)
	c.mu.Unlock()

	for _, subs := range all {
		for _, s := range subs {
			s.Stop()
		}
	}
}

// Subscriptions returns the number of live subscriptions held by the client.
func (c *Client) Subscriptions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, subs := range c.subs {
		n += len(subs)
	}
	return n
}
