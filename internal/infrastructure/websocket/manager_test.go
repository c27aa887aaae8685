package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/pkg/errors"
)

type fakeSub struct {
	active *atomic.Int32
	once   sync.Once
}

func (s *fakeSub) Stop() {
	s.once.Do(func() { s.active.Add(-1) })
}

// fakeWatchers serves any match except "private" and delivers one snapshot
// per subscription.
type fakeWatchers struct {
	active atomic.Int32
}

func (w *fakeWatchers) sub() repository.Subscription {
	w.active.Add(1)
	return &fakeSub{active: &w.active}
}

func (w *fakeWatchers) WatchMatch(ctx context.Context, uid, matchID string, fn func(*entity.Match)) (repository.Subscription, error) {
	if matchID == "private" {
		return nil, errors.Forbidden("You are not part of this match", nil)
	}
	fn(&entity.Match{ID: matchID, Participants: []string{uid, "peer"}})
	return w.sub(), nil
}

func (w *fakeWatchers) WatchMessages(ctx context.Context, uid, matchID string, fn func([]*entity.Message)) (repository.Subscription, error) {
	fn([]*entity.Message{{ID: "1", MatchID: matchID, From: "peer", Text: "hi"}})
	return w.sub(), nil
}

func (w *fakeWatchers) Watch(ctx context.Context, uid string, fn func(*entity.QueueEntry)) (repository.Subscription, error) {
	fn(&entity.QueueEntry{UserID: uid, Status: entity.QueueStatusWaiting})
	return w.sub(), nil
}

type received struct {
	Type    string          `json:"type"`
	MatchID string          `json:"match_id"`
	Data    json.RawMessage `json:"data"`
	Error   *EventError     `json:"error"`
}

func newTestServer(t *testing.T) (*Manager, *fakeWatchers, string) {
	t.Helper()

	watchers := &fakeWatchers{}
	manager := NewManager(watchers, watchers)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		manager.Serve(r.Context(), "alice", conn)
	}))
	t.Cleanup(func() {
		manager.Shutdown()
		srv.Close()
	})

	return manager, watchers, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendMsg(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

// readUntil returns the first event of type want, skipping others.
func readUntil(t *testing.T, conn *websocket.Conn, want string) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev received
		require.NoError(t, json.Unmarshal(raw, &ev))
		if ev.Type == want {
			return ev
		}
	}
}

func TestPing(t *testing.T) {
	_, _, url := newTestServer(t)
	conn := dial(t, url)

	sendMsg(t, conn, `{"type":"ping"}`)
	ev := readUntil(t, conn, EventPong)
	assert.Equal(t, EventPong, ev.Type)
}

func TestWatchMatchStreamsAndReleases(t *testing.T) {
	_, watchers, url := newTestServer(t)
	conn := dial(t, url)

	sendMsg(t, conn, `{"type":"watch_match","match_id":"m1"}`)
	ev := readUntil(t, conn, EventMatch)
	assert.Equal(t, "m1", ev.MatchID)
	ev = readUntil(t, conn, EventMessages)
	assert.Contains(t, string(ev.Data), `"text":"hi"`)
	readUntil(t, conn, EventWatching)
	assert.Equal(t, int32(2), watchers.active.Load())

	sendMsg(t, conn, `{"type":"watch_match","match_id":"m1"}`)
	sendMsg(t, conn, `{"type":"unwatch_match","match_id":"m1"}`)
	ev = readUntil(t, conn, EventReleased)
	assert.Equal(t, "m1", ev.MatchID)
	assert.Equal(t, int32(0), watchers.active.Load(), "a repeated watch does not subscribe twice")
}

func TestWatchErrors(t *testing.T) {
	_, watchers, url := newTestServer(t)
	conn := dial(t, url)

	tests := []struct {
		msg  string
		code string
	}{
		{`{"type":"watch_match","match_id":"private"}`, errors.CodeForbidden},
		{`{"type":"watch_match"}`, errors.CodeValidation},
		{`{"type":"dance"}`, errors.CodeValidation},
		{`not json`, errors.CodeValidation},
	}
	for _, tt := range tests {
		sendMsg(t, conn, tt.msg)
		ev := readUntil(t, conn, EventError)
		require.NotNil(t, ev.Error, tt.msg)
		assert.Equal(t, tt.code, ev.Error.Code, tt.msg)
	}
	assert.Equal(t, int32(0), watchers.active.Load())
}

func TestDisconnectReleasesSubscriptions(t *testing.T) {
	manager, watchers, url := newTestServer(t)
	conn := dial(t, url)

	sendMsg(t, conn, `{"type":"watch_queue"}`)
	ev := readUntil(t, conn, EventQueue)
	assert.Contains(t, string(ev.Data), `"status":"waiting"`)
	sendMsg(t, conn, `{"type":"watch_match","match_id":"m1"}`)
	readUntil(t, conn, EventWatching)

	assert.Eventually(t, func() bool { return watchers.active.Load() == 3 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, manager.Connections())

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return watchers.active.Load() == 0 && manager.Connections() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestShutdownClosesClients(t *testing.T) {
	manager, watchers, url := newTestServer(t)
	conn := dial(t, url)

	sendMsg(t, conn, `{"type":"watch_queue"}`)
	readUntil(t, conn, EventWatching)

	manager.Shutdown()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.Eventually(t, func() bool {
		return watchers.active.Load() == 0 && manager.Connections() == 0
	}, 2*time.Second, 10*time.Millisecond)

	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		defer late.Close()
		require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err = late.ReadMessage()
		assert.Error(t, err, "connections after shutdown are closed at once")
	}
}
