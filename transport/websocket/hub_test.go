package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/mcp-training/twenty48/game/engine"
	"github.com/wricardo/mcp-training/twenty48/game/service"
)

// fakeHandler records commands and answers with a fixed state.
type fakeHandler struct {
	mu     sync.Mutex
	moves  []string
	resets int
	state  *engine.GameState
}

func (f *fakeHandler) Move(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.moves = append(f.moves, direction)
	f.mu.Unlock()
	return &service.MoveResult{
		Moved:     true,
		Direction: dir,
		GameState: f.state,
		Events:    []service.GameEvent{{Type: service.EventMove, Message: "moved " + direction}},
	}, nil
}

func (f *fakeHandler) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	f.mu.Lock()
	f.resets++
	f.mu.Unlock()
	return f.state, nil
}

func testState(score int) *engine.GameState {
	return &engine.GameState{
		Grid:  engine.Grid{{2, 4, 0, 0}, {0, 0, 0, 0}, {0, 0, 8, 0}, {0, 0, 0, 2}},
		Score: score,
	}
}

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func startServer(t *testing.T, hub *Hub) (wsURL string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	return message
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)

	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if cap(hub.broadcast) != engine.WebSocketBufferSize {
		t.Errorf("Expected broadcast buffer %d, got %d", engine.WebSocketBufferSize, cap(hub.broadcast))
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)

	if !hub.sessions["test-session"][client] {
		t.Error("Client was not registered in session")
	}
	if got := hub.ClientCount("test-session"); got != 1 {
		t.Errorf("Expected 1 client in session, got %d", got)
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Error("send channel should be closed")
	}

	// A second unregister must not panic on the closed channel.
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := NewHub(nil)
	sessionID := "multi"

	client1 := newTestClient(hub, sessionID)
	client2 := newTestClient(hub, sessionID)
	other := newTestClient(hub, "other")

	hub.registerClient(client1)
	hub.registerClient(client2)
	hub.registerClient(other)

	if got := hub.ClientCount(sessionID); got != 2 {
		t.Errorf("Expected 2 clients in session, got %d", got)
	}

	hub.unregisterClient(client1)

	if got := hub.ClientCount(sessionID); got != 1 {
		t.Errorf("Expected 1 client remaining in session, got %d", got)
	}
	if !hub.sessions[sessionID][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubBroadcastToSession(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub, "broadcast-test")
	bystander := newTestClient(hub, "elsewhere")
	hub.registerClient(client)
	hub.registerClient(bystander)

	hub.BroadcastToSession("broadcast-test", testState(100))
	hub.broadcastMessage(<-hub.broadcast)

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.SessionID != "broadcast-test" {
			t.Errorf("Expected sessionID broadcast-test, got %s", message.SessionID)
		}
		if message.Event != EventStateUpdate {
			t.Errorf("Expected event %q, got %s", EventStateUpdate, message.Event)
		}
		if message.GameState.Grid != testState(100).Grid || message.GameState.Score != 100 {
			t.Error("GameState not correctly transmitted")
		}
	default:
		t.Fatal("No message delivered to session client")
	}

	select {
	case <-bystander.send:
		t.Error("Client of another session received the broadcast")
	default:
	}
}

func TestHubBroadcastIgnoresSessionIDCase(t *testing.T) {
	hub := NewHub(nil)
	url := startServer(t, hub)

	conn := dial(t, url+"?session=Mixed-Case")
	waitFor(t, func() bool { return hub.ClientCount("mixed-case") == 1 }, "registration")
	if got := hub.ClientCount("MIXED-CASE"); got != 1 {
		t.Errorf("Expected ClientCount to fold case, got %d", got)
	}

	hub.BroadcastToSession("MIXED-case", testState(64))

	message := readMessage(t, conn)
	if message.SessionID != "mixed-case" {
		t.Errorf("Expected sessionID mixed-case, got %s", message.SessionID)
	}
	if message.GameState == nil || message.GameState.Score != 64 {
		t.Errorf("Unexpected state %+v", message.GameState)
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub(nil)

	hub.BroadcastEvent("event-test", "custom-event", "test-data")

	select {
	case message := <-hub.broadcast:
		if message.SessionID != "event-test" || message.Event != "custom-event" || message.Data != "test-data" {
			t.Errorf("Unexpected broadcast message %+v", message)
		}
	default:
		t.Fatal("No broadcast message queued")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(nil)
	slow := &Client{hub: hub, sessionID: "slow", send: make(chan []byte, 1)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "slow", Event: "one"})
	hub.broadcastMessage(&Message{SessionID: "slow", Event: "two"})

	if got := hub.ClientCount("slow"); got != 0 {
		t.Errorf("Expected slow client to be dropped, %d remain", got)
	}
}

func TestWebSocketUpgrade(t *testing.T) {
	hub := NewHub(nil)
	url := startServer(t, hub)

	conn := dial(t, url+"?session=ws-test")
	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 1 }, "registration")

	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 0 }, "unregistration")
}

func TestWebSocketMessageReceive(t *testing.T) {
	hub := NewHub(nil)
	url := startServer(t, hub)

	conn := dial(t, url+"?session=msg-test")
	waitFor(t, func() bool { return hub.ClientCount("msg-test") == 1 }, "registration")

	hub.BroadcastToSession("msg-test", testState(200))

	message := readMessage(t, conn)
	if message.SessionID != "msg-test" {
		t.Errorf("Expected sessionID msg-test, got %s", message.SessionID)
	}
	if message.GameState.Score != 200 || message.GameState.Grid[2][2] != 8 {
		t.Errorf("GameState not correctly received: %+v", message.GameState)
	}
}

func TestWebSocketCommands(t *testing.T) {
	handler := &fakeHandler{state: testState(32)}
	hub := NewHub(handler)
	url := startServer(t, hub)

	player := dial(t, url+"?session=cmd")
	watcher := dial(t, url+"?session=cmd")
	waitFor(t, func() bool { return hub.ClientCount("cmd") == 2 }, "registration")

	tests := []struct {
		name      string
		frame     string
		wantEvent string
		broadcast bool
	}{
		{"move", `{"action":"move","direction":"left"}`, EventStateUpdate, true},
		{"reset", `{"action":"reset"}`, EventStateUpdate, true},
		{"invalid direction", `{"action":"move","direction":"sideways"}`, EventError, false},
		{"unknown action", `{"action":"undo"}`, EventError, false},
		{"malformed", `{"action":`, EventError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := player.WriteMessage(websocket.TextMessage, []byte(tt.frame)); err != nil {
				t.Fatalf("write: %v", err)
			}

			message := readMessage(t, player)
			if message.Event != tt.wantEvent {
				t.Fatalf("Expected event %q, got %q (%v)", tt.wantEvent, message.Event, message.Data)
			}

			if tt.broadcast {
				seen := readMessage(t, watcher)
				if seen.GameState == nil || seen.GameState.Score != 32 {
					t.Errorf("Watcher did not receive the new state: %+v", seen)
				}
			}
		})
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if fmt.Sprint(handler.moves) != "[left]" || handler.resets != 1 {
		t.Errorf("Unexpected handler calls: moves=%v resets=%d", handler.moves, handler.resets)
	}
}

func TestWebSocketCommandsWithoutHandler(t *testing.T) {
	hub := NewHub(nil)
	url := startServer(t, hub)

	conn := dial(t, url+"?session=ro")
	waitFor(t, func() bool { return hub.ClientCount("ro") == 1 }, "registration")

	conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"reset"}`))
	if message := readMessage(t, conn); message.Event != EventError {
		t.Errorf("Expected error event, got %q", message.Event)
	}
}

func TestHubRunClosesClientsOnShutdown(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := newTestClient(hub, "shutdown")
	hub.registerClient(client)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if _, ok := <-client.send; ok {
		t.Error("client send channel should be closed on shutdown")
	}
}
