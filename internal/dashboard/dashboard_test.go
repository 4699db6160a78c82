package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/boudmaker/oclock/internal/schema"
	"github.com/boudmaker/oclock/internal/tracker"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func startTestServer(t *testing.T) *Server {
	t.Helper()
	server := NewServer(&Config{Port: 0, Logger: testLogger()})
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { server.Stop() })
	time.Sleep(100 * time.Millisecond)
	return server
}

func dialAndWelcome(t *testing.T, ctx context.Context, server *Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws://" + server.GetAddr() + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read welcome message: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal welcome: %v", err)
	}
	if msg.Type != MessageTypeStats {
		t.Fatalf("Expected welcome type %s, got %s", MessageTypeStats, msg.Type)
	}
	return conn
}

func TestServerStartStop(t *testing.T) {
	server := NewServer(&Config{Port: 0, Logger: testLogger()})
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if server.GetAddr() == "" {
		t.Fatal("Server address is empty")
	}
	if err := server.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}
}

func TestWebSocketConnection(t *testing.T) {
	server := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dialAndWelcome(t, ctx, server)

	if count := server.ClientCount(); count != 1 {
		t.Errorf("Expected 1 client, got %d", count)
	}
}

func TestMultipleClients(t *testing.T) {
	server := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	numClients := 3
	for i := 0; i < numClients; i++ {
		dialAndWelcome(t, ctx, server)
	}
	if count := server.ClientCount(); count != numClients {
		t.Errorf("Expected %d clients, got %d", numClients, count)
	}
}

func TestMessageBroadcast(t *testing.T) {
	server := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialAndWelcome(t, ctx, server)

	testData := SessionUpdateData{
		SessionID: "s-1",
		Action:    "finalized",
		TaskName:  "Untitled Task",
		Duration:  3_600_000,
		Earnings:  25,
	}
	dataJSON, _ := json.Marshal(testData)
	server.Broadcast(Message{
		Type:      MessageTypeSessionUpdate,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read broadcast message: %v", err)
	}
	var received Message
	if err := json.Unmarshal(data, &received); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if received.Type != MessageTypeSessionUpdate {
		t.Errorf("Expected message type %s, got %s", MessageTypeSessionUpdate, received.Type)
	}

	var receivedData SessionUpdateData
	if err := json.Unmarshal(received.Data, &receivedData); err != nil {
		t.Fatalf("Failed to unmarshal session data: %v", err)
	}
	if receivedData.SessionID != testData.SessionID || receivedData.Earnings != testData.Earnings {
		t.Errorf("Session data mismatch: got %+v", receivedData)
	}
}

func TestHandlerTodoEvents(t *testing.T) {
	server := startTestServer(t)
	handler := NewHandler(server, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialAndWelcome(t, ctx, server)

	item := &schema.TodoItem{
		ID:        schema.NewID(),
		Text:      "prepare invoice",
		CreatedAt: time.Now(),
	}
	handler.OnTodoChanged("added", item)

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read todo update: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeTodoUpdate {
		t.Errorf("Expected message type %s, got %s", MessageTypeTodoUpdate, msg.Type)
	}

	var todoData TodoUpdateData
	if err := json.Unmarshal(msg.Data, &todoData); err != nil {
		t.Fatalf("Failed to unmarshal todo data: %v", err)
	}
	if todoData.TodoID != item.ID || todoData.Text != item.Text || todoData.Action != "added" {
		t.Errorf("Todo data mismatch: got %+v", todoData)
	}
}

func TestHandlerTimerTick(t *testing.T) {
	server := startTestServer(t)
	handler := NewHandler(server, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialAndWelcome(t, ctx, server)

	handler.OnTimerTick(tracker.TimerSnapshot{
		Running:   true,
		Elapsed:   30 * time.Minute,
		SessionID: "s-1",
		Earnings:  12.5,
	})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read timer tick: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeTimerTick {
		t.Errorf("Expected message type %s, got %s", MessageTypeTimerTick, msg.Type)
	}

	var snap tracker.TimerSnapshot
	if err := json.Unmarshal(msg.Data, &snap); err != nil {
		t.Fatalf("Failed to unmarshal snapshot: %v", err)
	}
	if !snap.Running || snap.Earnings != 12.5 {
		t.Errorf("Snapshot mismatch: %+v", snap)
	}
}

func TestHandlerNotification(t *testing.T) {
	server := startTestServer(t)
	handler := NewHandler(server, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialAndWelcome(t, ctx, server)

	handler.OnNotification(tracker.Notification{
		Level:   tracker.LevelError,
		Message: "Failed to save todos",
	})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read notice: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeNotice {
		t.Errorf("Expected message type %s, got %s", MessageTypeNotice, msg.Type)
	}

	var notice NoticeData
	if err := json.Unmarshal(msg.Data, &notice); err != nil {
		t.Fatalf("Failed to unmarshal notice data: %v", err)
	}
	if notice.Level != "error" || notice.Message != "Failed to save todos" {
		t.Errorf("Notice mismatch: %+v", notice)
	}
}
