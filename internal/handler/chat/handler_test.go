package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	chatmodel "github.com/linguabridge/backend/internal/model/chat"
	chatservice "github.com/linguabridge/backend/internal/service/chat"
)

type stubConn struct {
	mu     sync.Mutex
	writes []string
	closed chan struct{}
	once   sync.Once
}

func newStubConn() *stubConn {
	return &stubConn{closed: make(chan struct{})}
}

func (c *stubConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("connection closed")
}

func (c *stubConn) WriteJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, string(data))
	return nil
}

func (c *stubConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *stubConn) writeLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.writes...)
}

func setupRouter(conns ...*stubConn) (*chi.Mux, *chatservice.Client) {
	var mu sync.Mutex
	next := 0
	dial := func(_ context.Context, _ string) (chatservice.Conn, error) {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(conns) {
			return nil, errors.New("no scripted connection")
		}
		conn := conns[next]
		next++
		return conn, nil
	}

	client := chatservice.NewClient(chatservice.Options{
		URL:       "ws://example.invalid/ws/chat/global",
		Dial:      dial,
		Store:     chatservice.NewStore(),
		SessionID: "abc12345",
	})

	r := chi.NewRouter()
	New(client).RegisterRoutes(r)
	return r, client
}

func waitForState(t *testing.T, client *chatservice.Client, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if client.State() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("client never reached %s, state=%s", want, client.State())
}

func TestSessionEndpoint(t *testing.T) {
	r, client := setupRouter()
	defer client.Close()

	req := httptest.NewRequest(http.MethodGet, "/chat/session", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var payload struct {
		SessionID string   `json:"sessionId"`
		State     string   `json:"state"`
		Languages []string `json:"languages"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if payload.SessionID != "abc12345" {
		t.Fatalf("unexpected session id: %s", payload.SessionID)
	}
	if payload.State != "Disconnected" {
		t.Fatalf("expected Disconnected, got %s", payload.State)
	}
	if len(payload.Languages) == 0 {
		t.Fatal("expected supported languages in session payload")
	}
}

func TestMessagesReturnsWelcome(t *testing.T) {
	r, client := setupRouter()
	defer client.Close()

	req := httptest.NewRequest(http.MethodGet, "/chat/messages", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var records []map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected welcome record, got %d", len(records))
	}
	if records[0]["senderId"] != "System" {
		t.Fatalf("unexpected sender: %v", records[0]["senderId"])
	}
}

func TestChangeLanguageReconnects(t *testing.T) {
	conn := newStubConn()
	r, client := setupRouter(conn)
	defer client.Close()

	body := bytes.NewReader([]byte(`{"language":"Hindi"}`))
	req := httptest.NewRequest(http.MethodPut, "/chat/language", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var payload map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if payload["language"] != "hin_Deva" {
		t.Fatalf("expected hin_Deva, got %s", payload["language"])
	}

	waitForState(t, client, "Ready")
	writes := conn.writeLog()
	if len(writes) != 1 || writes[0] != `{"user_id":"abc12345","tgt_lang":"hin_Deva"}` {
		t.Fatalf("unexpected negotiation: %v", writes)
	}
}

func TestChangeLanguageUnknownFallsBack(t *testing.T) {
	conn := newStubConn()
	r, client := setupRouter(conn)
	defer client.Close()

	body := bytes.NewReader([]byte(`{"language":"Klingon"}`))
	req := httptest.NewRequest(http.MethodPut, "/chat/language", body)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var payload map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if payload["language"] != "eng_Latn" {
		t.Fatalf("expected fallback eng_Latn, got %s", payload["language"])
	}
}

func TestChangeLanguageRequiresBody(t *testing.T) {
	r, client := setupRouter()
	defer client.Close()

	req := httptest.NewRequest(http.MethodPut, "/chat/language", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSendWhileReadyTransmits(t *testing.T) {
	conn := newStubConn()
	r, client := setupRouter(conn)
	defer client.Close()

	client.Open(context.Background(), "eng_Latn")
	waitForState(t, client, "Ready")

	req := httptest.NewRequest(http.MethodPost, "/chat/messages", strings.NewReader(`{"text":"Bonjour"}`))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
	writes := conn.writeLog()
	if len(writes) != 2 || writes[1] != `{"text":"Bonjour"}` {
		t.Fatalf("unexpected writes: %v", writes)
	}
	if client.Store().Len() != 1 {
		t.Fatal("send must not mutate the store")
	}
}

func TestSendBeforeReadyIsSilentlyIgnored(t *testing.T) {
	r, client := setupRouter()
	defer client.Close()

	req := httptest.NewRequest(http.MethodPost, "/chat/messages", strings.NewReader(`{"text":"hello"}`))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 even when not ready, got %d", resp.Code)
	}
	if client.Store().Len() != 1 {
		t.Fatal("store must stay unchanged")
	}
}

func TestStreamSendsSnapshot(t *testing.T) {
	r, client := setupRouter()
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/chat/stream", nil).WithContext(ctx)
	resp := httptest.NewRecorder()

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	r.ServeHTTP(resp, req)

	if got := resp.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("expected event-stream content type, got %s", got)
	}
	if !strings.Contains(resp.Body.String(), chatservice.WelcomeText) {
		t.Fatalf("expected welcome record in stream, got %q", resp.Body.String())
	}
}

func TestStreamForwardsDuplicateIDsAfterOverlap(t *testing.T) {
	r, client := setupRouter()
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/chat/stream", nil).WithContext(ctx)
	resp := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ServeHTTP(resp, req)
	}()

	// Let the snapshot replay finish, then append a fresh record followed
	// by one re-using the welcome record's ID. Only the overlap window may
	// dedupe; the later duplicate must still reach the stream.
	time.Sleep(30 * time.Millisecond)
	store := client.Store()
	store.Append(chatmodel.Message{ID: "m1", DisplayText: "fresh", SenderID: "u1", Timestamp: time.Now()})
	store.Append(chatmodel.Message{ID: "system-1", DisplayText: "repeat", SenderID: "u1", Timestamp: time.Now()})

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := resp.Body.String()
	if !strings.Contains(body, `"displayText":"fresh"`) {
		t.Fatalf("fresh record missing from stream: %q", body)
	}
	if !strings.Contains(body, `"displayText":"repeat"`) {
		t.Fatalf("duplicate-id record after the overlap window was skipped: %q", body)
	}
}
