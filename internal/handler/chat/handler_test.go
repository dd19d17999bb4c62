package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type fakeReplier struct {
	gotSessionID string
	gotText      string
	reply        string
	err          error
}

func (f *fakeReplier) Reply(_ context.Context, sessionID, userText string) (string, error) {
	f.gotSessionID = sessionID
	f.gotText = userText
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeJanitor struct {
	gotMaxAge time.Duration
	removed   int
}

func (f *fakeJanitor) Sweep(maxAge time.Duration) int {
	f.gotMaxAge = maxAge
	return f.removed
}

func setupRouter(replier Replier, janitor Janitor) *chi.Mux {
	r := chi.NewRouter()
	New(replier, janitor).RegisterRoutes(r)
	return r
}

func TestChatReusesSessionID(t *testing.T) {
	fake := &fakeReplier{reply: "The reception is on the Ground Floor, Main Building."}
	r := setupRouter(fake, &fakeJanitor{})

	body := `{"message":"Where is reception?","session_id":"abc-123"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var out struct {
		Response  string `json:"response"`
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.SessionID != "abc-123" {
		t.Fatalf("expected session preserved, got %s", out.SessionID)
	}
	if out.Response != fake.reply {
		t.Fatalf("unexpected reply: %s", out.Response)
	}
	if fake.gotText != "Where is reception?" {
		t.Fatalf("user text not forwarded: %s", fake.gotText)
	}
}

func TestChatGeneratesSessionID(t *testing.T) {
	fake := &fakeReplier{reply: "Hello!"}
	r := setupRouter(fake, &fakeJanitor{})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"Hi"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.SessionID == "" {
		t.Fatal("expected a generated session id")
	}
	if fake.gotSessionID != out.SessionID {
		t.Fatalf("replier saw session %s, response carried %s", fake.gotSessionID, out.SessionID)
	}
}

func TestChatMissingMessage(t *testing.T) {
	r := setupRouter(&fakeReplier{}, &fakeJanitor{})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "No message provided") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestCleanupSessions(t *testing.T) {
	janitor := &fakeJanitor{removed: 3}
	r := setupRouter(&fakeReplier{}, janitor)

	req := httptest.NewRequest(http.MethodPost, "/cleanup-sessions", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if janitor.gotMaxAge != time.Hour {
		t.Fatalf("expected 1h max age, got %s", janitor.gotMaxAge)
	}
	if !strings.Contains(resp.Body.String(), "Cleaned up 3 old sessions") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}
