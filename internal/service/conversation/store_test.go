package conversation

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
)

func newTestStore(cfg StoreConfig) *Store {
	if cfg.Preamble == "" {
		cfg.Preamble = "you are a receptionist"
	}
	return NewStore(cfg)
}

func TestGetOrCreateSeedsPreambleOnce(t *testing.T) {
	store := newTestStore(StoreConfig{})

	const workers = 16
	created := make(chan bool, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, isNew := store.GetOrCreate("visitor-1")
			created <- isNew
		}()
	}
	wg.Wait()
	close(created)

	creations := 0
	for isNew := range created {
		if isNew {
			creations++
		}
	}
	if creations != 1 {
		t.Fatalf("expected exactly one creation, got %d", creations)
	}

	history, err := store.History("visitor-1")
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	systemCount := 0
	for _, msg := range history {
		if msg.Role == schema.System {
			systemCount++
		}
	}
	if systemCount != 1 {
		t.Fatalf("expected one system preamble, got %d", systemCount)
	}
}

func TestHistoryNotFound(t *testing.T) {
	store := newTestStore(StoreConfig{})
	if _, err := store.History("missing"); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	store := newTestStore(StoreConfig{})

	for i := 0; i < 3; i++ {
		store.GetOrCreate(fmt.Sprintf("fresh-%d", i))
	}
	if removed := store.Sweep(time.Hour); removed != 0 {
		t.Fatalf("expected 0 removed for fresh sessions, got %d", removed)
	}

	// Age every session past the retention window.
	store.mu.Lock()
	for _, e := range store.entries {
		e.session.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	}
	store.mu.Unlock()

	if removed := store.Sweep(time.Hour); removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d sessions", store.Len())
	}

	// Repeated sweep with nothing expired is side-effect free.
	if removed := store.Sweep(time.Hour); removed != 0 {
		t.Fatalf("expected idempotent sweep, got %d", removed)
	}
}

func TestCapEvictsLeastRecentlyUsed(t *testing.T) {
	store := newTestStore(StoreConfig{MaxSessions: 2})

	store.GetOrCreate("a")
	store.GetOrCreate("b")

	// Touch "a" so "b" becomes the eviction candidate.
	if _, err := store.History("a"); err != nil {
		t.Fatalf("History err: %v", err)
	}

	store.GetOrCreate("c")

	if store.Len() != 2 {
		t.Fatalf("expected 2 sessions after eviction, got %d", store.Len())
	}
	if _, err := store.History("b"); err != ErrSessionNotFound {
		t.Fatalf("expected b to be evicted, got %v", err)
	}
	if _, err := store.History("a"); err != nil {
		t.Fatalf("expected a to survive: %v", err)
	}
}

func TestAppendExchangeTrimsHistory(t *testing.T) {
	store := newTestStore(StoreConfig{HistoryLimit: 4})
	store.GetOrCreate("visitor")

	for i := 0; i < 5; i++ {
		err := store.AppendExchange("visitor",
			schema.UserMessage(fmt.Sprintf("question %d", i)),
			schema.AssistantMessage(fmt.Sprintf("answer %d", i), nil))
		if err != nil {
			t.Fatalf("AppendExchange err: %v", err)
		}
	}

	history, err := store.History("visitor")
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(history) != 5 { // preamble + 4 trailing messages
		t.Fatalf("expected trimmed history of 5, got %d", len(history))
	}
	if history[0].Role != schema.System {
		t.Fatalf("expected preamble to survive trimming, got role %s", history[0].Role)
	}
	if history[len(history)-1].Content != "answer 4" {
		t.Fatalf("expected newest message kept, got %q", history[len(history)-1].Content)
	}
}

func TestAppendExchangeUnknownSession(t *testing.T) {
	store := newTestStore(StoreConfig{})
	err := store.AppendExchange("missing", schema.UserMessage("hi"), schema.AssistantMessage("hello", nil))
	if err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
