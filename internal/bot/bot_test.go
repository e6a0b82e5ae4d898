package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Tanishk053/tanigpt/internal/history"
	"github.com/Tanishk053/tanigpt/internal/store"
	"github.com/Tanishk053/tanigpt/llm"
)

// fakeClient records requests and plays back a canned response.
type fakeClient struct {
	mu       sync.Mutex
	requests []llm.Request
	text     string
	err      error
}

func (f *fakeClient) Chat(_ context.Context, req llm.Request) (llm.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return llm.Result{}, f.err
	}
	return llm.Result{Text: f.text}, nil
}

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type testBot struct {
	dispatcher *Dispatcher
	store      *store.Store
	client     *fakeClient
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()

	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	client := &fakeClient{text: "theek hai bro"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	responder := NewResponder(st, client, "mistral-large-latest", history.NewWindow(10), logger, nil)
	responder.now = func() time.Time {
		return time.Date(2026, time.August, 27, 12, 0, 0, 0, time.UTC)
	}
	d := NewDispatcher(st, responder, Config{AdminID: "A1", AdminPassword: "secret"}, logger)
	return &testBot{dispatcher: d, store: st, client: client}
}

func (b *testBot) send(t *testing.T, externalID, text string) []Reply {
	t.Helper()
	return b.dispatcher.Handle(context.Background(), externalID, text)
}

// signUp walks one identity through the full signup dialogue.
func (b *testBot) signUp(t *testing.T, externalID, name, phone string) {
	t.Helper()
	b.send(t, externalID, "/start")
	b.send(t, externalID, name)
	b.send(t, externalID, phone)
	replies := b.send(t, externalID, "confirm")
	if len(replies) != 1 || !strings.Contains(replies[0].Text, "user number") {
		t.Fatalf("signup commit replies = %+v, want welcome with user number", replies)
	}
}

func wantContains(t *testing.T, replies []Reply, substr string) {
	t.Helper()
	for _, r := range replies {
		if strings.Contains(r.Text, substr) {
			return
		}
	}
	t.Fatalf("replies %+v do not contain %q", replies, substr)
}
