package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSplitText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{name: "empty", text: "   ", max: 10, want: nil},
		{name: "fits", text: "hello", max: 10, want: []string{"hello"}},
		{name: "exact", text: "0123456789", max: 10, want: []string{"0123456789"}},
		{name: "split", text: "0123456789abcde", max: 10, want: []string{"0123456789", "abcde"}},
		{name: "trims seam", text: "0123456789 abcde", max: 10, want: []string{"0123456789", "abcde"}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := SplitText(tc.text, tc.max)
			if len(got) != len(tc.want) {
				t.Fatalf("SplitText() = %q, want %q", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("SplitText()[%d] = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestSplitTextRespectsLimit(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", MaxMessageLen*2+100)
	for _, chunk := range SplitText(long, MaxMessageLen) {
		if len(chunk) > MaxMessageLen {
			t.Fatalf("chunk length = %d, want <= %d", len(chunk), MaxMessageLen)
		}
	}
}

func TestGetUpdatesAdvancesOffset(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": []map[string]any{
				{"update_id": 7, "message": map[string]any{"message_id": 1, "text": "hi", "chat": map[string]any{"id": 5, "type": "private"}, "from": map[string]any{"id": 5}}},
				{"update_id": 9, "message": map[string]any{"message_id": 2, "text": "yo", "chat": map[string]any{"id": 5, "type": "private"}, "from": map[string]any{"id": 5}}},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "test-token")
	updates, next, err := c.GetUpdates(context.Background(), 0, time.Second)
	if err != nil {
		t.Fatalf("GetUpdates() error = %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("GetUpdates() count = %d, want 2", len(updates))
	}
	if next != 10 {
		t.Fatalf("GetUpdates() next offset = %d, want 10", next)
	}
}

func TestSendMessageKeyboardPayload(t *testing.T) {
	t.Parallel()

	var captured sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "test-token")
	err := c.SendMessage(context.Background(), 42, "confirm ya edit?", SendOptions{
		Keyboard: [][]string{{"Confirm", "Edit"}},
	})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if captured.ChatID != 42 {
		t.Fatalf("chat_id = %d, want 42", captured.ChatID)
	}
	markup, ok := captured.ReplyMarkup.(map[string]any)
	if !ok {
		t.Fatalf("reply_markup type = %T, want object", captured.ReplyMarkup)
	}
	rows, ok := markup["keyboard"].([]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("keyboard rows = %v, want one row", markup["keyboard"])
	}
}

func TestSendChunkedSplitsLongText(t *testing.T) {
	t.Parallel()

	var sent []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		sent = append(sent, req.Text)
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "test-token")
	long := strings.Repeat("a", MaxMessageLen+50)
	if err := c.SendChunked(context.Background(), 42, long, SendOptions{}); err != nil {
		t.Fatalf("SendChunked() error = %v", err)
	}
	if len(sent) != 2 {
		t.Fatalf("SendChunked() messages = %d, want 2", len(sent))
	}
	if len(sent[0]) != MaxMessageLen {
		t.Fatalf("first chunk length = %d, want %d", len(sent[0]), MaxMessageLen)
	}
}
