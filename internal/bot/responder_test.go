package bot

import (
	"errors"
	"testing"
)

func TestRespondRequiresSignup(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)

	replies := b.send(t, "U1", "hello")
	wantContains(t, replies, "/start")
	if b.client.calls() != 0 {
		t.Fatalf("collaborator called for unindexed identity")
	}
}

func TestRespondDateKeywordSkipsCollaborator(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)
	b.signUp(t, "U1", "Rahul Verma", "9876543210")

	replies := b.send(t, "U1", "what's the date?")
	wantContains(t, replies, "Today is Thursday, August 27, 2026")
	if b.client.calls() != 0 {
		t.Fatalf("collaborator called for a date keyword")
	}

	// History grew by exactly two entries (user + assistant).
	rec, err := b.store.Get("1")
	if err != nil {
		t.Fatalf("Get(1) error = %v", err)
	}
	if len(rec.ChatHistory) != 3 {
		t.Fatalf("history length = %d, want 3 (system + user + assistant)", len(rec.ChatHistory))
	}
	if rec.ChatHistory[2].Content != "Today is Thursday, August 27, 2026" {
		t.Fatalf("assistant entry = %q, want the date string", rec.ChatHistory[2].Content)
	}
}

func TestRespondIdentityKeywordSkipsCollaborator(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)
	b.signUp(t, "U1", "Rahul Verma", "9876543210")

	replies := b.send(t, "U1", "Who is Tanishk?")
	wantContains(t, replies, "Founder of Tnix AI")
	if b.client.calls() != 0 {
		t.Fatalf("collaborator called for an identity keyword")
	}
}

func TestRespondDelegatesWindowedTranscript(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)
	b.signUp(t, "U1", "Rahul Verma", "9876543210")

	replies := b.send(t, "U1", "Kaise Ho Bro")
	wantContains(t, replies, "Hlo Rahul Verma, theek hai bro")
	if b.client.calls() != 1 {
		t.Fatalf("collaborator calls = %d, want 1", b.client.calls())
	}

	req := b.client.requests[0]
	if req.Model != "mistral-large-latest" {
		t.Fatalf("request model = %q, want mistral-large-latest", req.Model)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("request messages = %d, want system + user", len(req.Messages))
	}
	if req.Messages[0].Role != "system" {
		t.Fatalf("first replayed message role = %q, want system", req.Messages[0].Role)
	}
	// The stored and replayed user turn is lowercased.
	if req.Messages[1].Content != "kaise ho bro" {
		t.Fatalf("replayed user turn = %q, want lowercased text", req.Messages[1].Content)
	}
}

func TestRespondHistoryNeverExceedsTen(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)
	b.signUp(t, "U1", "Rahul Verma", "9876543210")

	for i := 0; i < 12; i++ {
		b.send(t, "U1", "bolo kuch")
	}

	rec, err := b.store.Get("1")
	if err != nil {
		t.Fatalf("Get(1) error = %v", err)
	}
	if len(rec.ChatHistory) > 10 {
		t.Fatalf("history length = %d, want <= 10", len(rec.ChatHistory))
	}
	if rec.ChatHistory[0].Role == "system" {
		t.Fatalf("system directive should have been trimmed by now")
	}
}

func TestRespondCollaboratorFailure(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)
	b.signUp(t, "U1", "Rahul Verma", "9876543210")

	b.client.err = errors.New("upstream exploded: key leaked")
	replies := b.send(t, "U1", "bolo kuch")
	wantContains(t, replies, "kuch galat ho gaya")
	// The raw upstream error never reaches the user.
	for _, r := range replies {
		if len(r.Text) > 0 && (r.Text == b.client.err.Error() || containsAny(r.Text, []string{"upstream exploded"})) {
			t.Fatalf("raw collaborator error leaked to user: %q", r.Text)
		}
	}

	// The failed turn is not persisted.
	rec, err := b.store.Get("1")
	if err != nil {
		t.Fatalf("Get(1) error = %v", err)
	}
	if len(rec.ChatHistory) != 1 {
		t.Fatalf("history length = %d, want 1 (failed turn discarded)", len(rec.ChatHistory))
	}

	// The session survives: the next turn works again.
	b.client.err = nil
	replies = b.send(t, "U1", "ab bolo")
	wantContains(t, replies, "theek hai bro")
}
