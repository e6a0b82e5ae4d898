package bot

import (
	"testing"
)

func TestActiveSessionOwnsRouting(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)

	b.send(t, "U1", "/start")
	// Mid-signup, text that would normally hit the responder is consumed
	// by the signup machine instead.
	replies := b.send(t, "U1", "what's the date")
	wantContains(t, replies, "letters aur spaces")
	if b.client.calls() != 0 {
		t.Fatalf("responder consulted while a session was active")
	}
}

func TestSessionsAreIndependentPerIdentity(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)

	b.signUp(t, "U2", "Priya Singh", "9812345678")
	b.send(t, "U1", "/start")

	// U1's signup session does not capture U2's chat.
	replies := b.send(t, "U2", "kaise ho")
	wantContains(t, replies, "Hlo Priya Singh")

	replies = b.send(t, "U1", "Rahul Verma")
	wantContains(t, replies, "10-digit")
}

func TestClearResetsHistoryToSystemDirective(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)
	b.signUp(t, "U1", "Rahul Verma", "9876543210")

	b.send(t, "U1", "bolo kuch")
	b.send(t, "U1", "aur bolo")

	replies := b.send(t, "U1", "/clear")
	wantContains(t, replies, "History clear")

	rec, err := b.store.Get("1")
	if err != nil {
		t.Fatalf("Get(1) error = %v", err)
	}
	if len(rec.ChatHistory) != 1 || rec.ChatHistory[0].Role != "system" {
		t.Fatalf("history after clear = %+v, want just the system directive", rec.ChatHistory)
	}
}

func TestClearRequiresSignup(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)

	replies := b.send(t, "U1", "/clear")
	wantContains(t, replies, "/start")
}

func TestAboutCommand(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)

	replies := b.send(t, "U1", "/about")
	wantContains(t, replies, "TaniGPT")
}

func TestCancelWithoutSession(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)

	replies := b.send(t, "U1", "/cancel")
	wantContains(t, replies, "Koi active session")
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)

	replies := b.send(t, "U1", "/wat")
	wantContains(t, replies, "samajh nahi aayi")
}

func TestCommandWithBotSuffix(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)

	replies := b.send(t, "U1", "/start@TaniGPTBot")
	wantContains(t, replies, "naam bhejo")
}
