package bot

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/Tanishk053/tanigpt/internal/store"
	"github.com/Tanishk053/tanigpt/internal/telegram"
)

type adminState int

const (
	adminStatePassword adminState = iota
	adminStateMenu
	adminStateViewHistory
	adminStateDeleteUser
)

// AdminSession drives the password-gated admin dialogue. Only the single
// configured admin identity ever gets one; the gate lives in the
// dispatcher.
type AdminSession struct {
	state adminState
}

func newAdminSession() *AdminSession {
	return &AdminSession{state: adminStatePassword}
}

func adminPasswordPrompt() Reply {
	return textReply("Admin password bhejo 🔐")
}

func adminMenuReply() Reply {
	return Reply{
		Text:     "Admin Menu 👑 Kya karna hai?",
		Keyboard: [][]string{{"Users", "History"}, {"Delete User", "Exit"}},
	}
}

// Handle consumes one inbound message. done=true ends the session.
func (a *AdminSession) Handle(ctx context.Context, st *store.Store, secret, input string) (replies []Reply, done bool) {
	input = strings.TrimSpace(input)

	switch a.state {
	case adminStatePassword:
		if subtle.ConstantTimeCompare([]byte(input), []byte(secret)) != 1 {
			return []Reply{textReply("Galat password 😬 Phir try karo.")}, false
		}
		a.state = adminStateMenu
		return []Reply{adminMenuReply()}, false

	case adminStateMenu:
		switch strings.ToLower(input) {
		case "users":
			return []Reply{a.renderUsers(st), adminMenuReply()}, false
		case "history":
			a.state = adminStateViewHistory
			return []Reply{textReply("User number bhejo jiska history dekhna hai.")}, false
		case "delete user":
			a.state = adminStateDeleteUser
			return []Reply{textReply("User number bhejo jisko delete karna hai.")}, false
		case "exit":
			return []Reply{{Text: "Admin panel band 😎", RemoveKeyboard: true}}, true
		default:
			return []Reply{adminMenuReply()}, false
		}

	case adminStateViewHistory:
		a.state = adminStateMenu
		replies = a.renderHistory(st, input)
		return append(replies, adminMenuReply()), false

	case adminStateDeleteUser:
		a.state = adminStateMenu
		if err := st.Delete(ctx, input); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return []Reply{textReply(fmt.Sprintf("User number %s nahi mila 😅", input)), adminMenuReply()}, false
			}
			return []Reply{textReply("Delete nahi ho paya 😬 Phir try karo."), adminMenuReply()}, false
		}
		return []Reply{textReply(fmt.Sprintf("User %s delete ho gaya ✅", input)), adminMenuReply()}, false
	}

	return nil, true
}

func (a *AdminSession) renderUsers(st *store.Store) Reply {
	entries, err := st.List()
	if err != nil {
		return textReply("Users list nahi ho payi 😬 Phir try karo.")
	}
	if len(entries) == 0 {
		return textReply("Abhi tak koi user nahi hai.")
	}
	var b strings.Builder
	b.WriteString("Registered users:\n")
	for _, entry := range entries {
		fmt.Fprintf(&b, "#%s | id %s | %s | %s\n", entry.UserNumber, entry.ExternalID, entry.Name, entry.PhoneNumber)
	}
	return textReply(strings.TrimRight(b.String(), "\n"))
}

// renderHistory formats the transcript minus the system entry and splits
// it at the transport message limit, one Reply per chunk, in order.
func (a *AdminSession) renderHistory(st *store.Store, userNumber string) []Reply {
	rec, err := st.Get(userNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []Reply{textReply(fmt.Sprintf("User number %s nahi mila 😅", userNumber))}
		}
		return []Reply{textReply("History load nahi ho payi 😬 Phir try karo.")}
	}

	var b strings.Builder
	for _, msg := range rec.ChatHistory {
		switch msg.Role {
		case store.RoleUser:
			fmt.Fprintf(&b, "User: %s\n", msg.Content)
		case store.RoleAssistant:
			fmt.Fprintf(&b, "Assistant: %s\n", msg.Content)
		}
	}
	rendered := strings.TrimRight(b.String(), "\n")
	if rendered == "" {
		return []Reply{textReply(fmt.Sprintf("User %s ki abhi koi chat history nahi hai.", userNumber))}
	}

	chunks := telegram.SplitText(rendered, telegram.MaxMessageLen)
	replies := make([]Reply, 0, len(chunks))
	for _, chunk := range chunks {
		replies = append(replies, textReply(chunk))
	}
	return replies
}

func adminCancelReply() Reply {
	return Reply{Text: "Admin panel band 😎", RemoveKeyboard: true}
}
