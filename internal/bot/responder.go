package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Tanishk053/tanigpt/internal/audit"
	"github.com/Tanishk053/tanigpt/internal/history"
	"github.com/Tanishk053/tanigpt/internal/store"
	"github.com/Tanishk053/tanigpt/llm"
)

const dateLayout = "Today is Monday, January 02, 2006"

const founderBio = "Tanishk Sharma is the Founder of Tnix AI. He is a music producer, " +
	"casting director, singer, and writer. His songs include 'Lost in My Feeling', " +
	"'06 October Forever and Always', and 'WQAT'."

var dateKeywords = []string{"date", "today", "current date", "what's the date", "aaj ka din"}

var identityKeywords = []string{"tanishk sharma", "who is tanishk"}

// Responder handles ordinary chat turns for signed-up users: two keyword
// short-circuits, otherwise the windowed transcript goes to the completion
// provider verbatim.
type Responder struct {
	store  *store.Store
	client llm.Client
	model  string
	window history.Window
	logger *slog.Logger
	audit  *audit.Logger

	now func() time.Time
}

func NewResponder(st *store.Store, client llm.Client, model string, window history.Window, logger *slog.Logger, auditLog *audit.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		store:  st,
		client: client,
		model:  model,
		window: window,
		logger: logger,
		audit:  auditLog,
		now:    time.Now,
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func toLLMMessages(msgs []store.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// Respond runs one chat turn. On any failure the turn is not persisted and
// the user sees a failure line; the raw error only goes to the log.
func (r *Responder) Respond(ctx context.Context, externalID, text string) []Reply {
	msg := strings.ToLower(strings.TrimSpace(text))
	if msg == "" {
		return nil
	}

	userNumber, ok, err := r.store.Lookup(externalID)
	if err != nil {
		r.logger.Error("chat_index_error", "external_id", externalID, "error", err.Error())
		return []Reply{textReply("Kuch galat ho gaya 😬 Thodi der baad try karo.")}
	}
	if !ok {
		return []Reply{textReply("Pehle signup karo, bro! 😬 Use /start.")}
	}

	rec, err := r.store.Get(userNumber)
	if err != nil {
		r.logger.Error("chat_record_error", "user_number", userNumber, "error", err.Error())
		return []Reply{textReply("Apka data load nahi ho paya 😅 Thodi der baad try karo.")}
	}

	rec.ChatHistory = r.window.Append(rec.ChatHistory, store.Message{Role: store.RoleUser, Content: msg})

	var response, source string
	switch {
	case containsAny(msg, dateKeywords):
		response = r.now().Format(dateLayout)
		source = "date"
	case containsAny(msg, identityKeywords):
		response = founderBio
		source = "bio"
	default:
		start := time.Now()
		res, err := r.client.Chat(ctx, llm.Request{
			Model:    r.model,
			Messages: toLLMMessages(rec.ChatHistory),
		})
		if err != nil {
			r.logger.Error("chat_completion_error", "user_number", userNumber, "error", err.Error())
			return []Reply{textReply(fmt.Sprintf("Hlo %s, kuch galat ho gaya 😬 Thodi der baad phir try karo.", rec.Name))}
		}
		r.logger.Info("chat_completion",
			"user_number", userNumber,
			"duration", time.Since(start).String(),
			"total_tokens", res.Usage.TotalTokens,
		)
		response = strings.TrimSpace(res.Text)
		source = "model"
	}

	rec.ChatHistory = r.window.Append(rec.ChatHistory, store.Message{Role: store.RoleAssistant, Content: response})

	if err := r.store.Put(rec); err != nil {
		r.logger.Error("chat_persist_error", "user_number", userNumber, "error", err.Error())
		return []Reply{textReply(fmt.Sprintf("Hlo %s, kuch galat ho gaya 😬 Thodi der baad phir try karo.", rec.Name))}
	}

	r.audit.Record(audit.Event{
		Time:       r.now().UTC(),
		ExternalID: externalID,
		UserNumber: userNumber,
		Prompt:     msg,
		Reply:      response,
		Source:     source,
	})

	return []Reply{textReply(fmt.Sprintf("Hlo %s, %s %s", rec.Name, response, chatEmoji(msg)))}
}

// chatEmoji mirrors the original bot's context-based emoji pick for
// general replies.
func chatEmoji(msg string) string {
	switch {
	case strings.Contains(msg, "date"):
		return "📅"
	case strings.Contains(msg, "tanishk sharma"):
		return "🎤"
	default:
		return "😊"
	}
}
