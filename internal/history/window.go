// Package history bounds the retained transcript and owns the system
// directive that seeds every new conversation.
package history

import "github.com/Tanishk053/tanigpt/internal/store"

// SystemPrompt is the persona directive stored at the head of each fresh
// transcript.
const SystemPrompt = "You are TaniGPT, powered by Tnix AI. " +
	"Respond in Hinglish or English only, keeping a friendly and conversational tone. " +
	"Keep responses relevant and engaging."

// DefaultMaxMessages is the retained transcript bound.
const DefaultMaxMessages = 10

// Seed returns the initial transcript for a new user.
func Seed() []store.Message {
	return []store.Message{{Role: store.RoleSystem, Content: SystemPrompt}}
}

// Window enforces the transcript bound.
type Window struct {
	Max int
}

func NewWindow(max int) Window {
	if max <= 0 {
		max = DefaultMaxMessages
	}
	return Window{Max: max}
}

// Append adds msg and keeps only the most recent Max entries. Long
// conversations deliberately lose the leading system directive; this is a
// simple suffix bound, not summarization.
func (w Window) Append(history []store.Message, msg store.Message) []store.Message {
	history = append(history, msg)
	if w.Max > 0 && len(history) > w.Max {
		history = history[len(history)-w.Max:]
	}
	return history
}
