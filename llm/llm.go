// Package llm defines the completion collaborator contract: an ordered
// message list in, one assistant message out.
package llm

import (
	"context"
	"time"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type Request struct {
	Model    string
	Messages []Message
}

type Result struct {
	Text     string
	Usage    Usage
	Duration time.Duration
}

type Client interface {
	Chat(ctx context.Context, req Request) (Result, error)
}
