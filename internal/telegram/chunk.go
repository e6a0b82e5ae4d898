package telegram

import "strings"

// MaxMessageLen is the Bot API limit for a single sendMessage text.
const MaxMessageLen = 4096

// SplitText cuts text into pieces of at most max bytes, trimming the
// whitespace seam between pieces. Empty input yields no pieces.
func SplitText(text string, max int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if max <= 0 {
		max = MaxMessageLen
	}

	var chunks []string
	for len(text) > 0 {
		chunk := text
		if len(chunk) > max {
			chunk = chunk[:max]
		}
		chunks = append(chunks, chunk)
		text = strings.TrimSpace(text[len(chunk):])
	}
	return chunks
}
