// Package audit appends completed chat turns to a JSONL trail. It is
// best-effort: a failed append is logged and never fails the chat turn.
package audit

import (
	"log/slog"
	"time"

	"github.com/Tanishk053/tanigpt/internal/fsstore"
)

type Event struct {
	Time       time.Time `json:"time"`
	ExternalID string    `json:"external_id"`
	UserNumber string    `json:"user_number"`
	Prompt     string    `json:"prompt"`
	Reply      string    `json:"reply"`
	Source     string    `json:"source"` // date|bio|model
}

type Logger struct {
	w      *fsstore.JSONLWriter
	logger *slog.Logger
}

// Open creates a JSONL audit logger at path. rotateMaxBytes <= 0 uses the
// fsstore default.
func Open(path string, rotateMaxBytes int64, logger *slog.Logger) (*Logger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsstore.NewJSONLWriter(path, rotateMaxBytes)
	if err != nil {
		return nil, err
	}
	return &Logger{w: w, logger: logger}, nil
}

// Record appends one event. Safe on a nil receiver so audit stays optional
// at call sites.
func (l *Logger) Record(ev Event) {
	if l == nil || l.w == nil {
		return
	}
	if err := l.w.AppendJSON(ev); err != nil {
		l.logger.Warn("audit_append_error", "error", err.Error())
	}
}

func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	return l.w.Close()
}
