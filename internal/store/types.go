package store

// Message is one transcript entry. Order is conversation order and is
// replayed verbatim to the completion provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// UserRecord is the durable per-user document, one file per user number.
type UserRecord struct {
	UserNumber  string    `json:"user_number"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	ChatHistory []Message `json:"chat_history"`
}

// IndexEntry maps a Telegram sender id to the internal user number. The
// index file is the sole authority joining transport identity to records.
type IndexEntry struct {
	UserNumber string `json:"user_number"`
}

// Index is the persisted form of user_index.json.
type Index map[string]IndexEntry

// ListEntry is the admin-facing view of one user.
type ListEntry struct {
	UserNumber  string
	ExternalID  string
	Name        string
	PhoneNumber string
}
