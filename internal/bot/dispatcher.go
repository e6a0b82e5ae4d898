package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Tanishk053/tanigpt/internal/history"
	"github.com/Tanishk053/tanigpt/internal/store"
)

const aboutText = "TaniGPT — Tnix AI ka conversational assistant 🚀\n" +
	"Signup: /start\nHistory saaf: /clear\nSession cancel: /cancel"

// Config carries the admin gate settings.
type Config struct {
	AdminID       string
	AdminPassword string
}

// Dispatcher routes each inbound message to whichever session currently
// owns the sender's identity, or to the responder when no session is
// active. Exactly one session (signup or admin) may exist per identity.
//
// Session maps are guarded by mu; the transport guarantees single-flight
// per identity, so an individual session is never handled concurrently.
type Dispatcher struct {
	store     *store.Store
	responder *Responder
	cfg       Config
	logger    *slog.Logger

	mu      sync.Mutex
	signups map[string]*SignupSession
	admins  map[string]*AdminSession
}

func NewDispatcher(st *store.Store, responder *Responder, cfg Config, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:     st,
		responder: responder,
		cfg:       cfg,
		logger:    logger,
		signups:   map[string]*SignupSession{},
		admins:    map[string]*AdminSession{},
	}
}

func (d *Dispatcher) activeSessions(externalID string) (*SignupSession, *AdminSession) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.signups[externalID], d.admins[externalID]
}

func (d *Dispatcher) dropSignup(externalID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.signups, externalID)
}

func (d *Dispatcher) dropAdmin(externalID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.admins, externalID)
}

// Handle processes one inbound message for externalID and returns the
// replies to deliver, in order.
func (d *Dispatcher) Handle(ctx context.Context, externalID, text string) []Reply {
	cmdWord, _ := splitCommand(text)
	command := normalizeSlashCommand(cmdWord)

	signup, admin := d.activeSessions(externalID)

	if command == "/cancel" {
		switch {
		case signup != nil:
			d.dropSignup(externalID)
			return []Reply{signupCancelReply()}
		case admin != nil:
			d.dropAdmin(externalID)
			return []Reply{adminCancelReply()}
		default:
			return []Reply{textReply("Koi active session nahi hai 😊")}
		}
	}

	// An active session exclusively owns routing for its identity.
	if signup != nil {
		replies, done := signup.Handle(ctx, d.store, text)
		if done {
			d.dropSignup(externalID)
		}
		return replies
	}
	if admin != nil {
		replies, done := admin.Handle(ctx, d.store, d.cfg.AdminPassword, text)
		if done {
			d.dropAdmin(externalID)
		}
		return replies
	}

	switch command {
	case "/start":
		return d.startSignup(externalID)
	case "/admin":
		return d.startAdmin(externalID)
	case "/about":
		return []Reply{textReply(aboutText)}
	case "/clear":
		return d.clearHistory(externalID)
	case "":
		return d.responder.Respond(ctx, externalID, text)
	default:
		return []Reply{textReply("Ye command samajh nahi aayi 😅 Try /start, /about, /clear ya /cancel.")}
	}
}

// startSignup begins the signup dialogue, short-circuiting for identities
// that already have an index entry.
func (d *Dispatcher) startSignup(externalID string) []Reply {
	userNumber, ok, err := d.store.Lookup(externalID)
	if err != nil {
		d.logger.Error("signup_index_error", "external_id", externalID, "error", err.Error())
		return []Reply{textReply("Kuch galat ho gaya 😬 Thodi der baad try karo.")}
	}
	if ok {
		rec, err := d.store.Get(userNumber)
		if err != nil {
			d.logger.Error("signup_record_error", "user_number", userNumber, "error", err.Error())
			return []Reply{textReply("Apka data load nahi ho paya 😅 Thodi der baad try karo.")}
		}
		return []Reply{textReply(fmt.Sprintf(
			"Hlo %s, welcome back to TaniGPT! Apka user number hai %s. Chalo, kya baat karna hai? 😎",
			rec.Name, rec.UserNumber,
		))}
	}

	d.mu.Lock()
	d.signups[externalID] = newSignupSession(externalID)
	d.mu.Unlock()
	return []Reply{signupGreeting()}
}

// startAdmin refuses everyone but the configured admin identity; the
// session is never created for anyone else.
func (d *Dispatcher) startAdmin(externalID string) []Reply {
	if externalID != d.cfg.AdminID || d.cfg.AdminID == "" {
		d.logger.Warn("admin_refused", "external_id", externalID)
		return []Reply{textReply("Ye command sirf admin ke liye hai 🙈")}
	}

	d.mu.Lock()
	d.admins[externalID] = newAdminSession()
	d.mu.Unlock()
	return []Reply{adminPasswordPrompt()}
}

// clearHistory resets the user's transcript to just the system directive.
func (d *Dispatcher) clearHistory(externalID string) []Reply {
	userNumber, ok, err := d.store.Lookup(externalID)
	if err != nil {
		d.logger.Error("clear_index_error", "external_id", externalID, "error", err.Error())
		return []Reply{textReply("Kuch galat ho gaya 😬 Thodi der baad try karo.")}
	}
	if !ok {
		return []Reply{textReply("Pehle signup karo, bro! 😬 Use /start.")}
	}

	rec, err := d.store.Get(userNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []Reply{textReply("Apka data load nahi ho paya 😅 Thodi der baad try karo.")}
		}
		d.logger.Error("clear_record_error", "user_number", userNumber, "error", err.Error())
		return []Reply{textReply("Apka data load nahi ho paya 😅 Thodi der baad try karo.")}
	}

	rec.ChatHistory = history.Seed()
	if err := d.store.Put(rec); err != nil {
		d.logger.Error("clear_persist_error", "user_number", userNumber, "error", err.Error())
		return []Reply{textReply("Kuch galat ho gaya 😬 Thodi der baad try karo.")}
	}
	return []Reply{textReply("History clear ho gayi ✅ Fresh start!")}
}
