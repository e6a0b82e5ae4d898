package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Tanishk053/tanigpt/internal/history"
	"github.com/Tanishk053/tanigpt/internal/store"
)

type signupState int

const (
	signupStateName signupState = iota
	signupStatePhone
	signupStateConfirm
)

// phoneCountryPrefix normalizes the 10-digit national number before the
// duplicate scan and the stored form.
const phoneCountryPrefix = "+91"

var (
	nameRe  = regexp.MustCompile(`^[A-Za-z ]+$`)
	phoneRe = regexp.MustCompile(`^[0-9]{10}$`)
)

// SignupSession walks a new identity through NAME, PHONE and CONFIRM.
// Nothing is persisted until the confirm commit.
type SignupSession struct {
	externalID string
	state      signupState
	draftName  string
	draftPhone string
}

func newSignupSession(externalID string) *SignupSession {
	return &SignupSession{externalID: externalID, state: signupStateName}
}

func signupGreeting() Reply {
	return textReply("Yo bro, TaniGPT mein swagat hai! 😎 Pehle signup karo, bada maza aayega! Apna naam bhejo, cool sa!")
}

func confirmPrompt(name, phone string) Reply {
	return Reply{
		Text:     fmt.Sprintf("Naam: %s\nPhone: %s\nSab sahi hai? 'confirm' ya 'edit' bhejo.", name, phone),
		Keyboard: [][]string{{"Confirm", "Edit"}},
	}
}

// Handle consumes one inbound message. done=true means the session is over
// and must be discarded.
func (s *SignupSession) Handle(ctx context.Context, st *store.Store, input string) (replies []Reply, done bool) {
	input = strings.TrimSpace(input)

	switch s.state {
	case signupStateName:
		if !nameRe.MatchString(input) {
			return []Reply{textReply("Arre yaar, naam mein sirf letters aur spaces chalenge 😅 Phir se bhejo!")}, false
		}
		s.draftName = input
		s.state = signupStatePhone
		return []Reply{textReply(fmt.Sprintf("Badhiya, %s! Ab apna 10-digit phone number bhejo.", s.draftName))}, false

	case signupStatePhone:
		if !phoneRe.MatchString(input) {
			return []Reply{textReply("Number thoda off lag raha hai 😅 Exactly 10 digits bhejo, bina spaces ke.")}, false
		}
		normalized := phoneCountryPrefix + input
		_, taken, err := st.FindByPhone(normalized)
		if err != nil {
			return []Reply{{Text: "Kuch galat ho gaya 😬 Signup save nahi hua, /start se phir try karo.", RemoveKeyboard: true}}, true
		}
		if taken {
			return []Reply{textReply("Ye number pehle se registered hai, bro 🙈 Koi aur number bhejo.")}, false
		}
		s.draftPhone = normalized
		s.state = signupStateConfirm
		return []Reply{confirmPrompt(s.draftName, s.draftPhone)}, false

	case signupStateConfirm:
		switch strings.ToLower(input) {
		case "confirm":
			rec, err := st.Create(ctx, s.externalID, s.draftName, s.draftPhone, history.Seed())
			if err != nil {
				return []Reply{{Text: "Kuch galat ho gaya 😬 Signup save nahi hua, /start se phir try karo.", RemoveKeyboard: true}}, true
			}
			return []Reply{{
				Text:           fmt.Sprintf("Welcome to TaniGPT, %s! 🎉 Apka user number hai %s. Ab kuch bhi pucho!", rec.Name, rec.UserNumber),
				RemoveKeyboard: true,
			}}, true
		case "edit":
			s.draftName = ""
			s.draftPhone = ""
			s.state = signupStateName
			return []Reply{{Text: "Thik hai, phir se 😊 Apna naam bhejo!", RemoveKeyboard: true}}, false
		default:
			return []Reply{confirmPrompt(s.draftName, s.draftPhone)}, false
		}
	}

	return nil, true
}

func signupCancelReply() Reply {
	return Reply{Text: "Thik hai, signup cancel 😊 Jab mann kare /start bhejna!", RemoveKeyboard: true}
}
