package session

import (
	"context"
	"errors"

	"github.com/pershin-daniil/MeetBot/pkg/timeutil"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrTaken means the user is already logged in from another chat.
	ErrTaken = errors.New("user is logged in elsewhere")
)

type State string

const (
	StateChoosingUser     State = "choosing_user"
	StateEnteringPassword State = "entering_password"
	StateMainMenu         State = "main_menu"
)

// Draft is a meeting being assembled in the wizard.
type Draft struct {
	Date            timeutil.Date `json:"date"`
	StartTime       string        `json:"startTime,omitempty"`
	DurationMinutes int           `json:"durationMinutes,omitempty"`
	Participants    []string      `json:"participants,omitempty"`
}

func (d *Draft) Has(name string) bool {
	for _, p := range d.Participants {
		if p == name {
			return true
		}
	}
	return false
}

// Toggle adds name to the draft or removes it if already present. It reports
// whether name is in the draft afterwards.
func (d *Draft) Toggle(name string) bool {
	for i, p := range d.Participants {
		if p == name {
			d.Participants = append(d.Participants[:i], d.Participants[i+1:]...)
			return false
		}
	}
	d.Participants = append(d.Participants, name)
	return true
}

type Session struct {
	ChatID   int64  `json:"chatId"`
	Username string `json:"username,omitempty"`
	// Candidate is the name chosen on the login screen, before the password is checked.
	Candidate string `json:"candidate,omitempty"`
	State     State  `json:"state"`
	Draft     *Draft `json:"draft,omitempty"`
}

func (s Session) LoggedIn() bool {
	return s.Username != ""
}

// Store keeps one session per chat. A username may be bound to at most one
// chat at a time.
type Store interface {
	Get(ctx context.Context, chatID int64) (Session, error)
	Save(ctx context.Context, session Session) error
	// Login binds username to the session's chat and saves it.
	Login(ctx context.Context, session Session, username string) (Session, error)
	// Delete removes the chat's session and releases its username.
	Delete(ctx context.Context, chatID int64) error
	ChatOf(ctx context.Context, username string) (int64, error)
	Count(ctx context.Context) (int, error)
}
