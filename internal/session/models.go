package session

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one chat turn. Messages are immutable once appended; the
// only mutation a session ever performs is replacing a run of old
// messages with a summarized placeholder.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a single conversation. Messages are chronological and never
// reordered.
type Session struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	PrivacyMode string    `json:"privacy_mode,omitempty"`
	Messages    []Message `json:"messages"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasAssistantMessage reports whether any AI turn exists in the session.
func (s Session) HasAssistantMessage() bool {
	for _, m := range s.Messages {
		if m.Role == RoleAssistant {
			return true
		}
	}
	return false
}

// NewID returns a ULID. Session and message ids are ULIDs so they sort
// by creation time.
func NewID() string {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		// crypto/rand never fails on supported platforms
		return ulid.Make().String()
	}
	return id.String()
}
