package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is one entry of the transcript. A message is immutable once it is appended: the controller
// never edits or removes it, and it lives only as long as the widget that shows it.
type Message struct {
	ID        string
	Sender    Sender
	Text      string
	Sources   []string
	Timestamp time.Time
}

// Sender identifies who authored a message.
type Sender string

const (
	// SenderUser marks a message typed by the person using the widget.
	SenderUser Sender = "user"
	// SenderBot marks a message produced from a backend reply, including the fallback reply shown
	// when an exchange fails.
	SenderBot Sender = "bot"
)

// ErrEmptyMessage is returned by NewMessage when the text is blank after trimming.
var ErrEmptyMessage = errors.New("message text is empty")

// NewMessage builds a message with a fresh ID. The text must be non-empty after trimming. A nil
// sources slice is normalized to an empty one so that callers never have to tell them apart.
func NewMessage(sender Sender, text string, sources []string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}
	if sources == nil {
		sources = []string{}
	}
	return Message{
		ID:        uuid.New().String(),
		Sender:    sender,
		Text:      text,
		Sources:   sources,
		Timestamp: time.Now(),
	}, nil
}

// IsUser reports whether the message was authored by the user.
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}
