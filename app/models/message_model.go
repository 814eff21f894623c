package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message types.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeAudio = "audio"
)

// TombstoneText replaces the content of an unsent message. Both delivery
// paths surface the same tombstoned record.
const TombstoneText = "This message was deleted"

type Message struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	RoomID         string     `json:"room_id" db:"room_id"`
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	MessageType    string     `json:"message_type" db:"message_type"`
	Text           string     `json:"text" db:"text"`
	FileURL        *string    `json:"file_url,omitempty" db:"file_url"`
	ReplyToID      *uuid.UUID `json:"reply_to_id,omitempty" db:"reply_to_id"`
	ReplyToSnippet *string    `json:"reply_to_snippet,omitempty" db:"reply_to_snippet"`
	IsDeleted      bool       `json:"is_deleted" db:"is_deleted"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Snippet returns a short quote of the message text for reply references.
// The snippet is frozen at write time and never re-resolved, so a later
// unsend of the original does not rewrite existing quotes.
func (m *Message) Snippet(max int) string {
	s := strings.TrimSpace(m.Text)
	if s == "" {
		s = "[" + m.MessageType + "]"
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

type CreateMessageRequest struct {
	RoomID      string `json:"room_id" validate:"required"`
	MessageType string `json:"message_type" validate:"required,oneof=text image audio"`
	Text        string `json:"text,omitempty"`
	FileURL     string `json:"file_url,omitempty"`
	ReplyToID   string `json:"reply_to_id,omitempty"`
}

// Validate enforces the per-type content rules: text messages need non-empty
// trimmed text, media messages need the opaque file reference produced by
// the upload service. Rejected requests must cause no writes.
func (r *CreateMessageRequest) Validate() error {
	switch r.MessageType {
	case MessageTypeText:
		if strings.TrimSpace(r.Text) == "" {
			return errors.New("text message requires non-empty text")
		}
	case MessageTypeImage, MessageTypeAudio:
		if strings.TrimSpace(r.FileURL) == "" {
			return errors.New(r.MessageType + " message requires file_url")
		}
	default:
		return errors.New("unsupported message type")
	}
	return nil
}

// PollUpdatesResponse is the pull-path snapshot for one room. Repeated polls
// with the same cursor return the same results; the client advances "since"
// using the newest UpdatedAt it has observed, not wall-clock time, so the
// response carries no server clock to mistake for a cursor.
type PollUpdatesResponse struct {
	Status        string    `json:"status"`
	Messages      []Message `json:"messages"`
	PartnerStatus string    `json:"partner_status,omitempty"`
	PartnerTyping bool      `json:"partner_typing"`
}
