package models

import "github.com/google/uuid"

// Push-path event names.
const (
	EventMatched             = "matched"
	EventMessage             = "message"
	EventMessageDeleted      = "message_deleted"
	EventTyping              = "typing"
	EventTypingStop          = "typing_stop"
	EventPartnerDisconnected = "partner_disconnected"
)

// RealtimeEvent is one push-path payload. Targets controls fan-out and is
// never serialized; when empty the dispatcher derives both room members from
// the room id.
type RealtimeEvent struct {
	Event     string   `json:"event"`
	RoomID    string   `json:"room_id,omitempty"`
	SenderID  string   `json:"sender_id,omitempty"`
	PartnerID string   `json:"partner_id,omitempty"`
	Message   *Message `json:"message,omitempty"`
	MessageID string   `json:"message_id,omitempty"`

	Targets []uuid.UUID `json:"-"`
}

// WsInbound is a client frame on the live channel.
type WsInbound struct {
	Event      string `json:"event"`
	Preference string `json:"preference,omitempty"`
}

// Live-channel inbound event names.
const (
	WsEventSearch     = "search"
	WsEventTyping     = "typing"
	WsEventTypingStop = "typing_stop"
	WsEventLeave      = "leave"
)
