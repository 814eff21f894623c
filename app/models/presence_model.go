package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Presence statuses. A presence row is never deleted; "offline" is both the
// initial and the resting state.
const (
	StatusOffline   = "offline"
	StatusOnline    = "online"
	StatusSearching = "searching"
	StatusChatting  = "chatting"
)

// Match preferences. Accepted and stored, not applied as a match filter.
const (
	PreferenceSame     = "same"
	PreferenceOpposite = "opposite"
	PreferenceBoth     = "both"
)

// PartnerDisconnected is the room status reported by the poll path once the
// partner's presence no longer references the room.
const PartnerDisconnected = "partner_disconnected"

type UserPresence struct {
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	Status         string     `json:"status" db:"status"`
	RoomID         *string    `json:"room_id,omitempty" db:"room_id"`
	Preference     string     `json:"preference" db:"preference"`
	SocketID       *string    `json:"-" db:"socket_id"`
	LastActivityAt time.Time  `json:"last_activity_at" db:"last_activity_at"`
	LastTypingAt   *time.Time `json:"last_typing_at,omitempty" db:"last_typing_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// InRoom reports whether this presence currently authorizes the given room.
func (p *UserPresence) InRoom(roomID string) bool {
	return p.Status == StatusChatting && p.RoomID != nil && *p.RoomID == roomID
}

// TypingFresh reports whether the typing timestamp is recent enough to show
// a typing indicator.
func (p *UserPresence) TypingFresh(window time.Duration, now time.Time) bool {
	if p.LastTypingAt == nil {
		return false
	}
	return now.Sub(*p.LastTypingAt) <= window
}

// DeriveRoomID builds the room id for a pair of users. It is symmetric and
// deterministic, so either member can recompute it independently: the id is
// the sorted pair of user ids joined with ":". There is no rooms table; a
// room exists exactly while both members' presence rows carry this id.
func DeriveRoomID(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if y < x {
		x, y = y, x
	}
	return x + ":" + y
}

// RoomMemberIDs parses both member ids back out of a derived room id.
func RoomMemberIDs(roomID string) ([]uuid.UUID, bool) {
	parts := strings.SplitN(roomID, ":", 2)
	if len(parts) != 2 {
		return nil, false
	}
	first, err := uuid.Parse(parts[0])
	if err != nil {
		return nil, false
	}
	second, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, false
	}
	return []uuid.UUID{first, second}, true
}

// RoomPartnerID returns the other member of a derived room id.
func RoomPartnerID(roomID string, self uuid.UUID) (uuid.UUID, bool) {
	members, ok := RoomMemberIDs(roomID)
	if !ok {
		return uuid.Nil, false
	}
	switch self {
	case members[0]:
		return members[1], true
	case members[1]:
		return members[0], true
	}
	return uuid.Nil, false
}

type JoinQueueRequest struct {
	Preference string `json:"preference,omitempty" validate:"omitempty,oneof=same opposite both"`
}

type TypingRequest struct {
	Typing *bool `json:"typing,omitempty"`
}

type MatchStatusResponse struct {
	Status    string    `json:"status"`
	RoomID    string    `json:"room_id,omitempty"`
	PartnerID uuid.UUID `json:"partner_id,omitzero"`
}
