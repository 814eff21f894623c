package controllers

import (
	"database/sql"
	"time"

	"github.com/driftchat/drift-backend/app/models"
	"github.com/driftchat/drift-backend/app/queries"
	"github.com/driftchat/drift-backend/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = validator.New()

// authedUserID returns the caller's verified identity: the locals value set
// by the JWT middleware when present, otherwise parsed from the
// Authorization header.
func authedUserID(c *fiber.Ctx) (uuid.UUID, error) {
	if id, ok := c.Locals("user_id").(uuid.UUID); ok {
		return id, nil
	}
	return utils.ExtractUserIDFromHeader(c.Get("Authorization"))
}

// PresenceStore is the transactional presence repository. Status transitions
// go through these operations only; there is no raw read-then-write surface,
// so the find-and-claim step stays atomic no matter who calls it.
type PresenceStore interface {
	GetPresence(userID uuid.UUID) (models.UserPresence, error)
	EnsurePresence(userID uuid.UUID) error
	SetSearching(userID uuid.UUID, preference string) error
	ResetToOnline(userID uuid.UUID) error
	ForceOffline(userID uuid.UUID) error
	ClaimMatch(requesterID uuid.UUID, cutoff time.Time) (models.UserPresence, string, error)
	BindSocket(userID uuid.UUID, socketID string) error
	ClearSocket(userID uuid.UUID, socketID string) (bool, error)
	TouchActivity(userID uuid.UUID) error
	TouchTyping(userID uuid.UUID, typing bool) error
}

// MessageStore is the append-only message log.
type MessageStore interface {
	CreateMessage(m *models.Message) error
	GetMessageByID(id uuid.UUID) (models.Message, error)
	GetMessagesByRoom(roomID string, limit int) ([]models.Message, error)
	GetMessagesSince(roomID string, since time.Time) ([]models.Message, error)
	TombstoneMessage(id, senderID uuid.UUID) (models.Message, error)
}

// ConnRegistry is the push path's live-connection registry.
type ConnRegistry interface {
	IsConnected(userID uuid.UUID) bool
	Send(userID uuid.UUID, payload interface{}) error
}

var (
	Presence PresenceStore
	Messages MessageStore
	Registry ConnRegistry
	Matcher  *Matchmaker
)

// Init wires the controllers to the database-backed stores and the default
// notifier. Called once from main before routes are served.
func Init(db *sql.DB) {
	Presence = &queries.PresenceQueries{DB: db}
	Messages = &queries.MessageQueries{DB: db}
	Registry = utils.DefaultNotifier
	Matcher = NewMatchmaker(Presence, Registry)
}
