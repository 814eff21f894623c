package controllers

import (
	"log"
	"time"

	"github.com/driftchat/drift-backend/app/models"
	"github.com/driftchat/drift-backend/app/queries"
	"github.com/driftchat/drift-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const replySnippetMax = 80

// PostMessage creates a message on behalf of the sender and fans it out to
// the room. The sender's presence must reference the target room; stale or
// forged room ids are rejected before anything is written.
func PostMessage(c *fiber.Ctx) error {
	userID, err := authedUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	p := &models.CreateMessageRequest{}
	if err := c.BodyParser(p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := validate.Struct(p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := p.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	pres, err := Presence.GetPresence(userID)
	if err != nil || !pres.InRoom(p.RoomID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not a member of this room"})
	}

	now := time.Now()
	m := &models.Message{
		ID:          uuid.New(),
		RoomID:      p.RoomID,
		UserID:      userID,
		MessageType: p.MessageType,
		Text:        p.Text,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.FileURL != "" {
		m.FileURL = &p.FileURL
	}

	// Reply reference: denormalized at write time, never re-resolved. A bad
	// or cross-room reply id just drops the quote rather than failing the send.
	if p.ReplyToID != "" {
		if rid, err := uuid.Parse(p.ReplyToID); err == nil {
			if orig, err := Messages.GetMessageByID(rid); err == nil && orig.RoomID == p.RoomID {
				snippet := orig.Snippet(replySnippetMax)
				m.ReplyToID = &orig.ID
				m.ReplyToSnippet = &snippet
			}
		}
	}

	if err := Messages.CreateMessage(m); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create message"})
	}
	_ = Presence.TouchActivity(userID)

	PublishEvent(models.RealtimeEvent{
		Event:    models.EventMessage,
		RoomID:   m.RoomID,
		SenderID: userID.String(),
		Message:  m,
	})

	return c.Status(fiber.StatusCreated).JSON(m)
}

// PollUpdates is the pull path: everything in the room updated strictly
// after the "since" cursor, plus partner status and typing flag. It is a
// read-only snapshot apart from refreshing the caller's activity, so polling
// it every second forever is fine.
func PollUpdates(c *fiber.Ctx) error {
	userID, err := authedUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	roomID := c.Query("room_id")
	if roomID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "room_id required"})
	}
	since := time.Time{}
	if s := c.Query("since"); s != "" {
		since, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid since, use RFC3339Nano"})
		}
	}

	now := time.Now()
	resp := models.PollUpdatesResponse{
		Status:   models.StatusChatting,
		Messages: make([]models.Message, 0),
	}

	pres, err := Presence.GetPresence(userID)
	if err != nil || !pres.InRoom(roomID) {
		// Partner absence and ended rooms are a steady state on this path,
		// not an error.
		resp.Status = models.PartnerDisconnected
		return c.Status(fiber.StatusOK).JSON(resp)
	}
	_ = Presence.TouchActivity(userID)

	msgs, err := Messages.GetMessagesSince(roomID, since)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get messages"})
	}
	resp.Messages = msgs

	partnerID, ok := models.RoomPartnerID(roomID, userID)
	if !ok {
		resp.Status = models.PartnerDisconnected
		return c.Status(fiber.StatusOK).JSON(resp)
	}
	partner, err := Presence.GetPresence(partnerID)
	if err != nil || !partner.InRoom(roomID) {
		resp.Status = models.PartnerDisconnected
		return c.Status(fiber.StatusOK).JSON(resp)
	}
	resp.PartnerStatus = partner.Status
	resp.PartnerTyping = partner.TypingFresh(utils.EnvSeconds("TYPING_FRESH_SECONDS", 5), now)

	return c.Status(fiber.StatusOK).JSON(resp)
}

// GetRoomMessages returns the room history for a current member.
func GetRoomMessages(c *fiber.Ctx) error {
	userID, err := authedUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	roomID := c.Query("room_id")
	if roomID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "room_id required"})
	}

	pres, err := Presence.GetPresence(userID)
	if err != nil || !pres.InRoom(roomID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not a member of this room"})
	}

	limit := 100
	msgs, err := Messages.GetMessagesByRoom(roomID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get messages"})
	}
	return c.Status(fiber.StatusOK).JSON(msgs)
}

// SetTyping updates the caller's typing timestamp (pull-path form of the
// typing signal) and mirrors it to the partner's live channel if any.
func SetTyping(c *fiber.Ctx) error {
	userID, err := authedUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	req := &models.TypingRequest{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
	}
	typing := true
	if req.Typing != nil {
		typing = *req.Typing
	}

	if err := Presence.TouchTyping(userID, typing); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update presence"})
	}
	notifyPartnerTyping(userID, typing)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"typing": typing})
}

// UnsendMessage tombstones the caller's own message and broadcasts the
// deletion so both delivery paths converge on the tombstoned view.
func UnsendMessage(c *fiber.Ctx) error {
	userID, err := authedUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	mid, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid message id"})
	}

	orig, err := Messages.GetMessageByID(mid)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "message not found"})
	}
	if orig.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "only the sender can unsend a message"})
	}

	tomb, err := Messages.TombstoneMessage(mid, userID)
	if err != nil {
		if err == queries.ErrMessageNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "message not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete message"})
	}

	log.Printf("event=message_unsend message=%s user=%s room=%s", mid, userID, tomb.RoomID)
	PublishEvent(models.RealtimeEvent{
		Event:     models.EventMessageDeleted,
		RoomID:    tomb.RoomID,
		SenderID:  userID.String(),
		MessageID: tomb.ID.String(),
		Message:   &tomb,
	})

	return c.Status(fiber.StatusOK).JSON(tomb)
}

// notifyPartnerTyping pushes a typing event at the partner only; the sender
// already knows it is typing.
func notifyPartnerTyping(userID uuid.UUID, typing bool) {
	pres, err := Presence.GetPresence(userID)
	if err != nil || pres.Status != models.StatusChatting || pres.RoomID == nil {
		return
	}
	partnerID, ok := models.RoomPartnerID(*pres.RoomID, userID)
	if !ok {
		return
	}
	event := models.EventTyping
	if !typing {
		event = models.EventTypingStop
	}
	PublishEvent(models.RealtimeEvent{
		Event:    event,
		RoomID:   *pres.RoomID,
		SenderID: userID.String(),
		Targets:  []uuid.UUID{partnerID},
	})
}
