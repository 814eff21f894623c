package controllers

import (
	"log"

	"github.com/driftchat/drift-backend/app/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// LeaveRoom ends the caller's current chat or search and returns them to the
// idle online state. Cancelling a pending search uses the same call.
func LeaveRoom(c *fiber.Ctx) error {
	userID, err := authedUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	if err := Presence.EnsurePresence(userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update presence"})
	}
	endSession(userID, models.StatusOnline)

	return c.Status(fiber.StatusOK).JSON(models.MatchStatusResponse{Status: models.StatusOnline})
}

// endSession resets the leaver's presence and notifies the partner. Only the
// leaver is transitioned here; the partner cleans itself up once it observes
// the event or, on the pull path, its next poll reporting the partner gone.
func endSession(userID uuid.UUID, nextStatus string) {
	pres, err := Presence.GetPresence(userID)
	if err != nil {
		return
	}

	var partnerID uuid.UUID
	var roomID string
	if pres.Status == models.StatusChatting && pres.RoomID != nil {
		roomID = *pres.RoomID
		partnerID, _ = models.RoomPartnerID(roomID, userID)
	}

	if nextStatus == models.StatusOffline {
		err = Presence.ForceOffline(userID)
	} else {
		err = Presence.ResetToOnline(userID)
	}
	if err != nil {
		log.Printf("event=session_end_error user=%s error=%v", userID, err)
		return
	}
	log.Printf("event=session_end user=%s next=%s room=%s", userID, nextStatus, roomID)

	if partnerID != uuid.Nil {
		PublishEvent(models.RealtimeEvent{
			Event:   models.EventPartnerDisconnected,
			RoomID:  roomID,
			Targets: []uuid.UUID{partnerID},
		})
	}
}
