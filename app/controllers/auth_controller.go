package controllers

import (
	"log"

	"github.com/driftchat/drift-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// GuestToken issues an anonymous identity. Real credential verification is
// an external concern; anyone may mint a guest id and chat with it.
func GuestToken(c *fiber.Ctx) error {
	userID, token, err := utils.GenerateGuestToken()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to issue guest token"})
	}

	if err := Presence.EnsurePresence(userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create presence"})
	}

	log.Printf("event=guest_created user=%s", userID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user_id": userID, "token": token})
}
