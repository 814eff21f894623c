package routes

import (
	"github.com/driftchat/drift-backend/app/controllers"
	"github.com/gofiber/fiber/v2"
)

func RegisterAuthRoutes(app *fiber.App) {
	auth := app.Group("/auth")
	auth.Post("/guest", controllers.GuestToken)
}
