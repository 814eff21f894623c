package routes

import (
	"github.com/driftchat/drift-backend/app/controllers"
	"github.com/driftchat/drift-backend/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func RegisterChatRoutes(app *fiber.App) {
	// The live channel authenticates via its token query param, so it is
	// mounted before the bearer-token group.
	app.Get("/chat/ws", websocket.New(func(c *websocket.Conn) {
		controllers.WsHandler(c)
	}))

	chat := app.Group("/chat", middleware.JWTProtected())
	chat.Post("/queue", controllers.JoinQueue)
	chat.Get("/match", controllers.CheckMatch)
	chat.Post("/messages", controllers.PostMessage)
	chat.Get("/messages", controllers.GetRoomMessages)
	chat.Delete("/messages/:id", controllers.UnsendMessage)
	chat.Get("/updates", controllers.PollUpdates)
	chat.Post("/typing", controllers.SetTyping)
	chat.Post("/leave", controllers.LeaveRoom)
}
