package main

import (
	"log"
	"os"

	"github.com/driftchat/drift-backend/pkg/database"
	"github.com/driftchat/drift-backend/pkg/routes"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"github.com/driftchat/drift-backend/app/controllers"
)

func main() {
	_ = godotenv.Load()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("drift backend")
	})

	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	controllers.Init(db)

	routes.RegisterAuthRoutes(app)
	routes.RegisterChatRoutes(app)

	controllers.StartMessageDispatcher()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8000"
	}
	log.Fatal(app.Listen(":" + port))
}
