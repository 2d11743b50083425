package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/gigconnect/backend/internal/config"
	"github.com/gigconnect/backend/internal/db"
	"github.com/gigconnect/backend/internal/directory"
	"github.com/gigconnect/backend/internal/handlers"
	"github.com/gigconnect/backend/internal/middleware"
	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/realtime"
	"github.com/gigconnect/backend/internal/service"
	"github.com/gigconnect/backend/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Gig{},
		&models.Conversation{},
		&models.Proposal{},
		&models.Message{},
	); err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Redis not reachable:", err)
	}
	notifier := realtime.NewRedisNotifier(rdb)

	convStore := store.NewConversationStore(gdb)
	msgStore := store.NewMessageStore(gdb)
	proposalStore := store.NewProposalStore(gdb)
	users := directory.NewUserDirectory(gdb)
	gigs := directory.NewGigDirectory(gdb)

	hub := realtime.NewHub(msgStore, convStore, notifier)

	negotiation := service.NewNegotiation(
		convStore, msgStore, proposalStore, users, gigs,
		service.BroadcastFunc(hub.Publish),
		notifier,
	)

	authH := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	convH := handlers.NewConversationHandler(negotiation)
	userH := handlers.NewUserHandler(users)
	gigH := handlers.NewGigHandler(gdb)
	wsH := handlers.NewWSHandler(hub, cfg.JWTSecret)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/gigs", gigH.ListPublic)
	api.Get("/gigs/:id", gigH.GetDetail)

	// protected (JWT from cookie)
	protected := api.Group("/",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/users/:id", userH.GetUser)
	protected.Post("/gigs",
		middleware.RequireRoles("freelancer"),
		gigH.Create,
	)

	protected.Get("/conversations", convH.GetConversations)
	protected.Post("/conversations", convH.StartNegotiation)
	protected.Get("/conversations/exists/:userId", convH.ConversationExists)
	protected.Get("/conversations/:id", convH.GetConversation)
	protected.Get("/conversations/:id/messages", convH.GetMessages)
	protected.Get("/conversations/:id/proposal", convH.GetLatestProposal)
	protected.Post("/conversations/:id/offers", convH.SubmitCounterOffer)
	protected.Patch("/conversations/:id/status", convH.UpdateStatus)

	// websocket channel; auth via query param token
	app.Get("/ws/chat", websocket.New(wsH.Handle))

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
