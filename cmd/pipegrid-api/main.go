package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/pipegrid/pipegrid-api/internal/authz"
	"github.com/pipegrid/pipegrid-api/internal/config"
	"github.com/pipegrid/pipegrid-api/internal/database"
	"github.com/pipegrid/pipegrid-api/internal/handlers"
	authmw "github.com/pipegrid/pipegrid-api/internal/middleware"
	"github.com/pipegrid/pipegrid-api/internal/services"
	"github.com/pipegrid/pipegrid-api/internal/sse"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	perms := authz.NewEvaluator()

	identityService := services.NewIdentityService(cfg.JWTSecret)
	userService := services.NewUserService(db)
	quotaService := services.NewQuotaService(db)
	workspaceService := services.NewWorkspaceService(db, cfg.TrialPeriod)
	memberService := services.NewMemberService(db, quotaService, perms)
	subscriptionService := services.NewSubscriptionService(db, quotaService)
	contactService := services.NewContactService(db, workspaceService, quotaService, perms)
	dealService := services.NewDealService(db, workspaceService, quotaService, perms)
	activityService := services.NewActivityService(db, workspaceService, perms)
	billingService := services.NewBillingService(db, subscriptionService,
		services.NewPaddleProvider(cfg.Paddle.Secret),
		services.NewFondyProvider(cfg.Fondy.Secret),
		services.NewStripeProvider(cfg.Stripe.Secret),
	)

	hub := sse.NewHub()
	go hub.Run()

	userHandler := handlers.NewUserHandler(userService)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceService, memberService, perms)
	memberHandler := handlers.NewMemberHandler(memberService, hub, perms)
	contactHandler := handlers.NewContactHandler(contactService, memberService)
	dealHandler := handlers.NewDealHandler(dealService, memberService)
	activityHandler := handlers.NewActivityHandler(activityService, memberService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService, quotaService, memberService, hub, perms)
	webhookHandler := handlers.NewWebhookHandler(billingService)
	sseHandler := handlers.NewSSEHandler(hub, memberService)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	// Provider webhooks authenticate via signature, not bearer token.
	api.Post("/webhooks/:provider", webhookHandler.HandleIncoming)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	protected := api.Group("")
	protected.Use(authmw.Auth(identityService))

	protected.Get("/users/me", userHandler.Me)
	protected.Patch("/users/me", userHandler.Sync)

	protected.Get("/workspaces", workspaceHandler.List)
	protected.Post("/workspaces", workspaceHandler.Create)
	protected.Get("/workspaces/:workspaceId", workspaceHandler.Get)
	protected.Patch("/workspaces/:workspaceId", workspaceHandler.Update)
	protected.Delete("/workspaces/:workspaceId", workspaceHandler.Delete)

	protected.Get("/workspaces/:workspaceId/members", memberHandler.List)
	protected.Post("/workspaces/:workspaceId/members", memberHandler.Add)
	protected.Get("/workspaces/:workspaceId/members/roles", memberHandler.AssignableRoles)
	protected.Patch("/workspaces/:workspaceId/members/:userId/role", memberHandler.ChangeRole)
	protected.Patch("/workspaces/:workspaceId/members/:userId/status", memberHandler.SetStatus)
	protected.Delete("/workspaces/:workspaceId/members/:userId", memberHandler.Remove)

	protected.Get("/workspaces/:workspaceId/contacts", contactHandler.List)
	protected.Post("/workspaces/:workspaceId/contacts", contactHandler.Create)
	protected.Get("/workspaces/:workspaceId/contacts/:contactId", contactHandler.Get)
	protected.Patch("/workspaces/:workspaceId/contacts/:contactId", contactHandler.Update)
	protected.Delete("/workspaces/:workspaceId/contacts/:contactId", contactHandler.Delete)
	protected.Post("/workspaces/:workspaceId/contacts/:contactId/restore", contactHandler.Restore)

	protected.Get("/workspaces/:workspaceId/deals", dealHandler.List)
	protected.Post("/workspaces/:workspaceId/deals", dealHandler.Create)
	protected.Get("/workspaces/:workspaceId/deals/:dealId", dealHandler.Get)
	protected.Patch("/workspaces/:workspaceId/deals/:dealId", dealHandler.Update)
	protected.Delete("/workspaces/:workspaceId/deals/:dealId", dealHandler.Delete)
	protected.Post("/workspaces/:workspaceId/deals/:dealId/restore", dealHandler.Restore)

	protected.Get("/workspaces/:workspaceId/activities", activityHandler.List)
	protected.Post("/workspaces/:workspaceId/activities", activityHandler.Create)
	protected.Get("/workspaces/:workspaceId/activities/:activityId", activityHandler.Get)
	protected.Patch("/workspaces/:workspaceId/activities/:activityId", activityHandler.Update)
	protected.Delete("/workspaces/:workspaceId/activities/:activityId", activityHandler.Delete)

	protected.Get("/workspaces/:workspaceId/events", sseHandler.Connect)
	protected.Post("/sse/:clientId/subscribe/:workspaceId", sseHandler.Subscribe)
	protected.Post("/sse/:clientId/unsubscribe/:workspaceId", sseHandler.Unsubscribe)

	protected.Get("/workspaces/:workspaceId/subscription", subscriptionHandler.Get)
	protected.Post("/workspaces/:workspaceId/subscription/upgrade", subscriptionHandler.Upgrade)
	protected.Post("/workspaces/:workspaceId/subscription/downgrade", subscriptionHandler.Downgrade)
	protected.Post("/workspaces/:workspaceId/subscription/cancel", subscriptionHandler.Cancel)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}
