package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"fixly/internal/config"
	"fixly/internal/database"
	"fixly/internal/handlers"
	"fixly/internal/routes"
	"fixly/internal/services"
	"fixly/internal/store"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Connect to database
	if err := database.Connect(); err != nil {
		log.Fatal("❌ Failed to connect to database:", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatal("❌ Failed to migrate database:", err)
	}
	log.Println("✅ Database connected and migrated successfully")

	// Wire services
	st := store.NewGormStore(database.DB)
	notifier := services.NewNotificationService(st, cfg.ResendAPIKey, cfg.FromEmail)
	paystack := services.NewPaystackClient(cfg.PaystackSecretKey, cfg.PaystackBaseURL, cfg.ProviderTimeout)
	settlement := services.NewSettlementService(st, paystack, notifier, cfg.ReleaseWindow)
	payments := services.NewPaymentService(st, paystack, notifier, settlement, cfg.CommissionRate)
	jobs := services.NewJobService(st, notifier)
	quotes := services.NewQuoteService(st, notifier)
	wallets := services.NewWalletService(st, paystack, notifier)
	webhooks := services.NewWebhookService(st, settlement, notifier, cfg.PaystackSecretKey)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:   "Fixly API v1.0",
		BodyLimit: 10 * 1024 * 1024,
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to Fixly API",
			"status":  "running",
			"version": "1.0",
		})
	})

	// Setup application routes
	routes.SetupRoutes(app, handlers.NewUserHandler(st))
	routes.SetupJobRoutes(app, handlers.NewJobHandler(jobs), handlers.NewQuoteHandler(quotes))
	routes.SetupPaymentRoutes(app, handlers.NewPaymentHandler(payments), handlers.NewWebhookHandler(webhooks))
	routes.SetupWalletRoutes(app, handlers.NewWalletHandler(wallets))
	routes.SetupAdminRoutes(app, handlers.NewAdminHandler(settlement, wallets))
	routes.SetupNotificationRoutes(app, handlers.NewNotificationHandler(st))

	// Periodic sweep that moves settled funds past their release window
	// from pending to available.
	go runReleaseSweep(settlement)

	log.Printf("🚀 Fixly server starting on http://localhost:%s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}

func runReleaseSweep(settlement *services.SettlementService) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		released, err := settlement.ProcessPendingReleases(ctx)
		cancel()
		if err != nil {
			log.Printf("release sweep failed: %v", err)
			continue
		}
		if released > 0 {
			log.Printf("release sweep promoted %d transaction(s)", released)
		}
	}
}
