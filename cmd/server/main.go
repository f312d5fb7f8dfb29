package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drivehub/backend/internal/cache"
	"github.com/drivehub/backend/internal/config"
	"github.com/drivehub/backend/internal/database"
	"github.com/drivehub/backend/internal/drive"
	"github.com/drivehub/backend/internal/handlers"
	"github.com/drivehub/backend/internal/middleware"
	"github.com/drivehub/backend/internal/services"
	"github.com/drivehub/backend/pkg/logger"
	"github.com/drivehub/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	store, err := cache.NewRedisStore(cfg.Redis)
	if err != nil {
		log.Fatalf("redis initialization failed: %v", err)
	}

	clients := drive.NewClientFactory(cfg.Google)
	thumbnailService := services.NewThumbnailService(store, cfg.Dashboard)
	dashboardService := services.NewDashboardService(store, thumbnailService, cfg.Dashboard)

	authHandler := handlers.NewAuthHandler(db, cfg.Google)
	dashboardHandler := handlers.NewDashboardHandler(clients, dashboardService, cfg.Dashboard.DefaultPageSize)
	thumbnailHandler := handlers.NewThumbnailHandler(thumbnailService)
	filesHandler := handlers.NewFilesHandler(clients, cfg.Dashboard.DefaultPageSize)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Get("/google", authMiddleware.RequireAuth, authHandler.GoogleConnect)
	authRoutes.Get("/google/callback", authHandler.GoogleCallback)

	api.Get("/dashboard", authMiddleware.RequireAuth, dashboardHandler.GetDashboard)

	// Thumbnail URLs are embedded in cached dashboard payloads and fetched
	// by <img> tags, so this route carries no auth header.
	api.Get("/thumbnail/:userId/:fileId", thumbnailHandler.GetThumbnail)

	fileRoutes := api.Group("/files", authMiddleware.RequireAuth)
	fileRoutes.Get("/", filesHandler.List)
	fileRoutes.Get("/starred", filesHandler.ListStarred)
	fileRoutes.Put("/:id/star", filesHandler.Star)
	fileRoutes.Put("/:id/trash", filesHandler.Trash)
	fileRoutes.Put("/:id/restore", filesHandler.Restore)
	fileRoutes.Delete("/:id", filesHandler.Delete)

	api.Post("/folders", authMiddleware.RequireAuth, filesHandler.CreateFolder)
	api.Get("/trash", authMiddleware.RequireAuth, filesHandler.ListTrash)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
