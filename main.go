package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"spiceexport/internal/catalog"
	"spiceexport/internal/config"
	"spiceexport/internal/handlers"
	"spiceexport/internal/metrics"
	"spiceexport/internal/middleware"
	"spiceexport/internal/notify"
	"spiceexport/internal/repositories"
	"spiceexport/internal/scheduler"
	"spiceexport/internal/services"
	"spiceexport/pkg/rabbitmq"
)

// application is the wired service with the resources that need closing.
type application struct {
	http      *fiber.App
	db        *gorm.DB
	auth      *services.AuthService
	reminders *services.ReminderService
	scheduler *scheduler.Scheduler
	closers   []func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	log.SetFormatter(&log.JSONFormatter{})
	log.WithField("config", cfg.String()).Info("Configuration loaded")

	app, err := newApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialise application: %v", err)
	}
	defer app.close()

	if err := app.scheduler.Start(); err != nil {
		log.Fatalf("Failed to start reminder scheduler: %v", err)
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Infof("Starting server on port %s", cfg.AppPort)
		if err := app.http.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Info("Shutting down server...")

	select {
	case <-app.scheduler.Stop().Done():
	case <-time.After(30 * time.Second):
		log.Warn("Reminder batch still running at shutdown")
	}
	if err := app.http.Shutdown(); err != nil {
		log.WithError(err).Error("Error during Fiber shutdown")
	}
	log.Info("Server gracefully stopped")
}

// newApp connects storage and transports and registers every route.
func newApp(cfg *config.Config) (*application, error) {
	db, err := repositories.OpenDatabase(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	app := &application{db: db}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	app.auth = services.NewAuthService(userRepo, cfg.JWTSecret)
	if err := app.auth.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return nil, err
	}

	// --- Notifications ---
	var deliverer notify.Notifier = notify.LogNotifier{}
	if cfg.SMTP.Host != "" {
		deliverer = notify.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		log.Warn("SMTP_HOST not set; notifications are only logged")
	}
	notifier := deliverer
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			app.close()
			return nil, err
		}
		app.closers = append(app.closers, mqClient.Close)
		if err := mqClient.ConsumeNotifications(notify.DeliveryHandler(deliverer)); err != nil {
			app.close()
			return nil, err
		}
		notifier = notify.NewQueueNotifier(mqClient)
	}

	// --- Services ---
	cat := catalog.Default()
	renderer := notify.NewRenderer(cfg.AdminNotifyEmail, cfg.ReminderLocation)
	orderService := services.NewOrderService(orderRepo, userRepo, cat, notifier, renderer, cfg.ReminderLocation)
	app.reminders = services.NewReminderService(orderRepo, userRepo, notifier, renderer, cfg.ReminderLocation)
	productService := services.NewProductService(cat)
	chatService := services.NewChatService(cat, cfg.AdminNotifyEmail)

	var locker scheduler.Locker
	if cfg.RedisAddr != "" {
		redisLocker := scheduler.NewRedisLocker(cfg.RedisAddr)
		app.closers = append(app.closers, redisLocker.Close)
		locker = redisLocker
	} else {
		log.Warn("REDIS_ADDR not set; reminder batch lock is local to this instance")
	}
	app.scheduler = scheduler.New(cfg.ReminderSchedule, cfg.ReminderLocation, app.reminders, locker)

	// --- Fiber App ---
	app.http = fiber.New(fiber.Config{AppName: "spiceexport"})
	app.http.Use(recover.New())
	app.http.Use(logger.New())

	app.http.Get("/health", app.health)
	app.http.Get("/metrics", metrics.Handler())

	apiV1 := app.http.Group("/api/v1")

	// Public routes
	handlers.NewAuthHandler(app.auth).RegisterRoutes(apiV1)
	handlers.NewProductHandler(productService).RegisterRoutes(apiV1)
	handlers.NewChatHandler(chatService).RegisterRoutes(apiV1)

	// Protected routes
	protected := apiV1.Group("", middleware.AuthRequired(app.auth))
	handlers.NewOrderHandler(orderService).RegisterRoutes(protected)
	handlers.NewReminderHandler(app.reminders).RegisterRoutes(protected)

	return app, nil
}

func (a *application) health(c *fiber.Ctx) error {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "degraded",
			"time":     time.Now().Format(time.RFC3339),
			"database": "unreachable",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": "connected",
	})
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.WithError(err).Warn("Error closing resource")
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
