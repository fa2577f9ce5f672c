package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/queueup/waitlist/internal/broker"
	"github.com/queueup/waitlist/internal/config"
	"github.com/queueup/waitlist/internal/database"
	"github.com/queueup/waitlist/internal/handler"
	"github.com/queueup/waitlist/internal/repository"
	"github.com/queueup/waitlist/internal/router"
	"github.com/queueup/waitlist/internal/service"
	"github.com/queueup/waitlist/internal/worker"
)

func main() {
	// Load a .env file when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	// Pick the entry store.  The MySQL repo is the production backend; the
	// in-memory store runs demos and local development without a database.
	var store service.EntryStore
	switch cfg.StoreDriver {
	case "memory":
		store = repository.NewMemoryStore()
		log.Printf("using in-memory entry store; data will not survive restarts")
	default:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("database connect failed: %v", err)
		}
		if err := database.Migrate(context.Background(), db); err != nil {
			log.Fatalf("database migrate failed: %v", err)
		}
		store = repository.NewEntryRepo(db)
	}

	svc := service.NewWaitlistService(store, broker.NewPublisher())
	analytics := service.NewAnalyticsService(store)

	// Background sweeper auto-cancels customers who never answered a call.
	sweeper := worker.NewSweeper(svc, store, cfg.SweepInterval, cfg.CalledTimeout)
	go sweeper.Run(context.Background())

	// Broker consumer keeps the called-customer audit log.  It reconnects
	// forever on its own; a missing broker only costs notifications.
	go func() {
		if err := broker.StartCalledConsumer(); err != nil {
			log.Printf("called consumer stopped: %v", err)
		}
	}()

	q := handler.NewQueueHandler(svc)
	a := handler.NewAdminHandler(svc, analytics, cfg.AdminUser, cfg.AdminPasswordHash, cfg.JWTSecret, cfg.AccessTTLMin)

	e := echo.New()
	router.RegisterRoutes(e, q, a, cfg.JWTSecret, config.LoadRateLimitConfig(), config.NewRedisClient())

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreDriver)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
