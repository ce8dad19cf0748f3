package main // Entry point package

import (
	"context"
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/virtual-waiting-room/internal/config"
	"github.com/iliyamo/virtual-waiting-room/internal/database"
	"github.com/iliyamo/virtual-waiting-room/internal/handler"
	"github.com/iliyamo/virtual-waiting-room/internal/queue"
	"github.com/iliyamo/virtual-waiting-room/internal/repository"
	"github.com/iliyamo/virtual-waiting-room/internal/router"
	"github.com/iliyamo/virtual-waiting-room/internal/scheduler"
	"github.com/iliyamo/virtual-waiting-room/internal/service"
)

func main() {
	_ = godotenv.Load() // optional .env; real deployments set the environment directly

	cfg := config.Load()
	schedCfg := config.LoadSchedulerConfig()

	// Redis holds every wait and proceed set; without it there is no queue.
	rdb, err := config.NewRedisClient()
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	queues := repository.NewUserQueueRepo(rdb)

	// The audit trail is optional: if the database is not configured (or
	// not reachable) the engine runs without it.
	var audit *repository.AuditRepo
	if cfg.AuditEnabled() {
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Printf("audit db unavailable, trail disabled: %v", err)
		} else if err := database.EnsureSchema(context.Background(), db); err != nil {
			log.Printf("audit schema setup failed, trail disabled: %v", err)
		} else {
			audit = repository.NewAuditRepo(db)
		}
	}

	svc := service.NewAdmissionService(queues, audit, cfg.EventsEnabled)

	// Background admission-event consumer (writes logs/admission.log).
	if cfg.ConsumerOn {
		go func() {
			if err := queue.StartAdmissionConsumer(); err != nil {
				log.Printf("admission consumer stopped: %v", err)
			}
		}()
	}

	// The promotion scheduler: one goroutine, fixed-delay cadence. The
	// enabled flag only gates the tick body, so the loop always runs.
	go scheduler.New(svc, schedCfg).Run(context.Background())

	e := echo.New()
	e.Renderer = handler.NewRenderer()
	h := handler.NewUserQueueHandler(svc, audit)
	router.RegisterRoutes(e, h, cfg.AdminJWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, scheduler enabled=%v)", addr, cfg.Env, schedCfg.Enabled)

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
