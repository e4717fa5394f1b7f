package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"crm-api/internal/cache"
	"crm-api/internal/config"
	"crm-api/internal/database"
	"crm-api/internal/event"
	"crm-api/internal/handler"
	"crm-api/internal/logger"
	"crm-api/internal/queue"
	"crm-api/internal/repository"
	"crm-api/internal/router"
	"crm-api/internal/service"
	"crm-api/internal/token"
	"crm-api/internal/worker"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env always wins

	cfg := config.Load()

	zl, flush := logger.New(cfg.Env)
	defer flush()

	// Fail fast: the store and the cache/queue backend are hard
	// dependencies, a process that cannot reach them must not serve.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()

	host, err := service.NewCloudinaryHost(cfg.CloudName, cfg.CloudAPIKey, cfg.CloudAPISecret)
	if err != nil {
		log.Fatalf("image host init: %v", err)
	}

	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	tokenSvc := token.New(cfg.AccessSecret, cfg.RefreshSecret,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour)
	cacheStore := cache.New(rdb, zl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Audit event stream is optional: without a broker URL events go
	// nowhere and the consumer never starts.
	var events event.Sink = event.Nop{}
	if cfg.AMQPURL != "" {
		events = event.NewPublisher(cfg.AMQPURL, zl)
		go event.StartAuditConsumer(ctx, cfg.AMQPURL, zl)
	}

	processor := &worker.ImageProcessor{
		Host:   host,
		Users:  userRepo,
		Events: events,
		Log:    zl,
	}
	broker := queue.NewRedisBroker(rdb)
	primary, retry := worker.NewImageWorkers(broker, processor, zl)

	go primary.Run(ctx)
	go retry.Run(ctx)

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo, tokenSvc, cacheStore, events)
	userHandler := handler.NewUserHandler(cfg, userRepo, roleRepo, cacheStore, primary, host, zl)
	roleHandler := handler.NewRoleHandler(roleRepo, cacheStore)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, authHandler, userHandler, roleHandler, tokenSvc, tokenRepo)

	addr := ":" + cfg.Port
	zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
