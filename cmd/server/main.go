package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/smartshelter/api/internal/config"
	"github.com/smartshelter/api/internal/database"
	"github.com/smartshelter/api/internal/handler"
	"github.com/smartshelter/api/internal/importer"
	"github.com/smartshelter/api/internal/middleware"
	"github.com/smartshelter/api/internal/queue"
	"github.com/smartshelter/api/internal/repository"
	"github.com/smartshelter/api/internal/router"
	"github.com/smartshelter/api/internal/service"
	"github.com/smartshelter/api/internal/utils"
)

func main() {
	// .env is a development convenience; in production the variables come
	// from the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, database.Pool{
		MaxOpen:      cfg.DBMaxOpen,
		MaxIdle:      cfg.DBMaxIdle,
		ConnLifetime: time.Duration(cfg.DBConnLife) * time.Minute,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	cipher := utils.NewCipher(cfg.CipherKey)
	accounts := service.NewAccountService(db, cipher, cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTLMin, cfg.BcryptCost)
	devices := service.NewDeviceService(db, cfg.BcryptCost)

	rdb := config.NewRedisClient()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	router.Register(e,
		handler.NewAuthHandler(accounts),
		handler.NewDeviceUserHandler(devices),
		handler.NewMeasurementHandler(devices, repository.NewMeasurementRepo(db)),
		handler.NewShelterHandler(repository.NewShelterRepo(db), cipher),
		limiter,
		cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience,
	)

	// Background workers: the measurement event consumer and the pet import
	// loop. Both are resilient and log their own failures.
	go func() {
		if err := queue.StartMeasurementConsumer(); err != nil {
			log.Printf("measurement consumer stopped: %v", err)
		}
	}()
	if cfg.ImportEvery > 0 {
		imp := importer.New(db, accounts, importer.StaticSource(nil), time.Duration(cfg.ImportEvery)*time.Minute)
		go imp.Run(ctx)
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
