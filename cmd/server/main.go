// Package main is the entry point for the API server. It wires the
// dependencies, starts the pending transfer sweep and serves HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transactx/internal/app"
	"transactx/internal/config"
	"transactx/internal/handlers"
	"transactx/internal/logging"
	"transactx/internal/middleware"
	"transactx/internal/repositories/cache"
	"transactx/internal/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()
	log := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("shutdown cleanup failed", "error", err)
		}
	}()

	if cfg.Sweep.Disabled {
		log.Info("pending transfer sweep disabled")
	} else {
		a.Scheduler.Start(ctx)
	}

	server := fiber.New(fiber.Config{
		AppName:      "TransactX",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	server.Use(recover.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))
	server.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(server, routes.Handlers{
		Health: handlers.NewHealthHandler(map[string]handlers.HealthCheck{
			"database": a.PingDB,
			"redis":    a.PingRedis,
		}),
		Admin:       handlers.NewAdminHandler(cfg.Auth, a.Scheduler, log),
		Transaction: handlers.NewTransactionHandler(a.Transactions, log),
		Wallet:      handlers.NewWalletHandler(a.Wallets, log),
		Auth:        middleware.NewAuthMiddleware(cfg.Auth.JWTSecret, log),
		Idempotency: middleware.Idempotency(cache.NewCacheService(a.Redis), cfg.IdempotencyTTL, log),
	})

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Warn("server shutdown failed", "error", err)
		}
	}()

	log.Info("listening", "port", cfg.Port, "env", cfg.Env)
	if err := server.Listen(":" + cfg.Port); err != nil {
		log.Error("server stopped", "error", err)
	}

	stop()
	a.Scheduler.Wait()
}
