// Command sweep runs one pending transfer sweep under the shared job lock and
// exits. It exits 1 when the sweep fails.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"transactx/internal/app"
	"transactx/internal/config"
	"transactx/internal/logging"
	"transactx/internal/services/sweeper"
)

func main() {
	os.Exit(run())
}

func run() int {
	config.LoadEnv()
	cfg := config.Load()
	log := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start", "error", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("cleanup failed", "error", err)
		}
	}()

	ran, err := a.Scheduler.RunOnce(ctx, sweeper.JobName)
	if err != nil {
		log.Error("sweep failed", "error", err)
		return 1
	}
	if !ran {
		log.Info("sweep already running elsewhere, nothing to do")
	}
	return 0
}
