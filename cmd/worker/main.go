package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-conversations-be/internal/bootstrap"
	"ai-conversations-be/internal/config"
	"ai-conversations-be/pkg/database"
)

func main() {
	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewWorkerContainer(gormDB, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	if err := container.Pool.Start(ctx); err != nil {
		log.Fatalf("Unable to start worker pool: %v", err)
	}
	log.Println("✅ Worker pool is running")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down worker pool...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	container.Shutdown(shutdownCtx)
}
