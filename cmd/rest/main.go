package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-conversations-be/internal/bootstrap"
	"ai-conversations-be/internal/config"
	"ai-conversations-be/internal/server"
	"ai-conversations-be/internal/tracer"
	"ai-conversations-be/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	srv := server.New(cfg, container)

	// flush open conversations before the process exits, so no audio is lost
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Println("Shutting down, closing open conversations...")
		container.Shutdown()
		_ = srv.Shutdown()
	}()

	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}
