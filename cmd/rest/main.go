package main

import (
	"context"
	"log"

	"voicevibe-be/internal/bootstrap"
	"voicevibe-be/internal/config"
	"voicevibe-be/internal/server"
	"voicevibe-be/internal/tracer"
	"voicevibe-be/pkg/database"
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
	defer container.Logger.Sync()

	srv := server.New(cfg, container)

	log.Fatal(srv.Run())
}
