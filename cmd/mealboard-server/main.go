package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mealboard/internal/auth"
	"mealboard/internal/config"
	"mealboard/internal/database"
	"mealboard/internal/metrics"
	"mealboard/internal/mutate"
	"mealboard/internal/notify"
	"mealboard/internal/server"
	"mealboard/internal/store"
	"mealboard/internal/stream"
)

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	metricsStore := metrics.NewStore(db.SQL)
	notifier := notify.New(metricsStore)
	interceptor := mutate.New(notifier, cfg.AllowDevOverride)
	if cfg.AllowDevOverride {
		log.Println("WARNING: dev ownership override is enabled")
	}

	authSvc := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	gateway := stream.NewGateway(notifier, interceptor)
	srv := server.New(store.New(db.SQL), authSvc, interceptor, gateway, metricsStore)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Router(),
	}

	go func() {
		log.Printf("Listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
