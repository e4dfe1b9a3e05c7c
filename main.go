package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notevault/config"
	redisconn "notevault/config/cache"
	"notevault/config/database"
	"notevault/internal/cache"
	"notevault/pkg/logger"
	"notevault/router"
	"notevault/socket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Sugar.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.Logging.Level)
	defer logger.Log.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Sugar.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// The cache is best-effort: a nil client means every read is a miss and
	// the service keeps working against Postgres alone.
	var store cache.Store
	redisClient := redisconn.Connect(cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
		store = cache.NewRedisStore(redisClient)
	}

	hub := socket.NewHub()
	go hub.Run()

	srv := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: router.Setup(cfg, db, store, hub),
	}

	go func() {
		logger.Sugar.Infof("notevault listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar.Errorf("Shutdown error: %v", err)
	}
}
