package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/clocktower-engine/internal/config"
	"github.com/jwebster45206/clocktower-engine/internal/logger"
	"github.com/jwebster45206/clocktower-engine/internal/services/queue"
	"github.com/jwebster45206/clocktower-engine/internal/storage"
	"github.com/jwebster45206/clocktower-engine/internal/worker"
	"github.com/jwebster45206/clocktower-engine/pkg/ability"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Clocktower Engine Worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL)

	queueClient, err := queue.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing queue client", "error", err)
		}
	}()

	actionQueue := queue.NewActionQueue(queueClient)
	log.Info("Queue service initialized successfully")

	storageService, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	if err != nil {
		log.Error("Failed to create storage service", "error", err)
		os.Exit(1)
	}
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := storageService.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage service initialized successfully")

	// The false-info policy drives what corrupt players are told. The
	// seed is configurable so a game can be replayed exactly.
	seed := cfg.PolicySeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	policy := ability.NewRandom(seed)
	log.Info("Ability policy initialized", "seed", seed)

	w := worker.New(actionQueue, storageService, queueClient.GetRedisClient(), policy, cfg.VoteWindow, log, os.Getenv("WORKER_ID"))

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("Worker started, waiting for actions...")

	<-quit
	log.Info("Worker shutdown signal received")

	w.Stop()

	// Give worker time to finish the current action
	time.Sleep(2 * time.Second)

	log.Info("Worker exited")
}
