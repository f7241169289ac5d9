package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/clocktower-engine/pkg/engine"
	"github.com/jwebster45206/clocktower-engine/pkg/queue"
)

// Enqueues a start-game action directly onto the actions queue, bypassing
// the API. Useful for poking a locally running worker.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <game-id>\n", os.Args[0])
		os.Exit(1)
	}

	gameID, err := uuid.Parse(os.Args[1])
	if err != nil {
		log.Fatal("Invalid game ID:", err)
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatal("Failed to parse Redis URL:", err)
	}
	client := redis.NewClient(redisOpts)
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	fmt.Println("Connected to Redis successfully!")

	req := queue.NewRequest(gameID, engine.Action{Type: engine.ActionStartGame})
	data, err := req.ToJSON()
	if err != nil {
		log.Fatal("Failed to marshal request:", err)
	}

	if err := client.RPush(ctx, "actions", data).Err(); err != nil {
		log.Fatal("Failed to enqueue action:", err)
	}

	fmt.Printf("Enqueued start-game action: %s\n", req.RequestID)

	depth, err := client.LLen(ctx, "actions").Result()
	if err != nil {
		log.Fatal("Failed to get queue depth:", err)
	}
	fmt.Printf("Queue depth: %d\n", depth)
}
