package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type ConsoleConfig struct {
	APIBaseURL string
	Timeout    time.Duration
	Players    []string
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Storyteller console. Player names come from the command line, in seat
// order:
//
//	console ana ben cho dee eli
func main() {
	if len(os.Args) < 6 {
		fmt.Fprintf(os.Stderr, "Usage: %s <player> <player> <player> <player> <player> [player ...]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Names are seat order, clockwise. 5 to 15 players.\n")
		os.Exit(1)
	}

	players := make([]string, 0, len(os.Args)-1)
	for _, name := range os.Args[1:] {
		players = append(players, strings.TrimSpace(name))
	}

	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Timeout:    30 * time.Second,
		Players:    players,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(cfg, client),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
