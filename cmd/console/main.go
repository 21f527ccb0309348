package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/garlic-tiger/internal/config"
	"github.com/jwebster45206/garlic-tiger/internal/console"
)

func main() {
	baseURL := config.GetEnv("API_BASE_URL", "http://localhost:8080")
	client := console.NewClient(baseURL, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !client.Ping(ctx) {
		fmt.Fprintf(os.Stderr, "Could not connect to API at %s. Please ensure the API is running.\nTry: docker-compose up -d\n", baseURL)
		os.Exit(1)
	}

	p := tea.NewProgram(console.NewModel(client), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
