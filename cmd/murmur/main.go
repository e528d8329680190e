// cmd/murmur/main.go
// Terminal client for a Murmur server
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"Murmur/internal/client"
	"Murmur/internal/core/feed"
	"Murmur/internal/core/posts"
	"Murmur/internal/core/session"
)

func main() {
	// A missing .env is fine
	_ = godotenv.Load()

	defaultServer := os.Getenv("MURMUR_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	serverURL := flag.String("server", defaultServer, "Murmur server base URL")
	verbose := flag.Bool("v", false, "log feed subscription details to stderr")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := session.NewTracker()
	api := client.New(*serverURL, tracker)

	store := feed.NewStore(client.NewLiveSource(*serverURL, logger), posts.ListQuery{}, logger)
	if err := store.Start(ctx); err != nil {
		// The store stays degraded; commands still work
		fmt.Fprintf(os.Stderr, "live feed unavailable: %v\n", err)
	}
	defer store.Unsubscribe()

	repl := client.NewREPL(api, store, os.Stdin, os.Stdout)
	if err := repl.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "murmur: %v\n", err)
		os.Exit(1)
	}
}
