package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/andywolf/crashreporter/internal/cli"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Setup context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.ExecuteContext(ctx); err != nil {
		log.Printf("crashreporter: %v", err)
		cancel()
		os.Exit(1)
	}
}
