package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"aquaflow-service/internal/app"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on system env vars")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := app.NewServer()
	go func() {
		if err := srv.Start(ctx); err != nil {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	// Block until SIGINT or SIGTERM, then cancel the root context so the
	// hub and dispatcher goroutines drain.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")
	cancel()
}
