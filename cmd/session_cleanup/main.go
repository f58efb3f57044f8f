package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"releasedesk/internal/database"
	"releasedesk/internal/domain/session"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := session.NewRepository(db).DeleteExpired(ctx, time.Now())
	if err != nil {
		log.Fatalf("cleanup sessions failed: %v", err)
	}

	log.Printf("session cleanup completed: sessions=%d", n)
}
