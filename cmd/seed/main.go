package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/brandpulse/mentions-bot/internal/config"
	"github.com/brandpulse/mentions-bot/internal/models"
	"github.com/brandpulse/mentions-bot/internal/store"
)

// seed registers a keyword job (and optionally a credential) for a user in
// the local database, for manual testing of the pipeline.
func main() {
	userID := flag.String("user", "", "user id to seed")
	keyword := flag.String("keyword", "", "keyword to monitor")
	frequency := flag.Int("frequency", 24, "search frequency in hours")
	accessToken := flag.String("access-token", "", "optional OAuth access token")
	refreshToken := flag.String("refresh-token", "", "optional OAuth refresh token")
	username := flag.String("username", "", "optional external account username")
	flag.Parse()

	if *userID == "" || *keyword == "" {
		log.Fatal("usage: seed -user <id> -keyword <term> [-frequency h] [-access-token t -refresh-token t -username u]")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := store.NewSQLite(cfg.DatabasePath, cfg.ContentMaxLength)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	job := &models.KeywordJob{
		UserID:          *userID,
		Keyword:         *keyword,
		Active:          true,
		SearchFrequency: *frequency,
		NextSearchAt:    time.Now().UTC(),
	}
	if err := db.CreateJob(ctx, job); err != nil {
		log.Fatalf("Failed to create keyword job: %v", err)
	}
	fmt.Printf("Created keyword job %d: %q for user %s (every %dh)\n",
		job.ID, job.Keyword, job.UserID, job.SearchFrequency)

	if *accessToken != "" {
		cred := &models.Credential{
			UserID:       *userID,
			AccessToken:  *accessToken,
			RefreshToken: *refreshToken,
			ExpiresAt:    time.Now().Add(time.Hour),
			Username:     *username,
		}
		if err := db.UpsertCredential(ctx, cred); err != nil {
			log.Fatalf("Failed to store credential: %v", err)
		}
		fmt.Printf("Stored credential for user %s\n", *userID)
	}
}
