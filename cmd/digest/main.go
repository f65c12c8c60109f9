// Command digest runs one daily digest batch and exits. Individual user
// failures are logged and swallowed; only a failure to enumerate users
// fails the run.
package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/inboxpilot/inboxpilot/internal/config"
	"github.com/inboxpilot/inboxpilot/internal/db"
	"github.com/inboxpilot/inboxpilot/internal/digest"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	tokens := db.NewTokenStore(database)
	summaries := db.NewSummaryStore(database)
	sender := digest.NewResendSender(cfg.Resend.APIKey, cfg.Resend.From, "")
	orchestrator := digest.NewOrchestrator(tokens, summaries, sender, cfg.Digest.MaxItems)

	results, err := orchestrator.RunDailyDigests(context.Background())
	if err != nil {
		log.Fatalf("Daily digest run failed: %v", err)
	}

	var delivered, skipped, failed int
	for _, res := range results {
		switch {
		case res.Err != nil:
			failed++
		case res.Delivered:
			delivered++
		default:
			skipped++
		}
	}
	log.Printf("Daily digests complete: %d delivered, %d skipped, %d failed", delivered, skipped, failed)
}
