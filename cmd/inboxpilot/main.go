package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/inboxpilot/inboxpilot/internal/api"
	"github.com/inboxpilot/inboxpilot/internal/auth"
	"github.com/inboxpilot/inboxpilot/internal/config"
	"github.com/inboxpilot/inboxpilot/internal/db"
	"github.com/inboxpilot/inboxpilot/internal/digest"
	"github.com/inboxpilot/inboxpilot/internal/mail"
	"github.com/inboxpilot/inboxpilot/internal/mailbox"
	"github.com/inboxpilot/inboxpilot/internal/summarize"
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
	emailSummaries := db.NewEmailSummaryStore(database)
	replies := db.NewReplyStore(database)

	gmail := mailbox.NewGmail(mailbox.GmailCredentials{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
	})
	creds := auth.NewStore(tokens, gmail)

	summarizer := summarize.NewClient(
		cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL,
		summarize.DefaultsFrom(cfg.Digest.DefaultUrgency, cfg.Digest.DefaultAction),
	)
	fetcher := mail.NewFetcher(creds, gmail)
	processor := summarize.NewProcessor(fetcher, summarizer, emailSummaries, 0)
	sender := digest.NewResendSender(cfg.Resend.APIKey, cfg.Resend.From, "")
	orchestrator := digest.NewOrchestrator(tokens, summaries, sender, cfg.Digest.MaxItems)

	router := api.NewRouter(api.Deps{
		Gmail:          gmail,
		Creds:          creds,
		Fetcher:        fetcher,
		Composer:       mail.NewComposer(creds, gmail),
		Summarizer:     summarizer,
		Processor:      processor,
		Summaries:      summaries,
		EmailSummaries: emailSummaries,
		Replies:        replies,
		Orchestrator:   orchestrator,
	})

	log.Printf("🚀 inboxpilot listening on http://%s", cfg.Addr())
	if err := http.ListenAndServe(cfg.Addr(), router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
