// Package api is the HTTP route layer over the mailbox core. It maps the
// core's error kinds onto status codes and carries no domain logic.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/inboxpilot/inboxpilot/internal/auth"
	"github.com/inboxpilot/inboxpilot/internal/db"
	"github.com/inboxpilot/inboxpilot/internal/digest"
	"github.com/inboxpilot/inboxpilot/internal/mail"
	"github.com/inboxpilot/inboxpilot/internal/mailbox"
	"github.com/inboxpilot/inboxpilot/internal/summarize"
)

// Deps collects the wired components the router exposes.
type Deps struct {
	Gmail          *mailbox.Gmail
	Creds          *auth.Store
	Fetcher        *mail.Fetcher
	Composer       *mail.Composer
	Summarizer     *summarize.Client
	Processor      *summarize.Processor
	Summaries      *db.SummaryStore
	EmailSummaries *db.EmailSummaryStore
	Replies        *db.ReplyStore
	Orchestrator   *digest.Orchestrator
}

// NewRouter builds the chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/auth/google/login", LoginHandler(d.Gmail))
	r.Get("/auth/google/callback", CallbackHandler(d.Gmail, d.Creds))

	r.Route("/api", func(r chi.Router) {
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/threads", ThreadsHandler(d.Fetcher))
			r.Get("/threads/summarize", SummarizeThreadsHandler(d.Fetcher, d.Summarizer, d.Summaries))
			r.Post("/threads/{threadID}/reply", ReplyHandler(d.Composer, d.Replies, d.Summaries))
			r.Get("/process", ProcessEmailsHandler(d.Processor))
			r.Get("/email-summaries", EmailSummariesHandler(d.EmailSummaries))
			r.Get("/summaries", SummariesHandler(d.Summaries))
			r.Get("/replies", UserRepliesHandler(d.Replies))
			r.Post("/logout", LogoutHandler(d.Creds))
		})

		r.Get("/threads/{threadID}/replies", ThreadRepliesHandler(d.Replies))
		r.Get("/summaries/{id}", SummaryByIDHandler(d.Summaries))
		r.Post("/digest/run", DigestRunHandler(d.Orchestrator))
	})

	return r
}
