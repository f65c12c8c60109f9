package summarize

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/inboxpilot/inboxpilot/internal/db/models"
	"github.com/inboxpilot/inboxpilot/internal/mail"
)

const emailSystemPrompt = "You are an AI assistant that analyzes emails and provides concise summaries, key points, and sentiment analysis."

// SummarizeEmail asks the model for a summary, key points, and sentiment
// for one message, returning a persistable summary row.
func (c *Client) SummarizeEmail(ctx context.Context, email mail.Email, userID string) (*models.EmailSummary, error) {
	content, err := c.complete(ctx, emailSystemPrompt, emailPrompt(email))
	if err != nil {
		return nil, err
	}

	analysis := ParseEmailAnalysis(content)
	return &models.EmailSummary{
		ID:        uuid.New().String(),
		EmailID:   email.ID,
		UserID:    userID,
		Summary:   analysis.Summary,
		KeyPoints: analysis.KeyPoints,
		Sentiment: analysis.Sentiment,
	}, nil
}

func emailPrompt(email mail.Email) string {
	return fmt.Sprintf(`Please analyze the following email and provide:
1. A concise summary
2. Key points
3. Overall sentiment (positive, negative, or neutral)

Email content:
%s`, email.Body)
}

// defaultWorkers bounds concurrent summarization calls per batch.
const defaultWorkers = 4

// EmailSource lists and decodes individual messages for a user.
type EmailSource interface {
	ListEmails(ctx context.Context, userID string, limit int64) ([]mail.Email, error)
}

// EmailSummarizer analyzes one message. *Client implements it; tests
// substitute fakes.
type EmailSummarizer interface {
	SummarizeEmail(ctx context.Context, email mail.Email, userID string) (*models.EmailSummary, error)
}

// EmailSummarySink persists email summaries.
type EmailSummarySink interface {
	Upsert(ctx context.Context, sum *models.EmailSummary) error
}

// ProcessedEmail pairs a fetched message with its stored analysis.
type ProcessedEmail struct {
	Email   mail.Email           `json:"email"`
	Summary *models.EmailSummary `json:"summary"`
}

// Processor runs the single-email pipeline: fetch, summarize, persist.
// Summarization fans out over a bounded worker pool; any failure fails
// the whole batch.
type Processor struct {
	source     EmailSource
	summarizer EmailSummarizer
	sink       EmailSummarySink
	workers    int
}

// NewProcessor creates an email processor. workers <= 0 means the
// default pool size.
func NewProcessor(source EmailSource, summarizer EmailSummarizer, sink EmailSummarySink, workers int) *Processor {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Processor{
		source:     source,
		summarizer: summarizer,
		sink:       sink,
		workers:    workers,
	}
}

// ProcessEmails fetches up to limit messages, summarizes and persists
// each, and returns the pairs in listing order.
func (p *Processor) ProcessEmails(ctx context.Context, userID string, limit int64) ([]ProcessedEmail, error) {
	emails, err := p.source.ListEmails(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	results := make([]ProcessedEmail, len(emails))
	idxCh := make(chan int)

	var mu sync.Mutex
	var firstErr error
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range idxCh {
				summary, err := p.summarizer.SummarizeEmail(ctx, emails[idx], userID)
				if err == nil {
					err = p.sink.Upsert(ctx, summary)
				}
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					continue
				}
				results[idx] = ProcessedEmail{Email: emails[idx], Summary: summary}
			}
		}()
	}

	for i := range emails {
		idxCh <- i
	}
	close(idxCh)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
