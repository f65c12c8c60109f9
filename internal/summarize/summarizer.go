// Package summarize calls an OpenAI-compatible chat API to analyze email
// threads, reading the model's free-text answer with a defensive parser.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inboxpilot/inboxpilot/internal/db/models"
	"github.com/inboxpilot/inboxpilot/internal/errs"
	"github.com/inboxpilot/inboxpilot/internal/mail"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4"
)

const systemPrompt = "You are an AI assistant that analyzes email threads and provides concise summaries, urgency levels, and suggested actions."

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	defaults   Defaults
	httpClient *http.Client
}

// NewClient creates a summarization client. Empty model or baseURL fall
// back to the OpenAI defaults.
func NewClient(apiKey, model, baseURL string, defaults Defaults) *Client {
	if model == "" {
		model = defaultModel
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if defaults.Urgency == "" {
		defaults.Urgency = models.UrgencyLow
	}
	if defaults.Action == "" {
		defaults.Action = models.ActionReadLater
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		defaults:   defaults,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete runs one chat completion and returns the model's answer.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", errs.Wrap(errs.KindProvider, err, "encode summarize request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", errs.Wrap(errs.KindProvider, err, "build summarize request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.KindProvider, err, "call summarization API")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", errs.Providerf("summarization API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errs.Wrap(errs.KindProvider, err, "decode summarize response")
	}
	if len(parsed.Choices) == 0 {
		return "", errs.Providerf("summarization API returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// SummarizeThread asks the model for a summary, urgency, and suggested
// action for the thread, returning a persistable summary row.
func (c *Client) SummarizeThread(ctx context.Context, thread mail.EmailThread, userID string) (*models.ThreadSummary, error) {
	content, err := c.complete(ctx, systemPrompt, threadPrompt(thread))
	if err != nil {
		return nil, err
	}

	analysis := ParseAnalysis(content, c.defaults)
	return &models.ThreadSummary{
		ID:              uuid.New().String(),
		ThreadID:        thread.ID,
		UserID:          userID,
		Subject:         thread.Subject,
		Summary:         analysis.Summary,
		Urgency:         analysis.Urgency,
		SuggestedAction: analysis.Action,
	}, nil
}

// threadPrompt renders the thread for the model, newest message first to
// match the fetcher's ordering.
func threadPrompt(thread mail.EmailThread) string {
	var b strings.Builder
	for _, msg := range thread.Messages {
		kind := "(Original Message)"
		if msg.IsReply {
			kind = "(Reply)"
		}
		fmt.Fprintf(&b, "\nFrom: %s\nTo: %s\nDate: %s\nSubject: %s\n%s\n%s\n---",
			msg.From, msg.To, msg.Date.Format(time.RFC1123Z), msg.Subject, kind, msg.Body)
	}

	return fmt.Sprintf(`Please analyze this email thread and provide:
1. A concise two-sentence summary of the conversation
2. Urgency level (Low, Medium, or High)
3. Suggested action (Reply, Follow Up, Read Later, Archive, or Forward)

Consider:
- The tone and content of the messages
- Time sensitivity
- Whether it requires immediate attention
- If it's a one-time conversation or ongoing discussion

Email thread:
%s`, b.String())
}
