// Package digest assembles and delivers periodic summary digests across
// all known users, isolating per-user failures.
package digest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/inboxpilot/inboxpilot/internal/db/models"
	"github.com/inboxpilot/inboxpilot/internal/errs"
)

// Group is one urgency bucket of a digest, in presentation order.
type Group struct {
	Urgency   models.Urgency
	Summaries []models.ThreadSummary
}

// Deliverer sends an assembled digest to a recipient.
type Deliverer interface {
	Send(ctx context.Context, toEmail string, groups []Group) error
}

const (
	resendBaseURL = "https://api.resend.com"
	digestSubject = "Your Daily Email Digest"
)

// ResendSender delivers digests through the Resend transactional email API.
type ResendSender struct {
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
}

// NewResendSender creates a digest sender. baseURL is overridable for tests;
// empty means the Resend production endpoint.
func NewResendSender(apiKey, from, baseURL string) *ResendSender {
	if baseURL == "" {
		baseURL = resendBaseURL
	}
	return &ResendSender{
		apiKey:     apiKey,
		from:       from,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type resendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send posts the digest email.
func (s *ResendSender) Send(ctx context.Context, toEmail string, groups []Group) error {
	body, err := json.Marshal(resendRequest{
		From:    s.from,
		To:      toEmail,
		Subject: digestSubject,
		HTML:    digestHTML(groups),
	})
	if err != nil {
		return errs.Wrap(errs.KindProvider, err, "encode digest email")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return errs.Wrap(errs.KindProvider, err, "build digest request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errs.Wrap(errs.KindProvider, err, "send digest to %s", toEmail)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errs.Providerf("digest delivery returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func digestHTML(groups []Group) string {
	var b strings.Builder
	b.WriteString("<h1>Your Daily Email Digest</h1>\n")
	b.WriteString("<p>Here are your most urgent emails that need attention:</p>\n")

	for _, g := range groups {
		fmt.Fprintf(&b, "<h2>%s Priority</h2>\n", g.Urgency)
		for _, s := range g.Summaries {
			b.WriteString(`<div style="margin-bottom: 20px; padding: 15px; border: 1px solid #eee; border-radius: 5px;">` + "\n")
			fmt.Fprintf(&b, "<h3>%s</h3>\n", html.EscapeString(s.Subject))
			fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(s.Summary))
			fmt.Fprintf(&b, "<div><strong>Suggested Action:</strong> %s</div>\n", s.SuggestedAction)
			b.WriteString("</div>\n")
		}
	}

	b.WriteString(`<p style="color: #666;">This is an automated digest from your AI Email Assistant.</p>`)
	return b.String()
}
