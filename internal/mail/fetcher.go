// Package mail implements the mailbox integration core: thread fetching
// with recursive body decoding, and threaded reply composition.
package mail

import (
	"context"
	"encoding/base64"
	"log"
	netmail "net/mail"
	"sort"
	"strings"
	"time"

	"github.com/inboxpilot/inboxpilot/internal/auth"
	"github.com/inboxpilot/inboxpilot/internal/errs"
	"github.com/inboxpilot/inboxpilot/internal/mailbox"
)

// inboxQuery restricts listings to inbox threads.
const inboxQuery = "in:inbox"

// EmailMessage is one decoded message. Immutable once fetched.
type EmailMessage struct {
	ID      string    `json:"id"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Date    time.Time `json:"date"`
	IsReply bool      `json:"isReply"`
}

// EmailThread is a decoded thread, messages newest first. Subject and
// LastMessageDate come from the newest message.
type EmailThread struct {
	ID              string         `json:"id"`
	Subject         string         `json:"subject"`
	Messages        []EmailMessage `json:"messages"`
	LastMessageDate time.Time      `json:"lastMessageDate"`
}

// Email is one decoded standalone message. Date carries the raw header
// value: single-email processing never orders by date, so it stays as
// the provider sent it.
type Email struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Snippet  string `json:"snippet"`
	Body     string `json:"body"`
	Date     string `json:"date"`
}

// Fetcher lists and decodes mailbox threads.
type Fetcher struct {
	creds    *auth.Store
	provider mailbox.Provider
}

// NewFetcher creates a thread fetcher.
func NewFetcher(creds *auth.Store, provider mailbox.Provider) *Fetcher {
	return &Fetcher{creds: creds, provider: provider}
}

// ListThreads returns up to limit inbox threads, ordered by last message
// date descending. Any provider error while listing or fetching aborts
// the whole call; a single malformed message is skipped, and a thread
// with no decodable messages contributes no entry.
func (f *Fetcher) ListThreads(ctx context.Context, userID string, limit int64) ([]EmailThread, error) {
	if userID == "" {
		return nil, errs.Validationf("user ID is required")
	}

	creds, err := f.creds.EnsureValid(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids, err := f.provider.ListThreadIDs(ctx, creds, limit, inboxQuery)
	if err != nil {
		return nil, err
	}

	// One round trip per thread, sequential: the provider is rate-limited.
	threads := make([]EmailThread, 0, len(ids))
	for _, id := range ids {
		raw, err := f.provider.GetThread(ctx, creds, id)
		if err != nil {
			return nil, err
		}
		if t, ok := buildThread(raw); ok {
			threads = append(threads, t)
		}
	}

	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].LastMessageDate.After(threads[j].LastMessageDate)
	})
	return threads, nil
}

// ListEmails returns up to limit individual messages in the provider's
// listing order. A message that fails to fetch or decode is skipped; a
// listing failure aborts the whole call.
func (f *Fetcher) ListEmails(ctx context.Context, userID string, limit int64) ([]Email, error) {
	if userID == "" {
		return nil, errs.Validationf("user ID is required")
	}

	creds, err := f.creds.EnsureValid(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids, err := f.provider.ListMessageIDs(ctx, creds, limit)
	if err != nil {
		return nil, err
	}

	emails := make([]Email, 0, len(ids))
	for _, id := range ids {
		raw, err := f.provider.GetMessage(ctx, creds, id)
		if err != nil {
			log.Printf("skipping unfetchable message %s: %v", id, err)
			continue
		}
		body, err := decodePart(raw.Payload)
		if err != nil {
			log.Printf("skipping undecodable message %s: %v", id, err)
			continue
		}
		emails = append(emails, Email{
			ID:       raw.ID,
			ThreadID: raw.ThreadID,
			From:     raw.Header("From"),
			To:       raw.Header("To"),
			Subject:  raw.Header("Subject"),
			Snippet:  raw.Snippet,
			Body:     body,
			Date:     raw.Header("Date"),
		})
	}
	return emails, nil
}

func buildThread(raw *mailbox.Thread) (EmailThread, bool) {
	msgs := make([]EmailMessage, 0, len(raw.Messages))
	for _, rm := range raw.Messages {
		em, err := buildMessage(rm)
		if err != nil {
			log.Printf("skipping malformed message %s in thread %s: %v", rm.ID, raw.ID, err)
			continue
		}
		msgs = append(msgs, em)
	}
	if len(msgs) == 0 {
		return EmailThread{}, false
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Date.After(msgs[j].Date)
	})
	return EmailThread{
		ID:              raw.ID,
		Subject:         msgs[0].Subject,
		Messages:        msgs,
		LastMessageDate: msgs[0].Date,
	}, true
}

func buildMessage(m *mailbox.Message) (EmailMessage, error) {
	date, err := parseDate(m.Header("Date"))
	if err != nil {
		return EmailMessage{}, err
	}
	body, err := decodePart(m.Payload)
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{
		ID:      m.ID,
		From:    m.Header("From"),
		To:      m.Header("To"),
		Subject: m.Header("Subject"),
		Body:    body,
		Date:    date,
		IsReply: m.HasHeader("In-Reply-To") || m.HasHeader("References"),
	}, nil
}

// decodePart walks the message-part tree. A leaf with inline data
// base64-decodes to text; a container joins its children's decoded text
// with a newline, no separator before or after the block; a part with
// neither decodes to the empty string.
func decodePart(p *mailbox.Part) (string, error) {
	if p == nil {
		return "", nil
	}
	if p.Data != "" {
		b, err := decodeBase64(p.Data)
		if err != nil {
			return "", errs.Wrap(errs.KindProvider, err, "decode message part")
		}
		return string(b), nil
	}
	if len(p.Parts) > 0 {
		texts := make([]string, 0, len(p.Parts))
		for _, child := range p.Parts {
			t, err := decodePart(child)
			if err != nil {
				return "", err
			}
			texts = append(texts, t)
		}
		return strings.Join(texts, "\n"), nil
	}
	return "", nil
}

// decodeBase64 accepts both the URL-safe alphabet Gmail emits and the
// standard one, padded or not.
func decodeBase64(s string) ([]byte, error) {
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

var extraDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
}

func parseDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, errs.Providerf("message has no Date header")
	}
	if t, err := netmail.ParseDate(v); err == nil {
		return t, nil
	}
	for _, layout := range extraDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errs.Providerf("unparseable message date %q", v)
}
