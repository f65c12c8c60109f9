package mail

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/inboxpilot/inboxpilot/internal/auth"
	"github.com/inboxpilot/inboxpilot/internal/errs"
	"github.com/inboxpilot/inboxpilot/internal/mailbox"
)

// Composer builds and transmits threaded replies.
type Composer struct {
	creds    *auth.Store
	provider mailbox.Provider
}

// NewComposer creates a reply composer.
func NewComposer(creds *auth.Store, provider mailbox.Provider) *Composer {
	return &Composer{creds: creds, provider: provider}
}

// SendReply sends message as a reply on the given thread, addressed to
// the sender of the thread's last message in provider order. Reply
// logging and summary updates are the caller's responsibility, after a
// confirmed send.
func (c *Composer) SendReply(ctx context.Context, userID, threadID, message string) error {
	switch {
	case userID == "":
		return errs.Validationf("user ID is required")
	case threadID == "":
		return errs.Validationf("thread ID is required")
	case strings.TrimSpace(message) == "":
		return errs.Validationf("reply message is required")
	}

	creds, err := c.creds.EnsureValid(ctx, userID)
	if err != nil {
		return err
	}

	thread, err := c.provider.GetThread(ctx, creds, threadID)
	if err != nil {
		return err
	}
	if len(thread.Messages) == 0 {
		return errs.NotFoundf("thread %s has no messages", threadID)
	}

	last := thread.Messages[len(thread.Messages)-1]
	raw := encodeRaw(buildReply(last, message))
	return c.provider.SendRaw(ctx, creds, raw, threadID)
}

// buildReply assembles the RFC-822 header block and body for a reply to
// the given message.
func buildReply(original *mailbox.Message, message string) string {
	inReplyTo := original.Header("Message-ID")
	references := original.Header("References")
	if references == "" {
		references = inReplyTo
	}

	lines := []string{
		"To: " + original.Header("From"),
		"Subject: Re: " + original.Header("Subject"),
		"Content-Type: text/plain; charset=UTF-8",
		"MIME-Version: 1.0",
		"In-Reply-To: " + inReplyTo,
		"References: " + references,
		"",
		message,
	}
	return strings.TrimSpace(strings.Join(lines, "\r\n"))
}

// encodeRaw produces the provider's raw-message format: URL-safe base64
// with padding stripped.
func encodeRaw(msg string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(msg))
}
