// Package mailbox defines the boundary to the mailbox provider: the raw
// wire shapes for threads and messages, and the Provider interface the
// core calls through. The Gmail implementation lives alongside; tests
// substitute fakes.
package mailbox

import (
	"context"
	"strings"

	"github.com/inboxpilot/inboxpilot/internal/db/models"
)

// Header is one name/value pair from a message's header block.
type Header struct {
	Name  string
	Value string
}

// Part is a node in a message's body structure: either a leaf carrying
// base64-encoded content in Data, or a container holding Parts. A part
// with neither decodes to the empty string.
type Part struct {
	MimeType string
	Headers  []Header
	Data     string // base64-encoded inline content, leaf parts only
	Parts    []*Part
}

// Message is one raw message as returned by the provider, headers on the
// top-level payload part.
type Message struct {
	ID       string
	ThreadID string
	Snippet  string
	Payload  *Part
}

// Header returns the value of the named header, matched case-insensitively.
// Absent headers resolve to the empty string.
func (m *Message) Header(name string) string {
	if m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// HasHeader reports whether the named header is present, regardless of value.
func (m *Message) HasHeader(name string) bool {
	if m.Payload == nil {
		return false
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return true
		}
	}
	return false
}

// Thread is a raw provider thread. Messages keep the provider's own
// ordering; callers impose their own.
type Thread struct {
	ID       string
	Messages []*Message
}

// Provider is the mailbox API surface the core consumes. Credentials are
// passed explicitly; the caller is responsible for ensuring they are
// valid first.
type Provider interface {
	// ListThreadIDs lists thread identifiers matching the query, capped
	// at limit.
	ListThreadIDs(ctx context.Context, creds *models.UserToken, limit int64, query string) ([]string, error)
	// GetThread fetches one thread with full message payloads.
	GetThread(ctx context.Context, creds *models.UserToken, threadID string) (*Thread, error)
	// ListMessageIDs lists individual message identifiers, newest first,
	// capped at limit.
	ListMessageIDs(ctx context.Context, creds *models.UserToken, limit int64) ([]string, error)
	// GetMessage fetches one message with its full payload.
	GetMessage(ctx context.Context, creds *models.UserToken, messageID string) (*Message, error)
	// SendRaw submits a base64url-encoded RFC-822 message, attached to
	// the given thread.
	SendRaw(ctx context.Context, creds *models.UserToken, raw, threadID string) error
}
