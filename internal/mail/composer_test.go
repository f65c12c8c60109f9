package mail

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/inboxpilot/inboxpilot/internal/errs"
	"github.com/inboxpilot/inboxpilot/internal/mailbox"
)

func replyTarget(headers ...mailbox.Header) *mailbox.Message {
	return &mailbox.Message{ID: "orig", Payload: &mailbox.Part{Headers: headers}}
}

func TestSendReply_EncodedPayload(t *testing.T) {
	const user = "alice@example.com"
	provider := &fakeProvider{
		threads: map[string]*mailbox.Thread{
			"thread-1": {ID: "thread-1", Messages: []*mailbox.Message{
				replyTarget(
					mailbox.Header{Name: "From", Value: "a@x.com"},
					mailbox.Header{Name: "Subject", Value: "Hello"},
					mailbox.Header{Name: "Message-ID", Value: "<m1>"},
				),
			}},
		},
	}
	composer := NewComposer(newTestCreds(t, user), provider)

	if err := composer.SendReply(context.Background(), user, "thread-1", "ok"); err != nil {
		t.Fatalf("SendReply: %v", err)
	}
	if len(provider.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(provider.sent))
	}
	sent := provider.sent[0]
	if sent.threadID != "thread-1" {
		t.Fatalf("expected reply attached to thread-1, got %s", sent.threadID)
	}

	// The raw field uses the URL-safe alphabet with padding stripped.
	if strings.ContainsAny(sent.raw, "+/=") {
		t.Fatalf("raw payload contains forbidden characters: %q", sent.raw)
	}

	decoded, err := base64.RawURLEncoding.DecodeString(sent.raw)
	if err != nil {
		t.Fatalf("decode raw payload: %v", err)
	}
	text := string(decoded)
	for _, want := range []string{
		"To: a@x.com",
		"Subject: Re: Hello",
		"Content-Type: text/plain; charset=UTF-8",
		"MIME-Version: 1.0",
		"In-Reply-To: <m1>",
		"References: <m1>",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("decoded message missing %q:\n%s", want, text)
		}
	}
	if !strings.HasSuffix(text, "\r\n\r\nok") {
		t.Fatalf("expected blank separator line then body, got:\n%q", text)
	}
}

func TestSendReply_RepliesToLastMessageInProviderOrder(t *testing.T) {
	const user = "alice@example.com"
	provider := &fakeProvider{
		threads: map[string]*mailbox.Thread{
			"thread-1": {ID: "thread-1", Messages: []*mailbox.Message{
				replyTarget(mailbox.Header{Name: "From", Value: "first@x.com"}),
				replyTarget(mailbox.Header{Name: "From", Value: "last@x.com"}),
			}},
		},
	}
	composer := NewComposer(newTestCreds(t, user), provider)

	if err := composer.SendReply(context.Background(), user, "thread-1", "ok"); err != nil {
		t.Fatalf("SendReply: %v", err)
	}

	decoded, _ := base64.RawURLEncoding.DecodeString(provider.sent[0].raw)
	if !strings.Contains(string(decoded), "To: last@x.com") {
		t.Fatalf("expected reply addressed to the last message's sender, got:\n%s", decoded)
	}
}

func TestBuildReply_ReferencesFallsBackToMessageID(t *testing.T) {
	withRefs := replyTarget(
		mailbox.Header{Name: "Message-ID", Value: "<m2>"},
		mailbox.Header{Name: "References", Value: "<m1> <m2>"},
	)
	if got := buildReply(withRefs, "x"); !strings.Contains(got, "References: <m1> <m2>") {
		t.Fatalf("expected original References carried over, got:\n%s", got)
	}

	withoutRefs := replyTarget(mailbox.Header{Name: "Message-ID", Value: "<m2>"})
	if got := buildReply(withoutRefs, "x"); !strings.Contains(got, "References: <m2>") {
		t.Fatalf("expected References to fall back to Message-ID, got:\n%s", got)
	}
}

func TestSendReply_EmptyThreadIsNotFound(t *testing.T) {
	const user = "alice@example.com"
	provider := &fakeProvider{
		threads: map[string]*mailbox.Thread{
			"empty": {ID: "empty"},
		},
	}
	composer := NewComposer(newTestCreds(t, user), provider)

	err := composer.SendReply(context.Background(), user, "empty", "ok")
	if !errs.Is(err, errs.KindNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if len(provider.sent) != 0 {
		t.Fatal("expected no send attempt on an empty thread")
	}
}

func TestSendReply_Validation(t *testing.T) {
	composer := NewComposer(newTestCreds(t, "alice@example.com"), &fakeProvider{})

	tests := []struct {
		name     string
		userID   string
		threadID string
		message  string
	}{
		{name: "missing user", userID: "", threadID: "t", message: "m"},
		{name: "missing thread", userID: "u", threadID: "", message: "m"},
		{name: "blank message", userID: "u", threadID: "t", message: "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := composer.SendReply(context.Background(), tt.userID, tt.threadID, tt.message)
			if !errs.Is(err, errs.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSendReply_TransmitFailurePropagates(t *testing.T) {
	const user = "alice@example.com"
	provider := &fakeProvider{
		threads: map[string]*mailbox.Thread{
			"thread-1": {ID: "thread-1", Messages: []*mailbox.Message{
				replyTarget(mailbox.Header{Name: "From", Value: "a@x.com"}),
			}},
		},
		sendErr: errs.Providerf("send failed"),
	}
	composer := NewComposer(newTestCreds(t, user), provider)

	err := composer.SendReply(context.Background(), user, "thread-1", "ok")
	if !errs.Is(err, errs.KindProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}
