package summarize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/inboxpilot/inboxpilot/internal/db/models"
	"github.com/inboxpilot/inboxpilot/internal/errs"
	"github.com/inboxpilot/inboxpilot/internal/mail"
)

func testThread() mail.EmailThread {
	return mail.EmailThread{
		ID:      "thread-1",
		Subject: "Quarterly numbers",
		Messages: []mail.EmailMessage{
			{
				ID:      "m2",
				From:    "boss@x.com",
				To:      "alice@example.com",
				Subject: "Quarterly numbers",
				Body:    "Any update?",
				Date:    time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
				IsReply: true,
			},
			{
				ID:      "m1",
				From:    "alice@example.com",
				To:      "boss@x.com",
				Subject: "Quarterly numbers",
				Body:    "Working on it.",
				Date:    time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
			},
		},
		LastMessageDate: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestSummarizeThread(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"content": "Boss is chasing the quarterly numbers. Needs them soon.\nUrgency: High\nAction: Reply",
				}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("sk-test", "gpt-4", srv.URL, testDefaults)
	summary, err := client.SummarizeThread(context.Background(), testThread(), "alice@example.com")
	if err != nil {
		t.Fatalf("SummarizeThread: %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotBody["model"] != "gpt-4" {
		t.Fatalf("expected model gpt-4, got %v", gotBody["model"])
	}

	// Prompt carries the rendered thread.
	msgs := gotBody["messages"].([]any)
	userMsg := msgs[1].(map[string]any)["content"].(string)
	for _, want := range []string{"From: boss@x.com", "(Reply)", "Working on it."} {
		if !strings.Contains(userMsg, want) {
			t.Fatalf("prompt missing %q:\n%s", want, userMsg)
		}
	}

	if summary.ThreadID != "thread-1" || summary.UserID != "alice@example.com" {
		t.Fatalf("unexpected identity fields %+v", summary)
	}
	if summary.Subject != "Quarterly numbers" {
		t.Fatalf("expected thread subject carried over, got %q", summary.Subject)
	}
	if summary.Urgency != models.UrgencyHigh || summary.SuggestedAction != models.ActionReply {
		t.Fatalf("unexpected analysis %+v", summary)
	}
	if summary.ID == "" {
		t.Fatal("expected a generated summary ID")
	}
}

func TestSummarizeThread_APIErrorIsProviderKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient("sk-test", "", srv.URL, testDefaults)
	_, err := client.SummarizeThread(context.Background(), testThread(), "alice@example.com")
	if !errs.Is(err, errs.KindProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestSummarizeThread_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewClient("sk-test", "", srv.URL, testDefaults)
	_, err := client.SummarizeThread(context.Background(), testThread(), "alice@example.com")
	if !errs.Is(err, errs.KindProvider) {
		t.Fatalf("expected provider error for empty choices, got %v", err)
	}
}
