package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inboxpilot/inboxpilot/internal/auth"
	"github.com/inboxpilot/inboxpilot/internal/db"
	"github.com/inboxpilot/inboxpilot/internal/db/models"
	"github.com/inboxpilot/inboxpilot/internal/digest"
	"github.com/inboxpilot/inboxpilot/internal/errs"
	"github.com/inboxpilot/inboxpilot/internal/mail"
	"github.com/inboxpilot/inboxpilot/internal/mailbox"
	"github.com/inboxpilot/inboxpilot/internal/summarize"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the core's error kinds to HTTP status codes.
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindAuth:
		return http.StatusUnauthorized
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// LoginHandler redirects the browser to the Google consent screen.
func LoginHandler(gmail *mailbox.Gmail) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, gmail.AuthURL("state-token"), http.StatusFound)
	}
}

// CallbackHandler finishes the OAuth flow: exchanges the code and stores
// the resulting token keyed by the account email.
func CallbackHandler(gmail *mailbox.Gmail, creds *auth.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			writeError(w, errs.Validationf("authorization code is required"))
			return
		}

		tok, email, err := gmail.ExchangeCode(r.Context(), code)
		if err != nil {
			writeError(w, err)
			return
		}
		stored, err := creds.SaveExchange(r.Context(), tok, email)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Authentication successful",
			"user":    map[string]string{"email": stored.Email, "userId": stored.UserID},
		})
	}
}

// ThreadsHandler returns the user's recent inbox threads.
func ThreadsHandler(fetcher *mail.Fetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		limit := queryInt(r, "maxResults", 10)

		threads, err := fetcher.ListThreads(r.Context(), userID, int64(limit))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, threads)
	}
}

// SummarizeThreadsHandler fetches the user's recent threads, summarizes
// each, and upserts the results.
func SummarizeThreadsHandler(fetcher *mail.Fetcher, summarizer *summarize.Client, summaries *db.SummaryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		limit := queryInt(r, "maxResults", 10)

		threads, err := fetcher.ListThreads(r.Context(), userID, int64(limit))
		if err != nil {
			writeError(w, err)
			return
		}

		results := make([]*models.ThreadSummary, 0, len(threads))
		for _, thread := range threads {
			summary, err := summarizer.SummarizeThread(r.Context(), thread, userID)
			if err != nil {
				writeError(w, err)
				return
			}
			if err := summaries.Upsert(r.Context(), summary); err != nil {
				writeError(w, err)
				return
			}
			results = append(results, summary)
		}
		writeJSON(w, http.StatusOK, results)
	}
}

// ProcessEmailsHandler fetches the user's recent individual messages,
// summarizes each through the processor's worker pool, and returns the
// email/summary pairs.
func ProcessEmailsHandler(processor *summarize.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		limit := queryInt(r, "maxResults", 10)

		processed, err := processor.ProcessEmails(r.Context(), userID, int64(limit))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, processed)
	}
}

// EmailSummariesHandler lists a user's stored single-email summaries.
func EmailSummariesHandler(summaries *db.EmailSummaryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := summaries.ForUser(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// SummariesHandler lists a user's stored thread summaries.
func SummariesHandler(summaries *db.SummaryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		out, err := summaries.ForUser(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// SummaryByIDHandler returns one summary.
func SummaryByIDHandler(summaries *db.SummaryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := summaries.ByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

type replyRequest struct {
	Message string `json:"message"`
}

// ReplyHandler sends a reply on a thread, then logs the reply and flips
// the thread's summary to Replied. Both side effects happen only after a
// confirmed send.
func ReplyHandler(composer *mail.Composer, replies *db.ReplyStore, summaries *db.SummaryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		threadID := chi.URLParam(r, "threadID")

		var req replyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errs.Validationf("invalid request body"))
			return
		}

		if err := composer.SendReply(r.Context(), userID, threadID, req.Message); err != nil {
			writeError(w, err)
			return
		}

		reply := &models.EmailReply{
			ThreadID: threadID,
			UserID:   userID,
			Message:  req.Message,
			SentAt:   time.Now(),
		}
		if err := replies.Append(r.Context(), reply); err != nil {
			log.Printf("reply sent but logging failed for thread %s: %v", threadID, err)
		}
		if err := summaries.MarkReplied(r.Context(), threadID, userID); err != nil {
			log.Printf("reply sent but summary update failed for thread %s: %v", threadID, err)
		}

		writeJSON(w, http.StatusOK, reply)
	}
}

// UserRepliesHandler lists the replies a user has sent.
func UserRepliesHandler(replies *db.ReplyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := replies.ForUser(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// ThreadRepliesHandler lists the replies logged for a thread.
func ThreadRepliesHandler(replies *db.ReplyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := replies.ForThread(r.Context(), chi.URLParam(r, "threadID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// LogoutHandler deletes the user's stored credentials.
func LogoutHandler(creds *auth.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := creds.Logout(r.Context(), chi.URLParam(r, "userID")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
	}
}

// DigestRunHandler triggers a digest run and reports per-user outcomes.
func DigestRunHandler(orchestrator *digest.Orchestrator) http.HandlerFunc {
	type userOutcome struct {
		UserID    string `json:"userId"`
		Delivered bool   `json:"delivered"`
		Error     string `json:"error,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := orchestrator.RunDailyDigests(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]userOutcome, 0, len(results))
		for _, res := range results {
			o := userOutcome{UserID: res.UserID, Delivered: res.Delivered}
			if res.Err != nil {
				o.Error = res.Err.Error()
			}
			out = append(out, o)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
