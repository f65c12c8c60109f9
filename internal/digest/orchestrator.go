package digest

import (
	"context"
	"log"
	"sort"

	"github.com/inboxpilot/inboxpilot/internal/db/models"
)

// maxDigestItems caps how many summaries one digest carries.
const maxDigestItems = 10

// UserSource enumerates users known to have stored tokens.
type UserSource interface {
	All(ctx context.Context) ([]models.UserToken, error)
}

// SummarySource reads one user's thread summaries.
type SummarySource interface {
	ForUser(ctx context.Context, userID string) ([]models.ThreadSummary, error)
}

// UserResult records the outcome of one user's digest attempt.
type UserResult struct {
	UserID    string
	Email     string
	Delivered bool
	Err       error
}

// Orchestrator runs the digest batch: one attempt per user per run, each
// user's failure isolated from the rest.
type Orchestrator struct {
	users     UserSource
	summaries SummarySource
	deliverer Deliverer
	maxItems  int
}

// NewOrchestrator creates a digest orchestrator. maxItems <= 0 means the
// default cap of 10.
func NewOrchestrator(users UserSource, summaries SummarySource, deliverer Deliverer, maxItems int) *Orchestrator {
	if maxItems <= 0 {
		maxItems = maxDigestItems
	}
	return &Orchestrator{
		users:     users,
		summaries: summaries,
		deliverer: deliverer,
		maxItems:  maxItems,
	}
}

// RunDailyDigests processes every known user sequentially. Failure to
// enumerate users fails the whole run; anything after that is recorded
// per user and never aborts the loop. The context is checked between
// users so a cancelled run stops at the next boundary.
func (o *Orchestrator) RunDailyDigests(ctx context.Context) ([]UserResult, error) {
	users, err := o.users.All(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]UserResult, 0, len(users))
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		delivered, err := o.processUser(ctx, user)
		if err != nil {
			log.Printf("digest failed for user %s: %v", user.UserID, err)
		}
		results = append(results, UserResult{
			UserID:    user.UserID,
			Email:     user.Email,
			Delivered: delivered,
			Err:       err,
		})
	}
	return results, nil
}

func (o *Orchestrator) processUser(ctx context.Context, user models.UserToken) (bool, error) {
	summaries, err := o.summaries.ForUser(ctx, user.UserID)
	if err != nil {
		return false, err
	}

	pending := make([]models.ThreadSummary, 0, len(summaries))
	for _, s := range summaries {
		if s.SuggestedAction != models.ActionReplied {
			pending = append(pending, s)
		}
	}
	if len(pending) == 0 {
		return false, nil
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Urgency.Rank() < pending[j].Urgency.Rank()
	})
	if len(pending) > o.maxItems {
		pending = pending[:o.maxItems]
	}

	if err := o.deliverer.Send(ctx, user.Email, groupByUrgency(pending)); err != nil {
		return false, err
	}
	return true, nil
}

// groupByUrgency buckets summaries for presentation, High first. Empty
// buckets are omitted.
func groupByUrgency(summaries []models.ThreadSummary) []Group {
	byUrgency := make(map[models.Urgency][]models.ThreadSummary)
	for _, s := range summaries {
		byUrgency[s.Urgency] = append(byUrgency[s.Urgency], s)
	}

	var groups []Group
	for _, u := range []models.Urgency{models.UrgencyHigh, models.UrgencyMedium, models.UrgencyLow} {
		if len(byUrgency[u]) > 0 {
			groups = append(groups, Group{Urgency: u, Summaries: byUrgency[u]})
		}
	}
	return groups
}
