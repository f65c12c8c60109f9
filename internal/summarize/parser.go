package summarize

import (
	"strings"

	"github.com/inboxpilot/inboxpilot/internal/db/models"
)

// Defaults are the fallback values applied when the model's free-text
// answer names no recognizable urgency or action.
type Defaults struct {
	Urgency models.Urgency
	Action  models.SuggestedAction
}

// DefaultsFrom builds Defaults from configured strings, falling back to
// Low / Read Later when a value is empty or unrecognized.
func DefaultsFrom(urgency, action string) Defaults {
	d := Defaults{Urgency: models.UrgencyLow, Action: models.ActionReadLater}
	if u, ok := parseUrgency(urgency); ok {
		d.Urgency = u
	}
	if a, ok := parseAction(action); ok {
		d.Action = a
	}
	return d
}

// Analysis is the structured reading of a model response.
type Analysis struct {
	Summary string
	Urgency models.Urgency
	Action  models.SuggestedAction
}

// ParseAnalysis reads a free-text model response defensively. Lines
// carrying "urgency:" or "action:" markers are consumed for their
// values; everything else becomes the summary. Unrecognized values fall
// back to the configured defaults rather than failing.
func ParseAnalysis(text string, d Defaults) Analysis {
	a := Analysis{Urgency: d.Urgency, Action: d.Action}

	var summaryLines []string
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "urgency:"):
			if u, ok := parseUrgency(valueAfterColon(line)); ok {
				a.Urgency = u
			}
		case strings.Contains(lower, "action:"):
			if act, ok := parseAction(valueAfterColon(line)); ok {
				a.Action = act
			}
		default:
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				summaryLines = append(summaryLines, trimmed)
			}
		}
	}
	a.Summary = strings.Join(summaryLines, " ")
	return a
}

// EmailAnalysis is the structured reading of a single-email response.
type EmailAnalysis struct {
	Summary   string
	KeyPoints []string
	Sentiment models.Sentiment
}

// ParseEmailAnalysis reads a single-email model response. A "summary:"
// line supplies the summary, "key point" lines collect into KeyPoints,
// and a "sentiment:" line sets the tone. Anything unrecognized falls
// back to a neutral sentiment and empty fields rather than failing.
func ParseEmailAnalysis(text string) EmailAnalysis {
	a := EmailAnalysis{Sentiment: models.SentimentNeutral}

	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "key point"):
			if v := valueAfterColon(line); v != "" {
				a.KeyPoints = append(a.KeyPoints, v)
			}
		case strings.Contains(lower, "summary:"):
			if a.Summary == "" {
				a.Summary = valueAfterColon(line)
			}
		case strings.Contains(lower, "sentiment:"):
			if s, ok := parseSentiment(valueAfterColon(line)); ok {
				a.Sentiment = s
			}
		}
	}
	return a
}

func parseSentiment(v string) (models.Sentiment, bool) {
	switch strings.ToLower(strings.Trim(v, " .*")) {
	case "positive":
		return models.SentimentPositive, true
	case "negative":
		return models.SentimentNegative, true
	case "neutral":
		return models.SentimentNeutral, true
	}
	return "", false
}

func valueAfterColon(line string) string {
	_, after, ok := strings.Cut(line, ":")
	if !ok {
		return ""
	}
	return strings.TrimSpace(after)
}

func parseUrgency(v string) (models.Urgency, bool) {
	switch strings.ToLower(strings.Trim(v, " .*")) {
	case "low":
		return models.UrgencyLow, true
	case "medium":
		return models.UrgencyMedium, true
	case "high":
		return models.UrgencyHigh, true
	}
	return "", false
}

func parseAction(v string) (models.SuggestedAction, bool) {
	switch strings.ToLower(strings.Trim(v, " .*")) {
	case "reply":
		return models.ActionReply, true
	case "follow up", "follow-up", "followup":
		return models.ActionFollowUp, true
	case "read later":
		return models.ActionReadLater, true
	case "archive":
		return models.ActionArchive, true
	case "forward":
		return models.ActionForward, true
	}
	return "", false
}
