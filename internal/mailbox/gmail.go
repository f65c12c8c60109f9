package mailbox

import (
	"context"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/inboxpilot/inboxpilot/internal/db/models"
	"github.com/inboxpilot/inboxpilot/internal/errs"
)

// Scopes requested during the OAuth consent flow.
var Scopes = []string{
	gmail.GmailReadonlyScope,
	gmail.GmailModifyScope,
	gmail.GmailSendScope,
	"https://www.googleapis.com/auth/userinfo.email",
}

// Gmail implements Provider against the Gmail REST API.
type Gmail struct {
	config *oauth2.Config
}

// GmailCredentials holds the OAuth client registration.
type GmailCredentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// NewGmail creates a Gmail provider.
func NewGmail(creds GmailCredentials) *Gmail {
	return &Gmail{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Scopes:       Scopes,
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL returns the consent-screen URL for the login redirect.
func (g *Gmail) AuthURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeCode trades an authorization code for tokens and resolves the
// account's email address from the Gmail profile.
func (g *Gmail) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, string, error) {
	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, "", errs.Wrap(errs.KindAuth, err, "exchange authorization code")
	}

	svc, err := g.service(ctx, tok.AccessToken)
	if err != nil {
		return nil, "", err
	}
	profile, err := svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, "", errs.Wrap(errs.KindProvider, err, "fetch gmail profile")
	}
	return tok, profile.EmailAddress, nil
}

// Refresh exchanges the stored refresh token for a new access token.
// Only the refresh token is handed to the token source so the exchange
// always hits the OAuth endpoint instead of returning the stale token.
func (g *Gmail) Refresh(ctx context.Context, creds *models.UserToken) (*oauth2.Token, error) {
	src := g.config.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, errs.Wrap(errs.KindAuth, err, "refresh token for user %s", creds.UserID)
	}
	return tok, nil
}

// ListThreadIDs lists thread identifiers matching the query.
func (g *Gmail) ListThreadIDs(ctx context.Context, creds *models.UserToken, limit int64, query string) ([]string, error) {
	svc, err := g.service(ctx, creds.AccessToken)
	if err != nil {
		return nil, err
	}

	call := svc.Users.Threads.List("me").MaxResults(limit)
	if query != "" {
		call = call.Q(query)
	}
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, errs.Wrap(errs.KindProvider, err, "list threads")
	}

	ids := make([]string, 0, len(resp.Threads))
	for _, t := range resp.Threads {
		ids = append(ids, t.Id)
	}
	return ids, nil
}

// GetThread fetches a thread with full message payloads.
func (g *Gmail) GetThread(ctx context.Context, creds *models.UserToken, threadID string) (*Thread, error) {
	svc, err := g.service(ctx, creds.AccessToken)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Users.Threads.Get("me", threadID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, errs.Wrap(errs.KindProvider, err, "get thread %s", threadID)
	}

	thread := &Thread{ID: resp.Id}
	for _, m := range resp.Messages {
		thread.Messages = append(thread.Messages, convertMessage(m))
	}
	return thread, nil
}

// ListMessageIDs lists individual message identifiers, newest first.
func (g *Gmail) ListMessageIDs(ctx context.Context, creds *models.UserToken, limit int64) ([]string, error) {
	svc, err := g.service(ctx, creds.AccessToken)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Users.Messages.List("me").MaxResults(limit).Context(ctx).Do()
	if err != nil {
		return nil, errs.Wrap(errs.KindProvider, err, "list messages")
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// GetMessage fetches one message with its full payload.
func (g *Gmail) GetMessage(ctx context.Context, creds *models.UserToken, messageID string) (*Message, error) {
	svc, err := g.service(ctx, creds.AccessToken)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Users.Messages.Get("me", messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, errs.Wrap(errs.KindProvider, err, "get message %s", messageID)
	}
	return convertMessage(resp), nil
}

// SendRaw submits an encoded message so it lands on the existing thread.
func (g *Gmail) SendRaw(ctx context.Context, creds *models.UserToken, raw, threadID string) error {
	svc, err := g.service(ctx, creds.AccessToken)
	if err != nil {
		return err
	}

	msg := &gmail.Message{Raw: raw, ThreadId: threadID}
	if _, err := svc.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return errs.Wrap(errs.KindProvider, err, "send reply on thread %s", threadID)
	}
	return nil
}

func (g *Gmail) service(ctx context.Context, accessToken string) (*gmail.Service, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	svc, err := gmail.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, errs.Wrap(errs.KindProvider, err, "create gmail service")
	}
	return svc, nil
}

func convertMessage(m *gmail.Message) *Message {
	return &Message{
		ID:       m.Id,
		ThreadID: m.ThreadId,
		Snippet:  m.Snippet,
		Payload:  convertPart(m.Payload),
	}
}

func convertPart(p *gmail.MessagePart) *Part {
	if p == nil {
		return nil
	}
	part := &Part{MimeType: p.MimeType}
	for _, h := range p.Headers {
		part.Headers = append(part.Headers, Header{Name: h.Name, Value: h.Value})
	}
	if p.Body != nil {
		part.Data = p.Body.Data
	}
	for _, child := range p.Parts {
		part.Parts = append(part.Parts, convertPart(child))
	}
	return part
}

var _ Provider = (*Gmail)(nil)
