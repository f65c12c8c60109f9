package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/inboxpilot/inboxpilot/internal/db"
	"github.com/inboxpilot/inboxpilot/internal/db/models"
	"github.com/inboxpilot/inboxpilot/internal/errs"
)

type fakeRefresher struct {
	mu    sync.Mutex
	calls int
	token *oauth2.Token
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context, creds *models.UserToken) (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.token, nil
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestStore(t *testing.T, refresher Refresher) (*Store, *db.TokenStore) {
	t.Helper()
	gdb, err := db.InitDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	tokens := db.NewTokenStore(gdb)
	return NewStore(tokens, refresher), tokens
}

func seedToken(t *testing.T, tokens *db.TokenStore, userID string, expiry time.Time) *models.UserToken {
	t.Helper()
	tok := &models.UserToken{
		UserID:       userID,
		Email:        userID,
		AccessToken:  "access-old",
		RefreshToken: "refresh-1",
		Scope:        "mail.readonly",
		TokenType:    "Bearer",
		ExpiryDate:   expiry.UnixMilli(),
	}
	if err := tokens.Upsert(context.Background(), tok); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	return tok
}

func TestEnsureValid_FreshTokenSkipsRefresh(t *testing.T) {
	refresher := &fakeRefresher{}
	store, tokens := newTestStore(t, refresher)
	seeded := seedToken(t, tokens, "alice@example.com", time.Now().Add(time.Hour))

	got, err := store.EnsureValid(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("EnsureValid: %v", err)
	}
	if refresher.callCount() != 0 {
		t.Fatalf("expected zero refresh calls, got %d", refresher.callCount())
	}
	if got.AccessToken != seeded.AccessToken || got.ExpiryDate != seeded.ExpiryDate {
		t.Fatalf("expected stored token returned unchanged, got %+v", got)
	}
}

func TestEnsureValid_ExpiredTokenRefreshesOnce(t *testing.T) {
	newExpiry := time.Now().Add(time.Hour)
	refresher := &fakeRefresher{token: &oauth2.Token{
		AccessToken: "access-new",
		TokenType:   "Bearer",
		Expiry:      newExpiry,
	}}
	store, tokens := newTestStore(t, refresher)
	seeded := seedToken(t, tokens, "alice@example.com", time.Now().Add(-time.Minute))

	got, err := store.EnsureValid(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("EnsureValid: %v", err)
	}
	if refresher.callCount() != 1 {
		t.Fatalf("expected exactly one refresh call, got %d", refresher.callCount())
	}
	if got.AccessToken != "access-new" {
		t.Fatalf("expected refreshed access token, got %q", got.AccessToken)
	}
	if got.ExpiryDate <= seeded.ExpiryDate {
		t.Fatalf("expected expiry to strictly increase: old %d, new %d", seeded.ExpiryDate, got.ExpiryDate)
	}
	if got.RefreshToken != "refresh-1" {
		t.Fatalf("expected refresh token retained, got %q", got.RefreshToken)
	}

	// The refreshed token must be persisted before it is returned.
	stored, err := tokens.Get(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("reload token: %v", err)
	}
	if stored.AccessToken != "access-new" || stored.ExpiryDate != got.ExpiryDate {
		t.Fatalf("expected refreshed token persisted, got %+v", stored)
	}
}

func TestEnsureValid_RotatesRefreshTokenWhenIssued(t *testing.T) {
	refresher := &fakeRefresher{token: &oauth2.Token{
		AccessToken:  "access-new",
		RefreshToken: "refresh-2",
		Expiry:       time.Now().Add(time.Hour),
	}}
	store, tokens := newTestStore(t, refresher)
	seedToken(t, tokens, "alice@example.com", time.Now().Add(-time.Minute))

	got, err := store.EnsureValid(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("EnsureValid: %v", err)
	}
	if got.RefreshToken != "refresh-2" {
		t.Fatalf("expected rotated refresh token, got %q", got.RefreshToken)
	}
}

func TestEnsureValid_ConcurrentCallersShareOneRefresh(t *testing.T) {
	refresher := &fakeRefresher{token: &oauth2.Token{
		AccessToken: "access-new",
		Expiry:      time.Now().Add(time.Hour),
	}}
	store, tokens := newTestStore(t, refresher)
	seedToken(t, tokens, "alice@example.com", time.Now().Add(-time.Minute))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.EnsureValid(context.Background(), "alice@example.com"); err != nil {
				t.Errorf("EnsureValid: %v", err)
			}
		}()
	}
	wg.Wait()

	if refresher.callCount() != 1 {
		t.Fatalf("expected one shared refresh across concurrent callers, got %d", refresher.callCount())
	}
}

func TestEnsureValid_NoStoredToken(t *testing.T) {
	store, _ := newTestStore(t, &fakeRefresher{})

	_, err := store.EnsureValid(context.Background(), "nobody@example.com")
	if !errs.Is(err, errs.KindAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestEnsureValid_RefreshFailureLeavesTokenUntouched(t *testing.T) {
	refresher := &fakeRefresher{err: fmt.Errorf("oauth2: invalid_grant")}
	store, tokens := newTestStore(t, refresher)
	seeded := seedToken(t, tokens, "alice@example.com", time.Now().Add(-time.Minute))

	_, err := store.EnsureValid(context.Background(), "alice@example.com")
	if !errs.Is(err, errs.KindAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}

	stored, err := tokens.Get(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("reload token: %v", err)
	}
	if stored.AccessToken != seeded.AccessToken || stored.ExpiryDate != seeded.ExpiryDate {
		t.Fatalf("expected no partial persistence after failed refresh, got %+v", stored)
	}
}

func TestSaveExchange(t *testing.T) {
	store, tokens := newTestStore(t, &fakeRefresher{})

	tok := &oauth2.Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}
	saved, err := store.SaveExchange(context.Background(), tok, "carol@example.com")
	if err != nil {
		t.Fatalf("SaveExchange: %v", err)
	}
	if saved.UserID != "carol@example.com" {
		t.Fatalf("expected email as user ID, got %q", saved.UserID)
	}

	if _, err := tokens.Get(context.Background(), "carol@example.com"); err != nil {
		t.Fatalf("expected token persisted: %v", err)
	}

	if _, err := store.SaveExchange(context.Background(), tok, ""); !errs.Is(err, errs.KindValidation) {
		t.Fatalf("expected validation error for empty email, got %v", err)
	}
}
