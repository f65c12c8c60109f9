// Package auth owns the OAuth2 credential lifecycle for mailbox users:
// storage, expiry checks, and refresh.
package auth

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/inboxpilot/inboxpilot/internal/db"
	"github.com/inboxpilot/inboxpilot/internal/db/models"
	"github.com/inboxpilot/inboxpilot/internal/errs"
)

// Refresher exchanges a stored refresh token for a fresh access token.
// The Gmail provider implements it; tests substitute fakes.
type Refresher interface {
	Refresh(ctx context.Context, creds *models.UserToken) (*oauth2.Token, error)
}

// Store manages stored tokens and guarantees at most one in-flight
// refresh per user: concurrent callers for the same user serialize on a
// per-user lock and the second caller re-reads the already-refreshed row.
type Store struct {
	tokens    *db.TokenStore
	refresher Refresher
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a credential store.
func NewStore(tokens *db.TokenStore, refresher Refresher) *Store {
	return &Store{
		tokens:    tokens,
		refresher: refresher,
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// EnsureValid returns usable credentials for the user, refreshing and
// persisting them first if expired. The refreshed token is written
// before it is returned, so a crash after persistence cannot lose it.
func (s *Store) EnsureValid(ctx context.Context, userID string) (*models.UserToken, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	tok, err := s.tokens.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !tok.Expired(s.now()) {
		return tok, nil
	}

	fresh, err := s.refresher.Refresh(ctx, tok)
	if err != nil {
		return nil, errs.Wrap(errs.KindAuth, err, "refresh credentials for user %s", userID)
	}

	tok.AccessToken = fresh.AccessToken
	if fresh.TokenType != "" {
		tok.TokenType = fresh.TokenType
	}
	// The provider keeps the refresh token unless it issues a new one.
	if fresh.RefreshToken != "" && fresh.RefreshToken != tok.RefreshToken {
		log.Printf("rotating refresh token for user %s", userID)
		tok.RefreshToken = fresh.RefreshToken
	}
	// Expiry never moves backwards.
	if exp := fresh.Expiry.UnixMilli(); exp > tok.ExpiryDate {
		tok.ExpiryDate = exp
	}

	if err := s.tokens.Upsert(ctx, tok); err != nil {
		return nil, err
	}
	log.Printf("refreshed token for user %s (expires %s)", userID, tok.Expiry().Format(time.RFC3339))
	return tok, nil
}

// SaveExchange persists tokens obtained from the OAuth consent flow.
// The account email doubles as the user ID.
func (s *Store) SaveExchange(ctx context.Context, tok *oauth2.Token, email string) (*models.UserToken, error) {
	if email == "" {
		return nil, errs.Validationf("exchange returned no account email")
	}
	scope, _ := tok.Extra("scope").(string)
	stored := &models.UserToken{
		UserID:       email,
		Email:        email,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Scope:        scope,
		TokenType:    tok.TokenType,
		ExpiryDate:   tok.Expiry.UnixMilli(),
	}
	if err := s.tokens.Upsert(ctx, stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// Logout deletes the user's stored token.
func (s *Store) Logout(ctx context.Context, userID string) error {
	return s.tokens.Delete(ctx, userID)
}
