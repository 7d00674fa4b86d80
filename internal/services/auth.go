package services

import (
	"context"
	"errors"
	"time"

	"github.com/viixen/nix-client/internal/api"
	"github.com/viixen/nix-client/internal/tokenstore"
)

var ErrNotLoggedIn = errors.New("no session tokens stored")

// AuthService performs the JWT login/refresh calls and keeps the resulting
// token pair in the token store.
type AuthService struct {
	client        *api.Client
	tokens        *tokenstore.Store
	refreshMargin time.Duration
}

func NewAuthService(client *api.Client, tokens *tokenstore.Store, refreshMargin time.Duration) *AuthService {
	return &AuthService{client: client, tokens: tokens, refreshMargin: refreshMargin}
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Login exchanges credentials for a token pair and stores it.
func (s *AuthService) Login(ctx context.Context, username, password string) error {
	body := Payload{"username": username, "password": password}
	var pair tokenPair
	if err := s.client.Do(ctx, api.Op("auth", "login"), nil, nil, body, &pair); err != nil {
		return err
	}
	return s.tokens.Save(pair.Access, pair.Refresh)
}

// Refresh trades the stored refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context) error {
	refresh, ok := s.tokens.RefreshToken()
	if !ok {
		return ErrNotLoggedIn
	}

	body := Payload{"refresh": refresh}
	var pair tokenPair
	if err := s.client.Do(ctx, api.Op("auth", "refresh"), nil, nil, body, &pair); err != nil {
		return err
	}
	if pair.Refresh == "" {
		pair.Refresh = refresh
	}
	return s.tokens.Save(pair.Access, pair.Refresh)
}

// EnsureFresh refreshes the access token when it is about to expire.
// Callers invoke this before long-running interactions; a missing session
// is not an error here.
func (s *AuthService) EnsureFresh(ctx context.Context) error {
	if _, ok := s.tokens.AccessToken(); !ok {
		return nil
	}
	if !s.tokens.AccessExpiresWithin(s.refreshMargin) {
		return nil
	}
	return s.Refresh(ctx)
}

// Logout discards the stored session.
func (s *AuthService) Logout() error {
	return s.tokens.Clear()
}
