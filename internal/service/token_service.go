package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"jobstatus-api/internal/model"
)

const DefaultTokenBytes = 32

type tokenStore interface {
	Upsert(ctx context.Context, userID int64, token string, expiry time.Time) (bool, error)
	CheckTokenIsValid(ctx context.Context, token string) (bool, string, error)
}

type TokenConfig struct {
	LifetimeHours int
	Bytes         int
	Now           func() time.Time
}

type TokenService struct {
	store    tokenStore
	lifetime time.Duration
	size     int
	now      func() time.Time
}

func NewTokenService(store tokenStore, cfg TokenConfig) *TokenService {
	if cfg.Bytes <= 0 {
		cfg.Bytes = DefaultTokenBytes
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &TokenService{
		store:    store,
		lifetime: time.Duration(cfg.LifetimeHours) * time.Hour,
		size:     cfg.Bytes,
		now:      cfg.Now,
	}
}

// IssueToken returns length random bytes encoded as 2*length hex characters.
// Uniqueness is left to the journal's unique constraint.
func IssueToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (s *TokenService) Issue() (string, error) {
	return IssueToken(s.size)
}

// Register makes token the only active token of userID. It reports false
// without an error when the store affected no rows.
func (s *TokenService) Register(ctx context.Context, userID int64, token string) (bool, error) {
	expiry := s.now().UTC().Add(s.lifetime)

	ok, err := s.store.Upsert(ctx, userID, token, expiry)
	if err != nil {
		return false, fmt.Errorf("register token: %w", err)
	}
	if !ok {
		slog.Error("unable to register new token", "user_id", userID, "token", token)
		return false, nil
	}

	slog.Info("token registered", "user_id", userID, "expiry", model.FormatTimestamp(expiry))
	return true, nil
}

func (s *TokenService) Validate(ctx context.Context, token string) (bool, string, error) {
	return s.store.CheckTokenIsValid(ctx, token)
}
