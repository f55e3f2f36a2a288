package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"jobstatus-api/internal/database"
	"jobstatus-api/internal/model"
)

const (
	ReasonInvalidToken = "Not a valid token"
	reasonExpiredFmt   = "Expired on: %s"
)

type TokenRepository struct {
	db  executor
	now func() time.Time
}

func NewTokenRepository(db executor, now func() time.Time) *TokenRepository {
	if now == nil {
		now = time.Now
	}
	return &TokenRepository{db: db, now: now}
}

// Upsert stores token as the single journal row of userID, replacing any
// earlier token in the same statement.
func (r *TokenRepository) Upsert(ctx context.Context, userID int64, token string, expiry time.Time) (bool, error) {
	env, err := r.db.Execute(ctx, database.Query{
		Kind: database.KindInsert,
		Statement: `INSERT INTO user_token_journal (user_id, token, expiry) VALUES (?, ?, ?)
			ON CONFLICT (user_id) DO UPDATE SET token = excluded.token, expiry = excluded.expiry`,
		Args:   []any{userID, token, model.FormatTimestamp(expiry)},
		Commit: true,
	})
	if err != nil {
		return false, fmt.Errorf("upsert token: %w", err)
	}
	return env.Status, nil
}

// CheckTokenIsValid reports whether token is in the journal and unexpired.
// When it is not, the second value says why.
func (r *TokenRepository) CheckTokenIsValid(ctx context.Context, token string) (bool, string, error) {
	env, err := r.db.Execute(ctx, database.Query{
		Kind:      database.KindSelect,
		Statement: `SELECT expiry FROM user_token_journal WHERE token = ?`,
		Args:      []any{token},
	})
	if err != nil {
		return false, "", fmt.Errorf("check token: %w", err)
	}
	if !env.Status {
		slog.Warn("token was not found in database", "token", token)
		return false, ReasonInvalidToken, nil
	}

	raw := asString(env.Rows[0][0])
	expiry, err := model.ParseTimestamp(raw)
	if err != nil {
		slog.Error("token expiry is unreadable", "token", token, "expiry", raw, "error", err)
		return false, fmt.Sprintf(reasonExpiredFmt, raw), nil
	}

	if expiry.Before(r.now().UTC()) {
		slog.Warn("token has expired", "token", token, "expiry", raw)
		return false, fmt.Sprintf(reasonExpiredFmt, raw), nil
	}

	return true, "", nil
}

// GetUserForToken returns userID and true when the user has a journal row.
func (r *TokenRepository) GetUserForToken(ctx context.Context, userID int64) (int64, bool, error) {
	env, err := r.db.Execute(ctx, database.Query{
		Kind:      database.KindSelect,
		Statement: `SELECT user_id FROM user_token_journal WHERE user_id = ?`,
		Args:      []any{userID},
	})
	if err != nil {
		return 0, false, fmt.Errorf("get user for token: %w", err)
	}
	if !env.Status {
		return 0, false, nil
	}

	id, err := asInt64(env.Rows[0][0])
	if err != nil {
		return 0, false, fmt.Errorf("read journal user id: %w", err)
	}
	return id, true, nil
}

func (r *TokenRepository) CountForUser(ctx context.Context, userID int64) (int, error) {
	env, err := r.db.Execute(ctx, database.Query{
		Kind:      database.KindSelect,
		Statement: `SELECT COUNT(*) FROM user_token_journal WHERE user_id = ?`,
		Args:      []any{userID},
	})
	if err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}
	if !env.Status {
		return 0, nil
	}

	n, err := asInt64(env.Rows[0][0])
	if err != nil {
		return 0, fmt.Errorf("read token count: %w", err)
	}
	return int(n), nil
}
