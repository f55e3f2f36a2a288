package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"jobstatus-api/internal/model"
	"jobstatus-api/internal/validator"
)

const (
	msgLoginSuccessful = "Login Successful"
	msgLoginFailed     = "Login failed"
	msgInvalidRequest  = "Not a valid logon_request"
	msgCredentials     = "Password did not match and/or not a valid user"
)

type userFinder interface {
	FindByUsername(ctx context.Context, username string) (model.User, error)
}

type tokenIssuer interface {
	Issue() (string, error)
	Register(ctx context.Context, userID int64, token string) (bool, error)
}

type passwordComparer interface {
	Compare(hash string, plain string) bool
}

type AuthService struct {
	users  userFinder
	tokens tokenIssuer
	hasher passwordComparer
}

func NewAuthService(users userFinder, tokens tokenIssuer, hasher passwordComparer) *AuthService {
	return &AuthService{users: users, tokens: tokens, hasher: hasher}
}

// Login validates body, checks the credentials and issues a fresh token.
// Rejections come back as a FAILED envelope; only store failures during the
// user lookup are returned as errors.
func (s *AuthService) Login(ctx context.Context, body map[string]any) (model.Envelope, error) {
	if !validator.VerifyLoginRequest(body) {
		slog.Info("not a valid logon request")
		return failedLogin(msgInvalidRequest), nil
	}

	username := fieldString(body["username"])
	password := fieldString(body["password"])

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		slog.Warn(msgCredentials, "username", username)
		return failedLogin(msgCredentials), nil
	}
	if err != nil {
		return model.Envelope{}, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		slog.Warn(msgCredentials, "username", username)
		return failedLogin(msgCredentials), nil
	}

	token, err := s.tokens.Issue()
	if err != nil {
		return model.Envelope{}, fmt.Errorf("login: %w", err)
	}
	slog.Info("token granted", "username", username, "token", token)

	ok, err := s.tokens.Register(ctx, user.ID, token)
	if err != nil || !ok {
		slog.Error("failed to register token", "username", username, "token", token, "error", err)
		return failedLogin(""), nil
	}

	return model.Envelope{Status: model.StatusSuccess, Token: token, Message: msgLoginSuccessful}, nil
}

func failedLogin(detail string) model.Envelope {
	if detail == "" {
		return model.Failed(msgLoginFailed)
	}
	return model.Failed(msgLoginFailed + " - " + detail)
}

func fieldString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
