package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"jobstatus-api/internal/model"
	"jobstatus-api/internal/validator"
)

type tokenValidator interface {
	Validate(ctx context.Context, token string) (bool, string, error)
}

type contextKey string

const tokenContextKey contextKey = "bearer_token"

type AuthMiddleware struct {
	validator tokenValidator
}

func NewAuthMiddleware(validator tokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// RequireToken lets the request through only with a bearer token that is in
// the journal and unexpired. Rejections are FAILED envelopes with status 200.
func (m *AuthMiddleware) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := validator.ExtractBearerToken(r.Header)
		if err != nil {
			slog.Warn("request failed, no token present", "path", r.URL.Path, "reason", err.Error())
			writeEnvelope(w, model.Failed(fmt.Sprintf("Unable to retrieve token from Headers. Reason: '%s'", err)))
			return
		}

		valid, reason, err := m.validator.Validate(r.Context(), token)
		if err != nil {
			slog.Error("token validation failed", "path", r.URL.Path, "error", err)
			writeInternalError(w)
			return
		}
		if !valid {
			writeEnvelope(w, model.Failed(fmt.Sprintf("Token is Invalid. Reason: '%s'", reason)))
			return
		}

		ctx := context.WithValue(r.Context(), tokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok
}
