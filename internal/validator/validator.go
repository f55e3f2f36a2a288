// Package validator checks the structure of incoming requests before any
// store access happens.
package validator

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
)

var (
	ErrNoAuthorization     = errors.New("Authorization not in headers")
	ErrMissingBearerPrefix = errors.New("Not a valid Authorization Value (missing 'Bearer ')")
	ErrTokenNotFound       = errors.New("Token not found")
)

var bearerPattern = regexp.MustCompile(`^Bearer\s*(.+?)$`)

// VerifyLoginRequest reports whether body carries both a username and a
// password. Values are not inspected.
func VerifyLoginRequest(body map[string]any) bool {
	return hasKeys(body, "username", "password")
}

// ExtractBearerToken returns the token from an "Authorization: Bearer <token>"
// header. The error text is meant to be shown to the caller.
func ExtractBearerToken(header http.Header) (string, error) {
	values, ok := header[http.CanonicalHeaderKey("authorization")]
	if !ok || len(values) == 0 {
		return "", ErrNoAuthorization
	}

	return ParseToken(values[0])
}

func ParseToken(value string) (string, error) {
	if !strings.Contains(value, "Bearer ") {
		slog.Warn("not a valid authorization value", "authorization", value)
		return "", ErrMissingBearerPrefix
	}

	match := bearerPattern.FindStringSubmatch(value)
	if match == nil {
		slog.Warn("unable to parse token from authorization value", "authorization", value)
		return "", ErrTokenNotFound
	}

	return match[1], nil
}

func hasKeys(body map[string]any, keys ...string) bool {
	for _, key := range keys {
		if _, ok := body[key]; !ok {
			return false
		}
	}
	return true
}
