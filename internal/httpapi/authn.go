package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"infobattle.org/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// requireAdmin validates the bearer token on moderator-only endpoints and
// returns the token subject.
func (a *API) requireAdmin(r *http.Request) (string, error) {
	token, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		return "", err
	}
	claims, err := auth.ParseAndValidate(token)
	if err != nil {
		return "", errors.New("invalid token")
	}
	if !claims.Admin {
		return "", errors.New("admin token required")
	}
	return claims.Subject, nil
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
