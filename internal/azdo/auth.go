package azdo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the access token for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", fmt.Errorf("empty access token")
	}
	return string(s), nil
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// parseJWT decodes token without verifying its signature. ok is false for
// tokens that are not JWTs, such as personal access tokens.
func parseJWT(token string) (*jwt.Token, bool) {
	if strings.Count(token, ".") != 2 {
		return nil, false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, false
	}
	return parsed, true
}

// authorize sets the Authorization header. JWTs (Entra ID tokens) are sent as
// bearer tokens after an expiry check; anything else is treated as a personal
// access token and sent with basic auth.
func authorize(req *http.Request, token string, now time.Time) error {
	if parsed, ok := parseJWT(token); ok {
		exp, err := parsed.Claims.GetExpirationTime()
		if err == nil && exp != nil && !now.Before(exp.Time) {
			return fmt.Errorf("%w at %s", ErrTokenExpired, exp.Time.Format(time.RFC3339))
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
	req.SetBasicAuth("", token)
	return nil
}
