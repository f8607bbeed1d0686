// Package auth gates the administration endpoints behind the external
// sign-in provider's tokens plus a static email allow-list. This is an
// advisory UI gate, not a security boundary: any client talking to the
// store directly bypasses it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/matikep/heladoswilson/pkg/logger"
)

var (
	// ErrNoToken / ErrInvalidToken: the sign-in failed or was never
	// attempted. Surfaced as 401, no retry loop.
	ErrNoToken      = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrNotAllowed: authenticated but not allow-listed. Fatal for the
	// session: the caller is treated as signed out again.
	ErrNotAllowed = errors.New("email not allow-listed")
)

// Claims is the payload of the provider-issued token; only the email is
// consulted.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Gate struct {
	secret  []byte
	allowed map[string]struct{}
}

func NewGate(secret string, allowedEmails []string) *Gate {
	allowed := make(map[string]struct{}, len(allowedEmails))
	for _, e := range allowedEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			allowed[e] = struct{}{}
		}
	}
	return &Gate{secret: []byte(secret), allowed: allowed}
}

// VerifyRequest extracts and validates the bearer token and checks the
// allow-list, returning the caller's email.
func (g *Gate) VerifyRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoToken
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrNoToken
	}

	token, err := jwt.ParseWithClaims(parts[1], &Claims{}, func(t *jwt.Token) (any, error) {
		return g.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Email == "" {
		return "", ErrInvalidToken
	}

	email := strings.ToLower(claims.Email)
	if _, ok := g.allowed[email]; !ok {
		return "", fmt.Errorf("%w: %s", ErrNotAllowed, email)
	}
	return email, nil
}

type ctxKey struct{}

// Email returns the verified admin email stored by Middleware.
func Email(ctx context.Context) string {
	e, _ := ctx.Value(ctxKey{}).(string)
	return e
}

// Middleware rejects requests that fail verification: 401 for token
// problems, 403 for a valid sign-in that is not allow-listed.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, err := g.VerifyRequest(r)
		if err != nil {
			code := http.StatusUnauthorized
			if errors.Is(err, ErrNotAllowed) {
				code = http.StatusForbidden
				logger.Warn().Err(err).Msg("unauthorized admin sign-in, forcing sign-out")
			}
			http.Error(w, err.Error(), code)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, email)))
	})
}

// IssueToken signs a token for the given email, standing in for the
// hosted provider in development and tests.
func IssueToken(secret, email string, ttl time.Duration) (string, error) {
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "heladoswilson",
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}
