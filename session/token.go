package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoadToken returns the stored token, "" when logged out. An unreadable
// session file counts as logged out.
func LoadToken(ctx context.Context, store Store) (string, error) {
	token, err := store.Get(ctx, TokenKey)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrCorrupt) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// SaveToken overwrites the stored token
func SaveToken(ctx context.Context, store Store, token string) error {
	return store.Set(ctx, TokenKey, token)
}

// ClearToken removes the stored token
func ClearToken(ctx context.Context, store Store) error {
	return store.Delete(ctx, TokenKey)
}

// Tokens reads the token out of a Store on every call
type Tokens struct {
	store Store
}

// TokenSource adapts store for api.WithAuth
func TokenSource(store Store) Tokens {
	return Tokens{store: store}
}

// Token implements api.TokenSource
func (t Tokens) Token(ctx context.Context) (string, error) {
	return LoadToken(ctx, t.store)
}

// Claims is the display view of a session token
type Claims struct {
	AccountID string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Raw       jwt.MapClaims
}

// Expired reports whether the exp claim is in the past
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// InspectToken decodes the claims of a jwt without checking its signature.
// Only the server can verify the token; this is for display.
func InspectToken(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}

	raw := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, raw); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims := &Claims{Raw: raw}
	if v, ok := raw["accountId"].(string); ok {
		claims.AccountID = v
	} else if sub, err := raw.GetSubject(); err == nil {
		claims.AccountID = sub
	}

	switch roles := raw["roles"].(type) {
	case []interface{}:
		for _, r := range roles {
			if s, ok := r.(string); ok {
				claims.Roles = append(claims.Roles, s)
			}
		}
	case string:
		claims.Roles = strings.Split(roles, ",")
	}

	if iat, err := raw.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := raw.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}
