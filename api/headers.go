package api

import (
	"context"
	"fmt"

	"google.golang.org/grpc/metadata"
)

// TokenSource yields the persisted session token, or "" when logged out
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a plain function to TokenSource
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// AuthHeaders builds the per-call metadata. Without a token the result is
// empty but never nil, so it can always be attached.
func AuthHeaders(ctx context.Context, src TokenSource) (metadata.MD, error) {
	md := metadata.MD{}
	if src == nil {
		return md, nil
	}

	token, err := src.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read session token: %w", err)
	}
	if token != "" {
		md.Set(AuthorizationHeader, token)
	}
	return md, nil
}

// WithAuth attaches AuthHeaders to the outgoing context
func WithAuth(ctx context.Context, src TokenSource) (context.Context, error) {
	md, err := AuthHeaders(ctx, src)
	if err != nil {
		return ctx, err
	}
	if len(md) == 0 {
		return ctx, nil
	}
	if existing, ok := metadata.FromOutgoingContext(ctx); ok {
		md = metadata.Join(existing, md)
	}
	return metadata.NewOutgoingContext(ctx, md), nil
}
