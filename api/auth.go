package api

import (
	"context"

	"google.golang.org/grpc"
)

// AuthClient is the ApiAuth stub
type AuthClient struct {
	cc grpc.ClientConnInterface
}

// NewAuthClient creates an ApiAuth stub on cc
func NewAuthClient(cc grpc.ClientConnInterface) *AuthClient {
	return &AuthClient{cc: cc}
}

// GetChallenge asks for the current challenge of an account on a network
func (c *AuthClient) GetChallenge(ctx context.Context, in *ChallengeRequest, opts ...grpc.CallOption) (*ChallengeResponse, error) {
	out := new(ChallengeResponse)
	if err := c.cc.Invoke(ctx, methodPath(AuthServiceName, "GetChallenge"), in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// VerifyChallenge submits a signed challenge. Pass grpc.Header to receive
// the authorization header holding the session token.
func (c *AuthClient) VerifyChallenge(ctx context.Context, in *VerifyChallengeRequest, opts ...grpc.CallOption) (*VerifyChallengeResponse, error) {
	out := new(VerifyChallengeResponse)
	if err := c.cc.Invoke(ctx, methodPath(AuthServiceName, "VerifyChallenge"), in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}
