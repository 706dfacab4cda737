package api

import (
	"context"

	"google.golang.org/grpc"
)

// PublicClient is the ApiServicePublic stub
type PublicClient struct {
	cc grpc.ClientConnInterface
}

// NewPublicClient creates an ApiServicePublic stub on cc
func NewPublicClient(cc grpc.ClientConnInterface) *PublicClient {
	return &PublicClient{cc: cc}
}

// GetAllMatches returns one page of matches
func (c *PublicClient) GetAllMatches(ctx context.Context, in *PageRequest, opts ...grpc.CallOption) (*MatchesResponse, error) {
	out := new(MatchesResponse)
	if err := c.cc.Invoke(ctx, methodPath(PublicServiceName, "GetAllMatches"), in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAllPositions returns one page of positions
func (c *PublicClient) GetAllPositions(ctx context.Context, in *PageRequest, opts ...grpc.CallOption) (*PositionsResponse, error) {
	out := new(PositionsResponse)
	if err := c.cc.Invoke(ctx, methodPath(PublicServiceName, "GetAllPositions"), in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAllPredictionIntents returns one page of prediction intents
func (c *PublicClient) GetAllPredictionIntents(ctx context.Context, in *PageRequest, opts ...grpc.CallOption) (*PredictionIntentsResponse, error) {
	out := new(PredictionIntentsResponse)
	if err := c.cc.Invoke(ctx, methodPath(PublicServiceName, "GetAllPredictionIntents"), in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}
