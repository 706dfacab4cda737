package api

import (
	"context"

	"google.golang.org/grpc"
)

// ClobClient is the ClobPublic stub
type ClobClient struct {
	cc grpc.ClientConnInterface
}

// NewClobClient creates a ClobPublic stub on cc
func NewClobClient(cc grpc.ClientConnInterface) *ClobClient {
	return &ClobClient{cc: cc}
}

// GetOrderBook returns the aggregated book of one market
func (c *ClobClient) GetOrderBook(ctx context.Context, in *OrderBookRequest, opts ...grpc.CallOption) (*OrderBook, error) {
	out := new(OrderBook)
	if err := c.cc.Invoke(ctx, methodPath(ClobServiceName, "GetOrderBook"), in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}
