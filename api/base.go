package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
)

// Options describes the shared transport
type Options struct {
	Target           string
	TLS              bool
	KeepaliveTime    time.Duration
	KeepaliveTimeout time.Duration
}

// Option customizes NewClient
type Option func(*Client)

// WithLogger sets the logger used by the call interceptor
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithDialOptions appends raw grpc dial options (tests use it for bufconn)
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *Client) { c.dialOpts = append(c.dialOpts, opts...) }
}

// Client owns the shared connection and the service handles built on it
type Client struct {
	Auth   *AuthClient
	Public *PublicClient
	Clob   *ClobClient

	conn     *grpc.ClientConn
	logger   *slog.Logger
	dialOpts []grpc.DialOption
}

// NewClient builds one connection and three service handles sharing it.
// The connection is lazy: nothing is dialed until the first call.
func NewClient(cfg Options, opts ...Option) (*Client, error) {
	c := &Client{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}

	target := strings.TrimSpace(cfg.Target)
	if target == "" {
		target = DefaultTarget
	}

	creds := insecure.NewCredentials()
	if cfg.TLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	kaTime := cfg.KeepaliveTime
	if kaTime <= 0 {
		kaTime = DefaultKeepaliveTime
	}
	kaTimeout := cfg.KeepaliveTimeout
	if kaTimeout <= 0 {
		kaTimeout = DefaultKeepaliveTimeout
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                kaTime,
			Timeout:             kaTimeout,
			PermitWithoutStream: false,
		}),
		grpc.WithUnaryInterceptor(c.requestInterceptor),
	}
	dialOpts = append(dialOpts, c.dialOpts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for %s: %w", target, err)
	}

	c.conn = conn
	c.Auth = NewAuthClient(conn)
	c.Public = NewPublicClient(conn)
	c.Clob = NewClobClient(conn)
	return c, nil
}

// Conn returns the shared connection
func (c *Client) Conn() *grpc.ClientConn {
	return c.conn
}

// Health runs the standard grpc health check against the server
func (c *Client) Health(ctx context.Context) (string, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return "", fmt.Errorf("health check failed: %w", err)
	}
	return resp.GetStatus().String(), nil
}

// Close closes the shared connection
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// requestInterceptor tags every call with a request id and logs its latency
func (c *Client) requestInterceptor(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	md, _ := metadata.FromOutgoingContext(ctx)
	requestID := ""
	if ids := md.Get(RequestIDHeader); len(ids) > 0 {
		requestID = ids[0]
	} else {
		requestID = uuid.NewString()
		ctx = metadata.AppendToOutgoingContext(ctx, RequestIDHeader, requestID)
	}

	start := time.Now()
	err := invoker(ctx, method, req, reply, cc, opts...)
	c.logger.Debug("rpc",
		"method", method,
		"request_id", requestID,
		"duration", time.Since(start),
		"error", err,
	)
	return err
}

// callOptions prepends the json codec so callers can still override it
func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
}
