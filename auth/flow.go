// Package auth runs the wallet login: fetch a challenge for an account,
// sign its hash, trade the signature for a session token, persist it.
package auth

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/chinmay1088/prism/api"
	"github.com/chinmay1088/prism/session"
)

// ChallengeService is the remote half of the flow. *api.AuthClient
// satisfies it.
type ChallengeService interface {
	GetChallenge(ctx context.Context, in *api.ChallengeRequest, opts ...grpc.CallOption) (*api.ChallengeResponse, error)
	VerifyChallenge(ctx context.Context, in *api.VerifyChallengeRequest, opts ...grpc.CallOption) (*api.VerifyChallengeResponse, error)
}

// Account is the externally owned context the flow reads
type Account struct {
	Network   string
	Signer    Signer
	PublicKey string
}

// State is derived from the flow fields, for display
type State string

const (
	StateDisconnected    State = "disconnected"
	StateConnected       State = "connected"
	StateChallengeLoaded State = "challenge-fetched"
	StateAuthenticated   State = "authenticated"
)

// Option configures a Flow
type Option func(*Flow)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(f *Flow) { f.logger = l }
}

// WithMetrics enables prometheus counters
func WithMetrics(m *Metrics) Option {
	return func(f *Flow) { f.metrics = m }
}

// WithEventPublisher announces logins and logouts
func WithEventPublisher(p EventPublisher) Option {
	return func(f *Flow) { f.events = p }
}

type scope struct {
	accountID string
	network   string
}

// Flow holds the connected flag and the current challenge. Every handler
// runs under one mutex so they never interleave.
type Flow struct {
	client  ChallengeService
	store   session.Store
	logger  *slog.Logger
	metrics *Metrics
	events  EventPublisher

	mu        sync.Mutex
	account   Account
	connected bool
	scope     scope
	challenge *big.Int
}

// NewFlow creates a disconnected flow
func NewFlow(client ChallengeService, store session.Store, opts ...Option) *Flow {
	f := &Flow{
		client: client,
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Sync is called whenever the signer or the network changes. Without a
// signer the flow is disconnected and nothing is fetched. Otherwise the
// challenge for (account id, lower-cased network) is fetched and stored.
func (f *Flow) Sync(ctx context.Context, acct Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if acct.Signer == nil {
		f.connected = false
		f.account = Account{}
		f.logger.Error("No wallet connected")
		return ErrNoSigner
	}

	f.connected = true
	f.account = acct

	req := &api.ChallengeRequest{
		AccountID: acct.Signer.AccountID(),
		Network:   strings.ToLower(acct.Network),
	}

	// a challenge is only good for the pair it was issued to
	next := scope{accountID: req.AccountID, network: req.Network}
	if next != f.scope {
		f.scope = next
		f.challenge = nil
	}

	challenge, err := f.fetchChallenge(ctx, req)
	f.metrics.observeChallenge(err)
	if err != nil {
		f.logger.Error("Error fetching challenge",
			"account_id", req.AccountID,
			"network", req.Network,
			"error", err,
		)
		return err
	}

	f.challenge = challenge
	f.logger.Debug("challenge fetched",
		"account_id", req.AccountID,
		"network", req.Network,
		"challenge", challenge.String(),
	)
	return nil
}

func (f *Flow) fetchChallenge(ctx context.Context, req *api.ChallengeRequest) (*big.Int, error) {
	resp, err := f.client.GetChallenge(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch challenge: %w", err)
	}

	challenge, ok := new(big.Int).SetString(strings.TrimSpace(resp.Message), 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChallenge, resp.Message)
	}
	return challenge, nil
}

// Login signs the current challenge and exchanges it for a session token,
// which is persisted under session.TokenKey and returned. On any failure
// the stored token is left as it was.
func (f *Flow) Login(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	start := time.Now()
	token, err := f.login(ctx)
	f.metrics.observeLogin(err, time.Since(start))
	if err != nil {
		f.logger.Error("Error signing challenge", "error", err)
		return "", err
	}

	f.logger.Info("logged in",
		"account_id", f.scope.accountID,
		"network", f.scope.network,
	)
	if f.events != nil {
		if err := f.events.PublishLogin(ctx, f.scope.accountID, f.scope.network); err != nil {
			f.logger.Warn("failed to publish login event", "error", err)
		}
	}
	return token, nil
}

func (f *Flow) login(ctx context.Context) (string, error) {
	if !f.connected || f.account.Signer == nil {
		return "", ErrNoSigner
	}
	if f.challenge == nil {
		return "", ErrNoChallenge
	}

	payload := ChallengePayload(f.challenge)
	digest := ChallengeDigest(f.challenge)
	f.logger.Debug("challenge hashed", "payload", payload, "keccak", "0x"+hex.EncodeToString(digest))

	sigs, err := f.account.Signer.Sign(ctx, [][]byte{digest}, SignOptions{Encoding: EncodingBase64})
	if err != nil {
		return "", fmt.Errorf("failed to sign challenge: %w", err)
	}
	if len(sigs) != 1 {
		return "", fmt.Errorf("%w: got %d", ErrSignatureCount, len(sigs))
	}

	sig, err := EncodeSignature(sigs[0].Signature, EncodingBase64)
	if err != nil {
		return "", err
	}
	f.logger.Debug("challenge signed",
		"sig_hex", hex.EncodeToString(sigs[0].Signature),
		"sig_base64", sig,
		"public_key", f.account.PublicKey,
	)

	var header metadata.MD
	_, err = f.client.VerifyChallenge(ctx, &api.VerifyChallengeRequest{
		ChallengeResponseBase64: sig,
		Payload:                 payload,
		ChallengeRequest: &api.ChallengeRequest{
			AccountID: f.scope.accountID,
			Network:   f.scope.network,
		},
	}, grpc.Header(&header))
	if err != nil {
		return "", fmt.Errorf("failed to verify challenge: %w", err)
	}

	values := header.Get(api.AuthorizationHeader)
	if len(values) == 0 || values[0] == "" {
		return "", ErrMissingToken
	}
	token := values[0]

	if err := session.SaveToken(ctx, f.store, token); err != nil {
		return "", fmt.Errorf("failed to store session token: %w", err)
	}
	return token, nil
}

// Logout removes the stored token. The server is not told and the
// connected flag stays as it is.
func (f *Flow) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := session.ClearToken(ctx, f.store); err != nil {
		f.logger.Error("failed to clear session token", "error", err)
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	f.metrics.incLogout()
	f.logger.Info("logged out")

	if f.events != nil {
		if err := f.events.PublishLogout(ctx); err != nil {
			f.logger.Warn("failed to publish logout event", "error", err)
		}
	}
	return nil
}

// Connected reports whether the last Sync had a signer
func (f *Flow) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// Challenge returns a copy of the current challenge
func (f *Flow) Challenge() (*big.Int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.challenge == nil {
		return nil, false
	}
	return new(big.Int).Set(f.challenge), true
}

// State derives the flow state. A stored token counts as authenticated
// only while connected.
func (f *Flow) State(ctx context.Context) State {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.connected {
		return StateDisconnected
	}
	token, err := session.LoadToken(ctx, f.store)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		f.logger.Warn("failed to read session token", "error", err)
	}
	switch {
	case token != "":
		return StateAuthenticated
	case f.challenge != nil:
		return StateChallengeLoaded
	}
	return StateConnected
}
