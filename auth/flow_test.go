package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/chinmay1088/prism/api"
	"github.com/chinmay1088/prism/api/apitest"
	"github.com/chinmay1088/prism/session"
)

type fakeSigner struct {
	accountID string
	sig       []byte
	count     int
	err       error

	mu    sync.Mutex
	calls [][][]byte
	opts  []SignOptions
}

func newFakeSigner(accountID string) *fakeSigner {
	return &fakeSigner{accountID: accountID, sig: []byte{0xde, 0xad, 0xbe, 0xef}, count: 1}
}

func (s *fakeSigner) AccountID() string { return s.accountID }

func (s *fakeSigner) Sign(_ context.Context, msgs [][]byte, opts SignOptions) ([]Signature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, msgs)
	s.opts = append(s.opts, opts)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]Signature, s.count)
	for i := range out {
		out[i] = Signature{Signature: s.sig}
	}
	return out, nil
}

type recordedEvent struct {
	kind      string
	accountID string
	network   string
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *fakeEvents) PublishLogin(_ context.Context, accountID, network string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{"login", accountID, network})
	return p.err
}

func (p *fakeEvents) PublishLogout(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{kind: "logout"})
	return p.err
}

type harness struct {
	srv   *apitest.Server
	store *session.MemoryStore
	flow  *Flow
	logs  *bytes.Buffer
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	srv := apitest.New(t)
	client := srv.Client(t)
	store := session.NewMemoryStore()
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	opts = append([]Option{WithLogger(logger)}, opts...)
	return &harness{
		srv:   srv,
		store: store,
		flow:  NewFlow(client.Auth, store, opts...),
		logs:  logs,
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func storedToken(t *testing.T, store session.Store) string {
	t.Helper()
	token, err := session.LoadToken(context.Background(), store)
	require.NoError(t, err)
	return token
}

func TestSyncWithoutSignerIsDisconnected(t *testing.T) {
	h := newHarness(t)
	ctx := testContext(t)

	err := h.flow.Sync(ctx, Account{Network: "Testnet"})
	require.ErrorIs(t, err, ErrNoSigner)
	require.False(t, h.flow.Connected())
	require.Equal(t, StateDisconnected, h.flow.State(ctx))
	require.Empty(t, h.srv.CallsTo("GetChallenge"))
	require.Contains(t, h.logs.String(), "No wallet connected")

	_, ok := h.flow.Challenge()
	require.False(t, ok)
}

func TestLoginStoresAuthorizationHeader(t *testing.T) {
	h := newHarness(t)
	h.srv.SetChallenge("42")
	h.srv.SetToken("abc.def")
	ctx := testContext(t)
	signer := newFakeSigner("0.0.1234")

	require.NoError(t, h.flow.Sync(ctx, Account{Network: "TESTNET", Signer: signer}))
	require.True(t, h.flow.Connected())
	require.Equal(t, StateChallengeLoaded, h.flow.State(ctx))

	challenge, ok := h.flow.Challenge()
	require.True(t, ok)
	require.Equal(t, "42", challenge.String())

	req := h.srv.CallsTo("GetChallenge")[0].Request.(*api.ChallengeRequest)
	require.Equal(t, "0.0.1234", req.AccountID)
	require.Equal(t, "testnet", req.Network)

	token, err := h.flow.Login(ctx)
	require.NoError(t, err)
	require.Equal(t, "abc.def", token)
	require.Equal(t, "abc.def", storedToken(t, h.store))
	require.Equal(t, StateAuthenticated, h.flow.State(ctx))

	// exactly one buffer, the keccak of "42", requested as base64
	require.Len(t, signer.calls, 1)
	require.Len(t, signer.calls[0], 1)
	require.Equal(t, keccakLegacy([]byte("42")), signer.calls[0][0])
	require.Equal(t, EncodingBase64, signer.opts[0].Encoding)

	verify := h.srv.CallsTo("VerifyChallenge")
	require.Len(t, verify, 1)
	vreq := verify[0].Request.(*api.VerifyChallengeRequest)
	require.Equal(t, "42", vreq.Payload)
	require.Equal(t, base64.StdEncoding.EncodeToString(signer.sig), vreq.ChallengeResponseBase64)
	require.Equal(t, "0.0.1234", vreq.ChallengeRequest.AccountID)
	require.Equal(t, "testnet", vreq.ChallengeRequest.Network)
}

func TestLoginOverwritesPreviousToken(t *testing.T) {
	h := newHarness(t)
	ctx := testContext(t)
	require.NoError(t, session.SaveToken(ctx, h.store, "old.token"))

	require.NoError(t, h.flow.Sync(ctx, Account{Network: "mainnet", Signer: newFakeSigner("0.0.1")}))
	h.srv.SetToken("new.token")
	_, err := h.flow.Login(ctx)
	require.NoError(t, err)
	require.Equal(t, "new.token", storedToken(t, h.store))
}

func TestLogoutAlwaysClears(t *testing.T) {
	h := newHarness(t)
	ctx := testContext(t)

	// nothing stored yet
	require.NoError(t, h.flow.Logout(ctx))
	require.Empty(t, storedToken(t, h.store))

	require.NoError(t, h.flow.Sync(ctx, Account{Network: "testnet", Signer: newFakeSigner("0.0.1")}))
	_, err := h.flow.Login(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, storedToken(t, h.store))

	require.NoError(t, h.flow.Logout(ctx))
	require.Empty(t, storedToken(t, h.store))
	require.True(t, h.flow.Connected())
	require.Equal(t, StateChallengeLoaded, h.flow.State(ctx))

	// no server call for logout
	require.Len(t, h.srv.Calls(), 2)
}

func TestCorruptSessionFileDoesNotBlock(t *testing.T) {
	srv := apitest.New(t)
	path := filepath.Join(t.TempDir(), session.FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"jwt":"abc.def"`), 0600))
	store := session.NewFileStore(path)
	flow := NewFlow(srv.Client(t).Auth, store, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	ctx := testContext(t)

	require.NoError(t, flow.Logout(ctx))
	require.Empty(t, storedToken(t, store))

	authCtx, err := api.WithAuth(ctx, session.TokenSource(store))
	require.NoError(t, err)
	_, ok := metadata.FromOutgoingContext(authCtx)
	require.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte(`{"jwt":"abc.def"`), 0600))
	require.NoError(t, flow.Sync(ctx, Account{Network: "mainnet", Signer: newFakeSigner("0.0.1")}))
	srv.SetToken("new.token")
	_, err = flow.Login(ctx)
	require.NoError(t, err)
	require.Equal(t, "new.token", storedToken(t, store))
}

func TestSignedPayloadFollowsCurrentChallenge(t *testing.T) {
	h := newHarness(t)
	ctx := testContext(t)
	signer := newFakeSigner("0.0.1")

	h.srv.SetChallenge("42")
	require.NoError(t, h.flow.Sync(ctx, Account{Network: "testnet", Signer: signer}))
	h.srv.SetChallenge("18446744073709551615")
	require.NoError(t, h.flow.Sync(ctx, Account{Network: "testnet", Signer: signer}))

	_, err := h.flow.Login(ctx)
	require.NoError(t, err)
	require.Equal(t, keccakLegacy([]byte("18446744073709551615")), signer.calls[0][0])
	vreq := h.srv.CallsTo("VerifyChallenge")[0].Request.(*api.VerifyChallengeRequest)
	require.Equal(t, "18446744073709551615", vreq.Payload)
}

func TestFailedVerifyKeepsToken(t *testing.T) {
	h := newHarness(t)
	ctx := testContext(t)
	require.NoError(t, session.SaveToken(ctx, h.store, "prior.token"))
	require.NoError(t, h.flow.Sync(ctx, Account{Network: "testnet", Signer: newFakeSigner("0.0.1")}))

	h.srv.FailVerify(status.Error(codes.Unauthenticated, "invalid signature"))
	_, err := h.flow.Login(ctx)
	require.Error(t, err)
	require.Equal(t, codes.Unauthenticated, status.Code(errors.Unwrap(err)))
	require.Equal(t, "prior.token", storedToken(t, h.store))
	require.Contains(t, h.logs.String(), "Error signing challenge")

	// the stale challenge is still there for a retry
	_, ok := h.flow.Challenge()
	require.True(t, ok)
	h.srv.FailVerify(nil)
	_, err = h.flow.Login(ctx)
	require.NoError(t, err)
}

func TestMissingAuthorizationHeader(t *testing.T) {
	h := newHarness(t)
	ctx := testContext(t)
	require.NoError(t, session.SaveToken(ctx, h.store, "prior.token"))
	require.NoError(t, h.flow.Sync(ctx, Account{Network: "testnet", Signer: newFakeSigner("0.0.1")}))

	h.srv.SetToken("")
	_, err := h.flow.Login(ctx)
	require.ErrorIs(t, err, ErrMissingToken)
	require.Equal(t, "prior.token", storedToken(t, h.store))
}

func TestLoginPreconditions(t *testing.T) {
	h := newHarness(t)
	ctx := testContext(t)

	_, err := h.flow.Login(ctx)
	require.ErrorIs(t, err, ErrNoSigner)

	h.srv.FailChallenge(status.Error(codes.Unavailable, "down"))
	require.Error(t, h.flow.Sync(ctx, Account{Network: "testnet", Signer: newFakeSigner("0.0.1")}))
	require.True(t, h.flow.Connected())
	require.Equal(t, StateConnected, h.flow.State(ctx))

	_, err = h.flow.Login(ctx)
	require.ErrorIs(t, err, ErrNoChallenge)
	require.Empty(t, h.srv.CallsTo("VerifyChallenge"))
}

func TestSignerFailures(t *testing.T) {
	h := newHarness(t)
	ctx := testContext(t)
	signer := newFakeSigner("0.0.1")
	require.NoError(t, h.flow.Sync(ctx, Account{Network: "testnet", Signer: signer}))

	signer.count = 2
	_, err := h.flow.Login(ctx)
	require.ErrorIs(t, err, ErrSignatureCount)

	signer.count = 0
	_, err = h.flow.Login(ctx)
	require.ErrorIs(t, err, ErrSignatureCount)

	rejected := errors.New("user rejected")
	signer.count = 1
	signer.err = rejected
	_, err = h.flow.Login(ctx)
	require.ErrorIs(t, err, rejected)

	require.Empty(t, h.srv.CallsTo("VerifyChallenge"))
	require.Empty(t, storedToken(t, h.store))
}

func TestInvalidChallengeMessage(t *testing.T) {
	h := newHarness(t)
	ctx := testContext(t)
	h.srv.SetChallenge("0x2a")

	err := h.flow.Sync(ctx, Account{Network: "testnet", Signer: newFakeSigner("0.0.1")})
	require.ErrorIs(t, err, ErrInvalidChallenge)
	_, ok := h.flow.Challenge()
	require.False(t, ok)
}

func TestChallengeIsScopedToAccountAndNetwork(t *testing.T) {
	h := newHarness(t)
	ctx := testContext(t)
	alice := newFakeSigner("0.0.1")

	require.NoError(t, h.flow.Sync(ctx, Account{Network: "testnet", Signer: alice}))

	// same pair, failed refetch: the old challenge survives
	h.srv.FailChallenge(status.Error(codes.Unavailable, "down"))
	require.Error(t, h.flow.Sync(ctx, Account{Network: "testnet", Signer: alice}))
	_, ok := h.flow.Challenge()
	require.True(t, ok)

	// new network, failed fetch: nothing to sign
	require.Error(t, h.flow.Sync(ctx, Account{Network: "mainnet", Signer: alice}))
	_, ok = h.flow.Challenge()
	require.False(t, ok)

	// new account, same story
	h.srv.FailChallenge(nil)
	require.NoError(t, h.flow.Sync(ctx, Account{Network: "mainnet", Signer: alice}))
	h.srv.FailChallenge(status.Error(codes.Unavailable, "down"))
	require.Error(t, h.flow.Sync(ctx, Account{Network: "mainnet", Signer: newFakeSigner("0.0.2")}))
	_, err := h.flow.Login(ctx)
	require.ErrorIs(t, err, ErrNoChallenge)
}

func TestDisconnectAfterConnect(t *testing.T) {
	h := newHarness(t)
	ctx := testContext(t)
	require.NoError(t, h.flow.Sync(ctx, Account{Network: "testnet", Signer: newFakeSigner("0.0.1")}))
	require.ErrorIs(t, h.flow.Sync(ctx, Account{Network: "testnet"}), ErrNoSigner)

	require.False(t, h.flow.Connected())
	_, err := h.flow.Login(ctx)
	require.ErrorIs(t, err, ErrNoSigner)
	require.Len(t, h.srv.CallsTo("GetChallenge"), 1)
}

func TestFlowMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := newHarness(t, WithMetrics(m))
	ctx := testContext(t)

	require.NoError(t, h.flow.Sync(ctx, Account{Network: "testnet", Signer: newFakeSigner("0.0.1")}))
	h.srv.FailChallenge(status.Error(codes.Unavailable, "down"))
	require.Error(t, h.flow.Sync(ctx, Account{Network: "testnet", Signer: newFakeSigner("0.0.1")}))

	_, err := h.flow.Login(ctx)
	require.NoError(t, err)
	h.srv.SetToken("")
	_, err = h.flow.Login(ctx)
	require.Error(t, err)
	require.NoError(t, h.flow.Logout(ctx))

	require.Equal(t, 1.0, testutil.ToFloat64(m.challengeFetch.WithLabelValues(resultOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.challengeFetch.WithLabelValues(resultError)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.login.WithLabelValues(resultOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.login.WithLabelValues(resultError)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.logout))
	require.Equal(t, 1, testutil.CollectAndCount(m.loginDuration))
}

func TestFlowEvents(t *testing.T) {
	pub := &fakeEvents{}
	h := newHarness(t, WithEventPublisher(pub))
	ctx := testContext(t)

	require.NoError(t, h.flow.Sync(ctx, Account{Network: "Mainnet", Signer: newFakeSigner("0.0.7")}))
	_, err := h.flow.Login(ctx)
	require.NoError(t, err)
	require.NoError(t, h.flow.Logout(ctx))

	require.Equal(t, []recordedEvent{
		{kind: "login", accountID: "0.0.7", network: "mainnet"},
		{kind: "logout"},
	}, pub.events)

	// a broken bus never fails the action
	pub.err = errors.New("bus down")
	_, err = h.flow.Login(ctx)
	require.NoError(t, err)
	require.NoError(t, h.flow.Logout(ctx))
}

func TestNewFlowDefaults(t *testing.T) {
	f := NewFlow(nil, session.NewMemoryStore())
	require.NotNil(t, f.logger)
	require.False(t, f.Connected())
	require.Equal(t, StateDisconnected, f.State(context.Background()))

	// silence the default logger for the next call
	f.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, f.Logout(context.Background()))
}
