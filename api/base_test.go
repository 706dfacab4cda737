package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/chinmay1088/prism/api"
	"github.com/chinmay1088/prism/api/apitest"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNewClientSharesOneConn(t *testing.T) {
	srv := apitest.New(t)
	client := srv.Client(t)

	require.NotNil(t, client.Conn())
	require.NotNil(t, client.Auth)
	require.NotNil(t, client.Public)
	require.NotNil(t, client.Clob)
}

func TestNewClientDefaultsTarget(t *testing.T) {
	client, err := api.NewClient(api.Options{})
	require.NoError(t, err)
	defer client.Close()
	require.Equal(t, api.DefaultTarget, client.Conn().Target())
}

func TestChallengeRoundTrip(t *testing.T) {
	srv := apitest.New(t)
	srv.SetChallenge("123456789")
	client := srv.Client(t)
	ctx := testContext(t)

	resp, err := client.Auth.GetChallenge(ctx, &api.ChallengeRequest{AccountID: "0xabc", Network: "testnet"})
	require.NoError(t, err)
	require.Equal(t, "123456789", resp.Message)

	calls := srv.CallsTo("GetChallenge")
	require.Len(t, calls, 1)
	req := calls[0].Request.(*api.ChallengeRequest)
	require.Equal(t, "0xabc", req.AccountID)
	require.Equal(t, "testnet", req.Network)
	require.NotEmpty(t, calls[0].RequestID)
	// json wire format, not proto
	require.Equal(t, "application/grpc+json", calls[0].ContentType)
}

func TestVerifyReturnsAuthorizationHeader(t *testing.T) {
	srv := apitest.New(t)
	srv.SetToken("abc.def")
	client := srv.Client(t)
	ctx := testContext(t)

	var header metadata.MD
	resp, err := client.Auth.VerifyChallenge(ctx, &api.VerifyChallengeRequest{
		ChallengeResponseBase64: "c2ln",
		Payload:                 "42",
		ChallengeRequest:        &api.ChallengeRequest{AccountID: "0xabc", Network: "mainnet"},
	}, grpc.Header(&header))
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, []string{"abc.def"}, header.Get(api.AuthorizationHeader))

	req := srv.CallsTo("VerifyChallenge")[0].Request.(*api.VerifyChallengeRequest)
	require.Equal(t, "42", req.Payload)
	require.Equal(t, "c2ln", req.ChallengeResponseBase64)
	require.Equal(t, "mainnet", req.ChallengeRequest.Network)
}

func TestServerErrorsKeepStatusCode(t *testing.T) {
	srv := apitest.New(t)
	srv.FailVerify(status.Error(codes.Unauthenticated, "bad signature"))
	client := srv.Client(t)

	_, err := client.Auth.VerifyChallenge(testContext(t), &api.VerifyChallengeRequest{Payload: "1"})
	require.Error(t, err)
	require.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestPublicQueriesPaginate(t *testing.T) {
	srv := apitest.New(t)
	srv.SetMatches(
		&api.Match{TxID1: "a", TxID2: "b", MarketID: "m1", Qty1: decimal.NewFromInt(3), Qty2: decimal.NewFromInt(3)},
		&api.Match{TxID1: "c", TxID2: "d", MarketID: "m1", Qty1: decimal.RequireFromString("1.5"), Qty2: decimal.RequireFromString("1.5")},
		&api.Match{TxID1: "e", TxID2: "f", MarketID: "m2"},
	)
	srv.SetPositions(&api.Position{MarketID: "m1", EvmAddress: "0xabc", Yes: 10})
	srv.SetIntents(&api.PredictionIntent{TxID: "t1", MarketID: "m1", PriceUSD: decimal.RequireFromString("0.42")})
	client := srv.Client(t)
	ctx := testContext(t)

	matches, err := client.Public.GetAllMatches(ctx, &api.PageRequest{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, matches.Matches, 2)
	require.Equal(t, "c", matches.Matches[0].TxID1)
	require.True(t, matches.Matches[0].Qty1.Equal(decimal.RequireFromString("1.5")))

	positions, err := client.Public.GetAllPositions(ctx, &api.PageRequest{Limit: api.DefaultPageLimit})
	require.NoError(t, err)
	require.Len(t, positions.Positions, 1)
	require.Equal(t, uint64(10), positions.Positions[0].Yes)

	intents, err := client.Public.GetAllPredictionIntents(ctx, &api.PageRequest{Limit: api.DefaultPageLimit})
	require.NoError(t, err)
	require.Len(t, intents.PredictionIntents, 1)
	require.Equal(t, "0.42", intents.PredictionIntents[0].PriceUSD.String())

	empty, err := client.Public.GetAllMatches(ctx, &api.PageRequest{Limit: 10, Offset: 10})
	require.NoError(t, err)
	require.Empty(t, empty.Matches)
}

func TestOrderBook(t *testing.T) {
	srv := apitest.New(t)
	srv.SetBook(&api.OrderBook{
		MarketID: "m1",
		Bids:     []*api.PriceLevel{{PriceUSD: decimal.RequireFromString("0.40"), Qty: decimal.NewFromInt(5)}},
		Asks:     []*api.PriceLevel{{PriceUSD: decimal.RequireFromString("0.45"), Qty: decimal.NewFromInt(7)}},
	})
	client := srv.Client(t)
	ctx := testContext(t)

	book, err := client.Clob.GetOrderBook(ctx, &api.OrderBookRequest{MarketID: "m1"})
	require.NoError(t, err)
	require.Len(t, book.Bids, 1)
	require.Len(t, book.Asks, 1)
	require.True(t, book.Asks[0].Qty.Equal(decimal.NewFromInt(7)))

	_, err = client.Clob.GetOrderBook(ctx, &api.OrderBookRequest{MarketID: "missing"})
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestHealth(t *testing.T) {
	srv := apitest.New(t)
	client := srv.Client(t)
	ctx := testContext(t)

	st, err := client.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, "SERVING", st)

	srv.SetServing(false)
	st, err = client.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, "NOT_SERVING", st)
}

func TestRequestIDIsKeptWhenSet(t *testing.T) {
	srv := apitest.New(t)
	client := srv.Client(t)
	ctx := metadata.AppendToOutgoingContext(testContext(t), api.RequestIDHeader, "req-1")

	_, err := client.Auth.GetChallenge(ctx, &api.ChallengeRequest{AccountID: "0xabc", Network: "testnet"})
	require.NoError(t, err)
	require.Equal(t, "req-1", srv.CallsTo("GetChallenge")[0].RequestID)
}
