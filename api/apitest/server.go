// Package apitest runs an in-process fake of the auth, public and clob
// services over bufconn.
package apitest

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/chinmay1088/prism/api"
)

const bufSize = 1024 * 1024

// Call is one request seen by the fake
type Call struct {
	Method        string
	Authorization string
	RequestID     string
	ContentType   string
	Request       interface{}
}

// Server is a scriptable fake. The zero config answers every call with
// empty data; challenge and token default to "42" and "abc.def".
type Server struct {
	mu           sync.Mutex
	challenge    string
	challengeErr error
	token        string
	verifyErr    error
	verifyResp   *api.VerifyChallengeResponse
	matches      []*api.Match
	positions    []*api.Position
	intents      []*api.PredictionIntent
	books        map[string]*api.OrderBook
	calls        []Call

	lis    *bufconn.Listener
	srv    *grpc.Server
	health *health.Server
}

// New starts the fake and stops it when the test ends
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		challenge:  "42",
		token:      "abc.def",
		verifyResp: &api.VerifyChallengeResponse{Success: true, Roles: []string{"user"}},
		books:      make(map[string]*api.OrderBook),
		lis:        bufconn.Listen(bufSize),
		srv:        grpc.NewServer(),
		health:     health.NewServer(),
	}
	s.srv.RegisterService(&authDesc, s)
	s.srv.RegisterService(&publicDesc, s)
	s.srv.RegisterService(&clobDesc, s)
	healthpb.RegisterHealthServer(s.srv, s.health)

	go func() {
		_ = s.srv.Serve(s.lis)
	}()
	t.Cleanup(s.srv.Stop)
	return s
}

// Dialer returns the bufconn dial option
func (s *Server) Dialer() grpc.DialOption {
	return grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
		return s.lis.Dial()
	})
}

// Client builds an api.Client wired to the fake
func (s *Server) Client(t testing.TB, opts ...api.Option) *api.Client {
	t.Helper()
	opts = append([]api.Option{api.WithDialOptions(s.Dialer())}, opts...)
	client, err := api.NewClient(api.Options{Target: "passthrough:///bufnet"}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// SetChallenge sets the message returned by GetChallenge
func (s *Server) SetChallenge(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenge = message
}

// FailChallenge makes GetChallenge fail with err until reset with nil
func (s *Server) FailChallenge(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challengeErr = err
}

// SetToken sets the authorization header sent by VerifyChallenge; "" omits it
func (s *Server) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// FailVerify makes VerifyChallenge fail with err until reset with nil
func (s *Server) FailVerify(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifyErr = err
}

// SetMatches sets the rows served by GetAllMatches
func (s *Server) SetMatches(matches ...*api.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = matches
}

// SetPositions sets the rows served by GetAllPositions
func (s *Server) SetPositions(positions ...*api.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = positions
}

// SetIntents sets the rows served by GetAllPredictionIntents
func (s *Server) SetIntents(intents ...*api.PredictionIntent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents = intents
}

// SetBook stores the book served for book.MarketID
func (s *Server) SetBook(book *api.OrderBook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[book.MarketID] = book
}

// SetServing flips the overall health status
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_SERVING
	if !serving {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
}

// Calls returns every request seen so far, oldest first
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo filters Calls by method name (e.g. "GetChallenge")
func (s *Server) CallsTo(method string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) record(ctx context.Context, method string, req interface{}) {
	call := Call{Method: method, Request: req}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(api.AuthorizationHeader); len(v) > 0 {
			call.Authorization = v[0]
		}
		if v := md.Get(api.RequestIDHeader); len(v) > 0 {
			call.RequestID = v[0]
		}
		if v := md.Get("content-type"); len(v) > 0 {
			call.ContentType = v[0]
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *Server) getChallenge(ctx context.Context, in *api.ChallengeRequest) (interface{}, error) {
	s.record(ctx, "GetChallenge", in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.challengeErr != nil {
		return nil, s.challengeErr
	}
	if in.AccountID == "" {
		return nil, status.Error(codes.InvalidArgument, "account id is required")
	}
	return &api.ChallengeResponse{Message: s.challenge}, nil
}

func (s *Server) verifyChallenge(ctx context.Context, in *api.VerifyChallengeRequest) (interface{}, error) {
	s.record(ctx, "VerifyChallenge", in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	if s.token != "" {
		if err := grpc.SetHeader(ctx, metadata.Pairs(api.AuthorizationHeader, s.token)); err != nil {
			return nil, err
		}
	}
	resp := *s.verifyResp
	return &resp, nil
}

func (s *Server) getAllMatches(ctx context.Context, in *api.PageRequest) (interface{}, error) {
	s.record(ctx, "GetAllMatches", in)
	s.mu.Lock()
	defer s.mu.Unlock()
	return &api.MatchesResponse{Matches: page(s.matches, in)}, nil
}

func (s *Server) getAllPositions(ctx context.Context, in *api.PageRequest) (interface{}, error) {
	s.record(ctx, "GetAllPositions", in)
	s.mu.Lock()
	defer s.mu.Unlock()
	return &api.PositionsResponse{Positions: page(s.positions, in)}, nil
}

func (s *Server) getAllPredictionIntents(ctx context.Context, in *api.PageRequest) (interface{}, error) {
	s.record(ctx, "GetAllPredictionIntents", in)
	s.mu.Lock()
	defer s.mu.Unlock()
	return &api.PredictionIntentsResponse{PredictionIntents: page(s.intents, in)}, nil
}

func (s *Server) getOrderBook(ctx context.Context, in *api.OrderBookRequest) (interface{}, error) {
	s.record(ctx, "GetOrderBook", in)
	s.mu.Lock()
	defer s.mu.Unlock()
	book, ok := s.books[in.MarketID]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "market %s not found", in.MarketID)
	}
	return book, nil
}

func page[T any](rows []T, req *api.PageRequest) []T {
	offset := int(req.Offset)
	if offset < 0 || offset >= len(rows) {
		return []T{}
	}
	end := len(rows)
	if req.Limit > 0 && offset+int(req.Limit) < end {
		end = offset + int(req.Limit)
	}
	return rows[offset:end]
}

func unary[Req any](service, method string, call func(*Server, context.Context, *Req) (interface{}, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(*Server)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + service + "/" + method}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

type fakeServer interface {
	record(ctx context.Context, method string, req interface{})
}

var authDesc = grpc.ServiceDesc{
	ServiceName: api.AuthServiceName,
	HandlerType: (*fakeServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(api.AuthServiceName, "GetChallenge", (*Server).getChallenge),
		unary(api.AuthServiceName, "VerifyChallenge", (*Server).verifyChallenge),
	},
}

var publicDesc = grpc.ServiceDesc{
	ServiceName: api.PublicServiceName,
	HandlerType: (*fakeServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(api.PublicServiceName, "GetAllMatches", (*Server).getAllMatches),
		unary(api.PublicServiceName, "GetAllPositions", (*Server).getAllPositions),
		unary(api.PublicServiceName, "GetAllPredictionIntents", (*Server).getAllPredictionIntents),
	},
}

var clobDesc = grpc.ServiceDesc{
	ServiceName: api.ClobServiceName,
	HandlerType: (*fakeServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(api.ClobServiceName, "GetOrderBook", (*Server).getOrderBook),
	},
}
