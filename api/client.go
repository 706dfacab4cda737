package api

// API Client-
//
// Files:
//   config.go    - service names, metadata keys and defaults
//   types.go     - request/response messages for all three services
//   codec.go     - json wire codec registered with grpc
//   base.go      - client factory (one shared conn, three service handles)
//   auth.go      - ApiAuth stub (challenge, verify)
//   public.go    - ApiServicePublic stub (matches, positions, prediction intents)
//   clob.go      - ClobPublic stub (order book)
//   headers.go   - per-call authorization metadata from the persisted token
//
// Wire format:
//   Every service stub sends content-subtype "json" (application/grpc+json).
//   The server must have the json codec registered; a protobuf-only
//   deployment of api.ApiAuth or the other services will reject these
//   calls. Only the health check uses the default proto codec.
//
// Usage:
//   client, err := api.NewClient(api.Options{Target: "127.0.0.1:8090"})
//   resp, err := client.Auth.GetChallenge(ctx, &api.ChallengeRequest{...})
//   ctx, err = api.WithAuth(ctx, session.TokenSource(store))
//   matches, err := client.Public.GetAllMatches(ctx, &api.PageRequest{Limit: 100})
