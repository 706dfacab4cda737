package api

import "time"

// service names, as registered on the server
const (
	AuthServiceName   = "api.ApiAuth"
	PublicServiceName = "api.ApiServicePublic"
	ClobServiceName   = "clob.ClobPublic"
)

// metadata keys
const (
	// AuthorizationHeader carries the session token in both directions:
	// verifyChallenge returns it as a response header and authenticated
	// calls send it back as request metadata.
	AuthorizationHeader = "authorization"
	RequestIDHeader     = "x-request-id"
)

// defaults
const (
	// DefaultTarget is the local grpc proxy in front of the api.
	DefaultTarget = "127.0.0.1:8090"

	DefaultPageLimit        = 100
	DefaultKeepaliveTime    = 30 * time.Second
	DefaultKeepaliveTimeout = 10 * time.Second
)

func methodPath(service, method string) string {
	return "/" + service + "/" + method
}
