package auth

import "errors"

var (
	// ErrNoSigner means no wallet is connected
	ErrNoSigner = errors.New("no wallet connected")
	// ErrNoChallenge means login was attempted before a challenge was fetched
	ErrNoChallenge = errors.New("no challenge fetched")
	// ErrInvalidChallenge means the server sent a message that is not a base-10 integer
	ErrInvalidChallenge = errors.New("challenge is not a decimal integer")
	// ErrSignatureCount means the signer did not return exactly one signature
	ErrSignatureCount = errors.New("signer must return exactly one signature")
	// ErrMissingToken means verify succeeded without an authorization header
	ErrMissingToken = errors.New("verify response has no authorization header")
	// ErrUnknownEncoding is returned for an unsupported signature encoding
	ErrUnknownEncoding = errors.New("unknown signature encoding")
)
