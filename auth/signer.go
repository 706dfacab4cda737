package auth

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// Encoding names a text form of raw bytes
type Encoding string

const (
	EncodingBase64 Encoding = "base64"
	EncodingHex    Encoding = "hex"
	EncodingBase58 Encoding = "base58"
)

// Valid reports whether e is a known encoding
func (e Encoding) Valid() bool {
	switch e {
	case EncodingBase64, EncodingHex, EncodingBase58:
		return true
	}
	return false
}

// SignOptions is passed through to the signer. Encoding is the form remote
// signers should use for buffers on their own transport.
type SignOptions struct {
	Encoding Encoding
}

// Signature is one raw signature, in the order of the signed buffers
type Signature struct {
	Signature []byte
}

// Signer holds key material for one account. Implementations live in
// chains/ethereum, chains/solana and chains/bitcoin.
type Signer interface {
	AccountID() string
	Sign(ctx context.Context, msgs [][]byte, opts SignOptions) ([]Signature, error)
}

// EncodeSignature renders raw signature bytes as text
func EncodeSignature(sig []byte, enc Encoding) (string, error) {
	switch enc {
	case EncodingBase64:
		return base64.StdEncoding.EncodeToString(sig), nil
	case EncodingHex:
		return hex.EncodeToString(sig), nil
	case EncodingBase58:
		return base58.Encode(sig), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
}

// DecodeSignature parses text produced by EncodeSignature. Hex input may
// carry a 0x prefix.
func DecodeSignature(s string, enc Encoding) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch enc {
	case EncodingBase64:
		out, err = base64.StdEncoding.DecodeString(s)
	case EncodingHex:
		out, err = hex.DecodeString(strings.TrimPrefix(s, "0x"))
	case EncodingBase58:
		out, err = base58.Decode(s)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s signature: %w", enc, err)
	}
	return out, nil
}
