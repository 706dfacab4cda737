package solana

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/chinmay1088/prism/auth"
)

// Signer signs with an ed25519 key. The account id is the base58 public key.
type Signer struct {
	key solana.PrivateKey
}

// NewSigner creates a signer for key
func NewSigner(key solana.PrivateKey) (*Signer, error) {
	if len(key) != 64 {
		return nil, fmt.Errorf("invalid solana private key length: %d", len(key))
	}
	return &Signer{key: key}, nil
}

// AccountID returns the base58 public key
func (s *Signer) AccountID() string {
	return s.key.PublicKey().String()
}

// PublicKey returns the account public key
func (s *Signer) PublicKey() solana.PublicKey {
	return s.key.PublicKey()
}

// Sign returns a 64 byte ed25519 signature over every msg as is
func (s *Signer) Sign(ctx context.Context, msgs [][]byte, opts auth.SignOptions) ([]auth.Signature, error) {
	if opts.Encoding != "" && !opts.Encoding.Valid() {
		return nil, fmt.Errorf("%w: %q", auth.ErrUnknownEncoding, opts.Encoding)
	}

	sigs := make([]auth.Signature, 0, len(msgs))
	for i, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sig, err := s.key.Sign(msg)
		if err != nil {
			return nil, fmt.Errorf("failed to sign message %d: %w", i, err)
		}
		sigs = append(sigs, auth.Signature{Signature: sig[:]})
	}
	return sigs, nil
}
