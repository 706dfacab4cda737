package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chinmay1088/prism/auth"
)

// Signer signs with a secp256k1 key. The account id is the checksummed
// address.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewSigner creates a signer for key
func NewSigner(key *ecdsa.PrivateKey) *Signer {
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// AccountID returns the checksummed address
func (s *Signer) AccountID() string {
	return s.address.Hex()
}

// Address returns the account address
func (s *Signer) Address() common.Address {
	return s.address
}

// PublicKey returns the compressed public key as 0x hex
func (s *Signer) PublicKey() string {
	return hexutil.Encode(crypto.CompressPubkey(&s.key.PublicKey))
}

// Sign returns a 65 byte [R || S || V] signature over keccak256(msg) for
// every msg.
func (s *Signer) Sign(ctx context.Context, msgs [][]byte, opts auth.SignOptions) ([]auth.Signature, error) {
	if opts.Encoding != "" && !opts.Encoding.Valid() {
		return nil, fmt.Errorf("%w: %q", auth.ErrUnknownEncoding, opts.Encoding)
	}

	sigs := make([]auth.Signature, 0, len(msgs))
	for i, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sig, err := crypto.Sign(crypto.Keccak256(msg), s.key)
		if err != nil {
			return nil, fmt.Errorf("failed to sign message %d: %w", i, err)
		}
		sigs = append(sigs, auth.Signature{Signature: sig})
	}
	return sigs, nil
}

// Verify checks that sig over msg recovers to address
func Verify(address common.Address, msg, sig []byte) bool {
	pub, err := crypto.SigToPub(crypto.Keccak256(msg), sig)
	if err != nil {
		return false
	}
	return crypto.PubkeyToAddress(*pub) == address
}
