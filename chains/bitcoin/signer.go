package bitcoin

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"

	"github.com/chinmay1088/prism/auth"
)

// Signer signs with a secp256k1 key. The account id is the native segwit
// (P2WPKH) address on the configured chain.
type Signer struct {
	key     *btcec.PrivateKey
	address *btcutil.AddressWitnessPubKeyHash
}

// NewSigner creates a signer for key on params (MainNetParams, TestNet3Params)
func NewSigner(key *btcec.PrivateKey, params *chaincfg.Params) (*Signer, error) {
	witnessProg := btcutil.Hash160(key.PubKey().SerializeCompressed())
	address, err := btcutil.NewAddressWitnessPubKeyHash(witnessProg, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bitcoin address: %w", err)
	}
	return &Signer{key: key, address: address}, nil
}

// AccountID returns the bech32 address
func (s *Signer) AccountID() string {
	return s.address.EncodeAddress()
}

// PublicKey returns the compressed public key
func (s *Signer) PublicKey() *btcec.PublicKey {
	return s.key.PubKey()
}

// PkScript returns the output script paying to the account address
func (s *Signer) PkScript() ([]byte, error) {
	script, err := txscript.PayToAddrScript(s.address)
	if err != nil {
		return nil, fmt.Errorf("failed to build script: %w", err)
	}
	return script, nil
}

// Sign returns a DER encoded signature over sha256d(msg) for every msg
func (s *Signer) Sign(ctx context.Context, msgs [][]byte, opts auth.SignOptions) ([]auth.Signature, error) {
	if opts.Encoding != "" && !opts.Encoding.Valid() {
		return nil, fmt.Errorf("%w: %q", auth.ErrUnknownEncoding, opts.Encoding)
	}

	sigs := make([]auth.Signature, 0, len(msgs))
	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sig := ecdsa.Sign(s.key, chainhash.DoubleHashB(msg))
		sigs = append(sigs, auth.Signature{Signature: sig.Serialize()})
	}
	return sigs, nil
}

// Verify checks a DER signature produced by Sign
func Verify(pub *btcec.PublicKey, msg, der []byte) bool {
	sig, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		return false
	}
	return sig.Verify(chainhash.DoubleHashB(msg), pub)
}
