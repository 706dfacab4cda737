package wallet

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/gagliardetto/solana-go"
)

// deriveSecp256k1Key walks a BIP32 path from the seed. Used for both
// ethereum and bitcoin keys.
func deriveSecp256k1Key(seed []byte, path string) (*btcec.PrivateKey, error) {
	indices, err := accounts.ParseDerivationPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse derivation path: %w", err)
	}

	// the params only affect extended key serialization, never the keys
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	for _, index := range indices {
		key, err = key.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child %d: %w", index, err)
		}
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to extract private key: %w", err)
	}
	return priv, nil
}

// deriveSolanaKey follows SLIP-0010 for ed25519, where every level is
// hardened. This matches the common wallet derivation for m/44'/501'/x'/y'.
func deriveSolanaKey(seed []byte, path string) (solana.PrivateKey, error) {
	indices, err := accounts.ParseDerivationPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse derivation path: %w", err)
	}

	key, chainCode := slip10Master(seed)
	for _, index := range indices {
		if index < hdkeychain.HardenedKeyStart {
			return nil, fmt.Errorf("ed25519 only supports hardened derivation, got index %d", index)
		}
		key, chainCode = slip10Child(key, chainCode, index)
	}

	return solana.PrivateKey(ed25519.NewKeyFromSeed(key)), nil
}

func slip10Master(seed []byte) ([]byte, []byte) {
	sum := hmacSHA512([]byte("ed25519 seed"), seed)
	return sum[:32], sum[32:]
}

func slip10Child(key, chainCode []byte, index uint32) ([]byte, []byte) {
	data := make([]byte, 0, 1+32+4)
	data = append(data, 0x00)
	data = append(data, key...)
	data = binary.BigEndian.AppendUint32(data, index)

	sum := hmacSHA512(chainCode, data)
	return sum[:32], sum[32:]
}

func hmacSHA512(key, data []byte) []byte {
	h := hmac.New(sha512.New, key)
	h.Write(data)
	return h.Sum(nil)
}
