package bitcoin

import (
	"context"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"

	"github.com/chinmay1088/prism/auth"
)

func TestAccountIDPerNetwork(t *testing.T) {
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	main, err := NewSigner(key, &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(main.AccountID(), "bc1q"), main.AccountID())

	test, err := NewSigner(key, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(test.AccountID(), "tb1q"), test.AccountID())
}

func TestKnownAddress(t *testing.T) {
	// private key 1, the generator point
	raw, err := hex.DecodeString("0000000000000000000000000000000000000000000000000000000000000001")
	require.NoError(t, err)
	key, _ := btcec.PrivKeyFromBytes(raw)

	s, err := NewSigner(key, &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.Equal(t, "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", s.AccountID())

	script, err := s.PkScript()
	require.NoError(t, err)
	require.Equal(t, "0014751e76e8199196d454941c45d1b3a323f1433bd6", hex.EncodeToString(script))
}

func TestSignVerifies(t *testing.T) {
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	s, err := NewSigner(key, &chaincfg.MainNetParams)
	require.NoError(t, err)

	msg := auth.ChallengeDigest(big.NewInt(42))
	sigs, err := s.Sign(context.Background(), [][]byte{msg}, auth.SignOptions{Encoding: auth.EncodingBase64})
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	require.True(t, Verify(s.PublicKey(), msg, sigs[0].Signature))
	require.False(t, Verify(s.PublicKey(), []byte("other"), sigs[0].Signature))
	require.False(t, Verify(s.PublicKey(), msg, []byte{0x30, 0x01}))
}
