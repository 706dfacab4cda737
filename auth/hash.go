package auth

import (
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
)

// ChallengePayload is the decimal text of the challenge. It is both what
// gets hashed and what verify receives as payload, so the server must hash
// the same string.
func ChallengePayload(challenge *big.Int) string {
	return challenge.Text(10)
}

// ChallengeDigest is keccak256 over the utf-8 bytes of ChallengePayload
func ChallengeDigest(challenge *big.Int) []byte {
	return crypto.Keccak256([]byte(ChallengePayload(challenge)))
}
