package api

import (
	"github.com/shopspring/decimal"
)

// ChallengeRequest identifies the (account, network) pair a challenge is issued for
type ChallengeRequest struct {
	AccountID string `json:"accountId"`
	Network   string `json:"network"`
}

// ChallengeResponse carries the challenge as a decimal string
type ChallengeResponse struct {
	Message string `json:"message"`
}

// VerifyChallengeRequest submits a signed challenge
type VerifyChallengeRequest struct {
	ChallengeResponseBase64 string            `json:"challengeResponseBase64"`
	Payload                 string            `json:"payload"`
	ChallengeRequest        *ChallengeRequest `json:"challengeRequest"`
}

// VerifyChallengeResponse is the verify body. The session token itself
// travels in the authorization response header.
type VerifyChallengeResponse struct {
	Success bool     `json:"success"`
	Roles   []string `json:"roles,omitempty"`
}

// PageRequest is the limit/offset pair shared by the list calls
type PageRequest struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

// Match represents two filled prediction intents
type Match struct {
	TxID1     string          `json:"txId1"`
	TxID2     string          `json:"txId2"`
	CreatedAt string          `json:"createdAt"`
	MarketID  string          `json:"marketId"`
	TxHash    string          `json:"txHash"`
	Qty1      decimal.Decimal `json:"qty1"`
	Qty2      decimal.Decimal `json:"qty2"`
}

// MatchesResponse is one page of matches
type MatchesResponse struct {
	Matches []*Match `json:"matches"`
}

// Position represents a user's yes/no holding in a market
type Position struct {
	MarketID   string `json:"marketId"`
	EvmAddress string `json:"evmAddress"`
	Yes        uint64 `json:"yes"`
	No         uint64 `json:"no"`
	UpdatedAt  string `json:"updatedAt"`
	CreatedAt  string `json:"createdAt"`
}

// PositionsResponse is one page of positions
type PositionsResponse struct {
	Positions []*Position `json:"positions"`
}

// PredictionIntent represents an open order
type PredictionIntent struct {
	TxID        string          `json:"txId"`
	Net         string          `json:"net"`
	MarketID    string          `json:"marketId"`
	GeneratedAt string          `json:"generatedAt"`
	AccountID   string          `json:"accountId"`
	MarketLimit decimal.Decimal `json:"marketLimit"`
	PriceUSD    decimal.Decimal `json:"priceUsd"`
	Qty         decimal.Decimal `json:"qty"`
}

// PredictionIntentsResponse is one page of prediction intents
type PredictionIntentsResponse struct {
	PredictionIntents []*PredictionIntent `json:"predictionIntents"`
}

// OrderBookRequest selects a market
type OrderBookRequest struct {
	MarketID string `json:"marketId"`
}

// PriceLevel is an aggregated book level
type PriceLevel struct {
	PriceUSD decimal.Decimal `json:"priceUsd"`
	Qty      decimal.Decimal `json:"qty"`
}

// OrderBook holds both sides of a market, best price first
type OrderBook struct {
	MarketID string        `json:"marketId"`
	Bids     []*PriceLevel `json:"bids"`
	Asks     []*PriceLevel `json:"asks"`
}
