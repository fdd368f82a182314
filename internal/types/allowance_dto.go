package types

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"revokeradar/internal/constant"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// TokenRecord is one token the indexer reports for the wallet.
type TokenRecord struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Decimals int32          `json:"decimals"`
}

// AllowanceObservation is the allowance of one (token, spender) pair read in a cycle.
type AllowanceObservation struct {
	Token     TokenRecord    `json:"token"`
	Spender   common.Address `json:"spender"`
	Allowance *big.Int       `json:"allowance"`
	// Amount is Allowance scaled down by the token decimals.
	Amount    string `json:"amount"`
	Unlimited bool   `json:"unlimited"`
}

func NewAllowanceObservation(token TokenRecord, spender common.Address, allowance *big.Int) AllowanceObservation {
	if allowance == nil {
		allowance = new(big.Int)
	}
	return AllowanceObservation{
		Token:     token,
		Spender:   spender,
		Allowance: allowance,
		Amount:    FormatAmount(allowance, token.Decimals),
		Unlimited: constant.IsUnlimitedAllowance(allowance),
	}
}

// Positive reports whether the spender can still move tokens.
func (o AllowanceObservation) Positive() bool {
	return o.Allowance != nil && o.Allowance.Sign() > 0
}

func (o AllowanceObservation) String() string {
	return fmt.Sprintf("%s: allowed %s → revoke@%s", o.Token.Symbol, o.Amount, o.Spender.Hex())
}

// FormatAmount renders raw / 10^decimals exactly, always with a fractional part ("5.0").
func FormatAmount(raw *big.Int, decimals int32) string {
	if raw == nil {
		return "0.0"
	}
	s := decimal.NewFromBigInt(raw, -decimals).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// CycleReport summarises one scan-and-revoke cycle. Only the latest one is kept.
type CycleReport struct {
	Id           string                 `json:"id"`
	Cycle        uint64                 `json:"cycle"`
	StartedAt    time.Time              `json:"started_at"`
	FinishedAt   time.Time              `json:"finished_at"`
	DryRun       bool                   `json:"dry_run"`
	Tokens       int                    `json:"tokens"`
	PairsScanned int                    `json:"pairs_scanned"`
	StartNonce   uint64                 `json:"start_nonce"`
	Findings     []AllowanceObservation `json:"findings"`
	Transactions []RevocationTx         `json:"transactions"`
	TxHashes     []string               `json:"tx_hashes,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// StatusResp is served by GET /api/status.
type StatusResp struct {
	State        string       `json:"state"`
	DryRun       bool         `json:"dry_run"`
	Wallet       string       `json:"wallet"`
	Spenders     []string     `json:"spenders"`
	PollInterval int64        `json:"poll_interval"`
	ChainId      string       `json:"chain_id"`
	LastCycle    *CycleReport `json:"last_cycle,omitempty"`
}

type HealthResp struct {
	Status string `json:"status"`
}
