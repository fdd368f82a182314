package constant

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/params"
)

const (
	// RevokeGasLimit is the fixed gas limit of every approve(spender, 0) transaction.
	RevokeGasLimit uint64 = 60000
	// RevokeGasPriceGwei is the fixed legacy gas price, no estimation is performed.
	RevokeGasPriceGwei int64 = 20

	// DefaultTokenDecimals applies when the indexer does not report decimals.
	DefaultTokenDecimals = 18
	// MaxTokenDecimals is the largest value ERC-20 decimals() (a uint8) can return.
	MaxTokenDecimals = 255
	// UnknownTokenSymbol is displayed when the indexer does not report a symbol.
	UnknownTokenSymbol = "?"

	DefaultEthplorerApiUrl = "https://api.ethplorer.io"
)

// MaxUint256 is the allowance value wallets usually grant for "infinite" approvals.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// RevokeGasPrice returns the fixed gas price in wei. A fresh value is returned on
// every call so callers may keep it inside a transaction without aliasing.
func RevokeGasPrice() *big.Int {
	return new(big.Int).Mul(big.NewInt(RevokeGasPriceGwei), big.NewInt(params.GWei))
}

// IsUnlimitedAllowance reports whether an allowance is above 90% of MaxUint256,
// which is how "approve max" grants show up after partial spending.
func IsUnlimitedAllowance(allowance *big.Int) bool {
	if allowance == nil {
		return false
	}
	threshold := new(big.Int).Div(MaxUint256, big.NewInt(10))
	threshold.Mul(threshold, big.NewInt(9))
	return allowance.Cmp(threshold) > 0
}

// explorerTxUrls maps chain ids to block explorer transaction pages.
var explorerTxUrls = map[uint64]string{
	1:        "https://etherscan.io/tx/%s",
	11155111: "https://sepolia.etherscan.io/tx/%s",
	17000:    "https://holesky.etherscan.io/tx/%s",
	56:       "https://bscscan.com/tx/%s",
	97:       "https://testnet.bscscan.com/tx/%s",
	137:      "https://polygonscan.com/tx/%s",
	42161:    "https://arbiscan.io/tx/%s",
	10:       "https://optimistic.etherscan.io/tx/%s",
	8453:     "https://basescan.org/tx/%s",
}

// ExplorerTxUrl returns the explorer link of a transaction, or "" for unknown chains.
func ExplorerTxUrl(chainId *big.Int, txHash string) string {
	if chainId == nil || !chainId.IsUint64() {
		return ""
	}
	if template, ok := explorerTxUrls[chainId.Uint64()]; ok {
		return fmt.Sprintf(template, txHash)
	}
	return ""
}
