package constant

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUnlimitedAllowance(t *testing.T) {
	assert.True(t, IsUnlimitedAllowance(MaxUint256))
	assert.True(t, IsUnlimitedAllowance(new(big.Int).Sub(MaxUint256, big.NewInt(1_000_000))))
	assert.False(t, IsUnlimitedAllowance(big.NewInt(5_000_000)))
	assert.False(t, IsUnlimitedAllowance(nil))
}

func TestRevokeGasPrice(t *testing.T) {
	assert.Equal(t, "20000000000", RevokeGasPrice().String())

	// callers get their own copy
	RevokeGasPrice().SetInt64(1)
	assert.Equal(t, "20000000000", RevokeGasPrice().String())
}

func TestExplorerTxUrl(t *testing.T) {
	hash := "0xabc"
	assert.Equal(t, "https://etherscan.io/tx/0xabc", ExplorerTxUrl(big.NewInt(1), hash))
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", ExplorerTxUrl(big.NewInt(11155111), hash))
	assert.Empty(t, ExplorerTxUrl(big.NewInt(31337), hash))
	assert.Empty(t, ExplorerTxUrl(nil, hash))
}
