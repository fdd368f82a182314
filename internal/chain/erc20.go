package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Only the two ERC-20 methods the radar needs.
const erc20ABIJSON = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"payable":false,"stateMutability":"nonpayable","type":"function"}
]`

var erc20ABI = mustParseABI(erc20ABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse ERC20 ABI: %v", err))
	}
	return parsed
}

// PackAllowance builds the calldata of allowance(owner, spender).
func PackAllowance(owner, spender common.Address) ([]byte, error) {
	data, err := erc20ABI.Pack("allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("failed to pack allowance calldata: %w", err)
	}
	return data, nil
}

// UnpackAllowance decodes the uint256 returned by allowance.
func UnpackAllowance(out []byte) (*big.Int, error) {
	values, err := erc20ABI.Unpack("allowance", out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack allowance result: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("allowance returned %d values", len(values))
	}
	allowance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("allowance returned %T", values[0])
	}
	return allowance, nil
}

// PackRevoke builds the calldata of approve(spender, 0).
func PackRevoke(spender common.Address) ([]byte, error) {
	data, err := erc20ABI.Pack("approve", spender, big.NewInt(0))
	if err != nil {
		return nil, fmt.Errorf("failed to pack approve calldata: %w", err)
	}
	return data, nil
}
