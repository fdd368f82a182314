package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	evmTypes "github.com/ethereum/go-ethereum/core/types"
)

// RevocationTx is an unsigned approve(spender, 0) call. It is only ever logged or
// handed to the signer, never stored.
type RevocationTx struct {
	From     common.Address `json:"from"`
	To       common.Address `json:"to"`
	Spender  common.Address `json:"spender"`
	Nonce    uint64         `json:"nonce"`
	Gas      uint64         `json:"gas"`
	GasPrice *big.Int       `json:"gasPrice"`
	Value    *big.Int       `json:"value"`
	Data     hexutil.Bytes  `json:"data"`
	ChainId  *big.Int       `json:"chainId"`
}

// Transaction converts the revocation into a legacy transaction ready for EIP-155 signing.
func (t *RevocationTx) Transaction() *evmTypes.Transaction {
	to := t.To
	value := t.Value
	if value == nil {
		value = new(big.Int)
	}
	return evmTypes.NewTx(&evmTypes.LegacyTx{
		Nonce:    t.Nonce,
		To:       &to,
		Value:    new(big.Int).Set(value),
		Gas:      t.Gas,
		GasPrice: new(big.Int).Set(t.GasPrice),
		Data:     common.CopyBytes(t.Data),
	})
}
