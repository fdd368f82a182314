package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	evmTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func testKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	return key
}

type recordingSender struct {
	sent []*evmTypes.Transaction
	err  error
}

func (s *recordingSender) SendTransaction(_ context.Context, tx *evmTypes.Transaction) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, tx)
	return nil
}

func revokeTx(t *testing.T) *evmTypes.Transaction {
	t.Helper()
	data, err := PackRevoke(testSpender)
	require.NoError(t, err)
	token := common.HexToAddress("0x3333333333333333333333333333333333333333")
	return evmTypes.NewTx(&evmTypes.LegacyTx{
		Nonce:    3,
		To:       &token,
		Gas:      60000,
		GasPrice: big.NewInt(20_000_000_000),
		Value:    big.NewInt(0),
		Data:     data,
	})
}

func TestKeySigner_Sign(t *testing.T) {
	key := testKey(t)
	chainId := big.NewInt(1)
	signer := NewKeySigner(&recordingSender{}, key, chainId)

	signed, err := signer.Sign(revokeTx(t))
	require.NoError(t, err)

	from, err := evmTypes.Sender(evmTypes.NewEIP155Signer(chainId), signed)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), from)
	assert.Equal(t, signer.Address(), from)
	assert.Equal(t, int64(1), signed.ChainId().Int64())
	assert.True(t, signed.Protected())
}

func TestKeySigner_SignAndSend(t *testing.T) {
	sender := &recordingSender{}
	signer := NewKeySigner(sender, testKey(t), big.NewInt(1))

	hash, err := signer.SignAndSend(context.Background(), revokeTx(t))
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, sender.sent[0].Hash(), hash)
	assert.Equal(t, uint64(3), sender.sent[0].Nonce())
}

func TestKeySigner_SendFails(t *testing.T) {
	sender := &recordingSender{err: errors.New("nonce too low")}
	signer := NewKeySigner(sender, testKey(t), big.NewInt(1))

	hash, err := signer.SignAndSend(context.Background(), revokeTx(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonce too low")
	assert.Equal(t, common.Hash{}, hash)
}
