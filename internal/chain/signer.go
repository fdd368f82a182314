package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	evmTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

type txSender interface {
	SendTransaction(ctx context.Context, tx *evmTypes.Transaction) error
}

// KeySigner signs legacy transactions with a local key (EIP-155) and submits them.
type KeySigner struct {
	sender txSender
	key    *ecdsa.PrivateKey
	signer evmTypes.Signer
}

func NewKeySigner(sender txSender, key *ecdsa.PrivateKey, chainId *big.Int) *KeySigner {
	return &KeySigner{
		sender: sender,
		key:    key,
		signer: evmTypes.NewEIP155Signer(chainId),
	}
}

// Address is the account the key signs for.
func (s *KeySigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

func (s *KeySigner) Sign(tx *evmTypes.Transaction) (*evmTypes.Transaction, error) {
	signed, err := evmTypes.SignTx(tx, s.signer, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

// SignAndSend signs tx, broadcasts it and returns its hash.
func (s *KeySigner) SignAndSend(ctx context.Context, tx *evmTypes.Transaction) (common.Hash, error) {
	signed, err := s.Sign(tx)
	if err != nil {
		return common.Hash{}, err
	}

	if err := s.sender.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction %s: %w", signed.Hash().Hex(), err)
	}
	return signed.Hash(), nil
}
