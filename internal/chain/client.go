package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	evmTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client is the RPC endpoint as the radar sees it: nonce reads, allowance calls and raw
// transaction submission.
type Client struct {
	eth     *ethclient.Client
	chainId *big.Int
	limiter *Limiter
}

// Dial connects to rpcUrl and proves liveness with an eth_chainId round trip.
// A nil limiter leaves calls unthrottled.
func Dial(ctx context.Context, rpcUrl string, limiter *Limiter) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain: %w", err)
	}

	chainId, err := eth.ChainID(ctx)
	recordCall("eth_chainId", err)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("chain endpoint is not responding: %w", err)
	}

	if limiter == nil {
		limiter = NewLimiter(0)
	}
	return &Client{eth: eth, chainId: chainId, limiter: limiter}, nil
}

// ChainID is the id reported at dial time.
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainId)
}

func (c *Client) Close() {
	c.eth.Close()
}

// NonceAt returns the transaction count of account at the latest block.
func (c *Client) NonceAt(ctx context.Context, account common.Address) (uint64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	nonce, err := c.eth.NonceAt(ctx, account, nil)
	recordCall("eth_getTransactionCount", err)
	if err != nil {
		return 0, fmt.Errorf("failed to get nonce: %w", err)
	}
	return nonce, nil
}

// Allowance calls token.allowance(owner, spender) at the latest block.
func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	data, err := PackAllowance(owner, spender)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: data,
	}, nil)
	recordCall("eth_call", err)
	if err != nil {
		return nil, fmt.Errorf("allowance call on %s failed: %w", token.Hex(), err)
	}

	allowance, err := UnpackAllowance(out)
	if err != nil {
		return nil, fmt.Errorf("token %s: %w", token.Hex(), err)
	}
	return allowance, nil
}

func (c *Client) SendTransaction(ctx context.Context, tx *evmTypes.Transaction) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	err := c.eth.SendTransaction(ctx, tx)
	recordCall("eth_sendRawTransaction", err)
	return err
}
