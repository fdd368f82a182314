package svc

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"revokeradar/internal/chain"
	"revokeradar/internal/config"
	"revokeradar/internal/indexer"
	"revokeradar/internal/types"

	"github.com/ethereum/go-ethereum/common"
	evmTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/zeromicro/go-zero/core/logx"
)

// TokenLister finds the ERC-20 tokens an address holds.
type TokenLister interface {
	ListTokens(ctx context.Context, owner common.Address) ([]types.TokenRecord, error)
}

// ChainReader is the read side of the RPC endpoint.
type ChainReader interface {
	NonceAt(ctx context.Context, account common.Address) (uint64, error)
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
}

// Broadcaster signs and submits a transaction, returning its hash.
type Broadcaster interface {
	SignAndSend(ctx context.Context, tx *evmTypes.Transaction) (common.Hash, error)
}

type ServiceContext struct {
	Config   config.Config
	ChainId  *big.Int
	Wallet   common.Address
	Spenders []common.Address
	Indexer  TokenLister
	Chain    ChainReader
	// Signer is nil in dry-run mode.
	Signer Broadcaster

	mu         sync.RWMutex
	state      string
	lastReport *types.CycleReport
}

// NewServiceContext wires the components for an already validated configuration and a
// live chain connection.
func NewServiceContext(c config.Config, client *chain.Client) (*ServiceContext, error) {
	ctx := &ServiceContext{
		Config:   c,
		ChainId:  client.ChainID(),
		Wallet:   c.Radar.Wallet(),
		Spenders: c.Radar.SpenderAddresses(),
		Indexer:  indexer.NewEthplorerClient(c.Ethplorer.ApiUrl, c.Ethplorer.ApiKey, c.Ethplorer.RequestTimeout()),
		Chain:    client,
	}

	if !c.Radar.DryRun {
		signer, err := newSigner(c.Radar, ctx.Wallet, client, ctx.ChainId)
		if err != nil {
			return nil, err
		}
		ctx.Signer = signer
	}

	return ctx, nil
}

type txSender interface {
	SendTransaction(ctx context.Context, tx *evmTypes.Transaction) error
}

// newSigner builds the live-mode signer and refuses a key that does not sign for wallet.
func newSigner(radar config.RadarConf, wallet common.Address, sender txSender, chainId *big.Int) (*chain.KeySigner, error) {
	key, err := radar.SigningKey()
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}

	signer := chain.NewKeySigner(sender, key, chainId)
	if account := signer.Address(); account != wallet {
		return nil, fmt.Errorf("signing key belongs to %s, not wallet %s", account.Hex(), wallet.Hex())
	}
	logx.Infof("revocations will be signed by %s", signer.Address().Hex())
	return signer, nil
}

// SetState records the driver state for the status endpoint.
func (s *ServiceContext) SetState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Publish replaces the latest cycle report. The report must not be modified afterwards.
func (s *ServiceContext) Publish(report *types.CycleReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReport = report
}

// Status returns a snapshot safe to serve concurrently with the driver.
func (s *ServiceContext) Status() *types.StatusResp {
	s.mu.RLock()
	state, report := s.state, s.lastReport
	s.mu.RUnlock()

	spenders := make([]string, 0, len(s.Spenders))
	for _, spender := range s.Spenders {
		spenders = append(spenders, spender.Hex())
	}

	resp := &types.StatusResp{
		State:        state,
		DryRun:       s.Config.Radar.DryRun,
		Wallet:       s.Wallet.Hex(),
		Spenders:     spenders,
		PollInterval: s.Config.Radar.PollInterval,
		LastCycle:    report,
	}
	if s.ChainId != nil {
		resp.ChainId = s.ChainId.String()
	}
	return resp
}
