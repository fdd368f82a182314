package logic

import (
	"context"
	"fmt"

	"revokeradar/internal/metrics"
	"revokeradar/internal/svc"
	"revokeradar/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeromicro/go-zero/core/logx"
)

// ScanResult is everything one cycle learned about the wallet.
type ScanResult struct {
	Tokens []types.TokenRecord
	// Nonce is the wallet's transaction count at the start of the cycle.
	Nonce uint64
	// Observations holds one entry per (token, spender) pair, zero allowances included,
	// in token order then spender order.
	Observations []types.AllowanceObservation
}

// ScanLogic reads every configured spender's allowance on every token the wallet holds.
type ScanLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewScanLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ScanLogic {
	return &ScanLogic{
		ctx:    ctx,
		svcCtx: svcCtx,
		Logger: logx.WithContext(ctx),
	}
}

// Scan lists the wallet's tokens, reads its nonce and then every allowance. The first
// failing read aborts the scan. Cancelling the context lets the in-flight call finish and
// then returns ErrInterrupted.
func (l *ScanLogic) Scan() (*ScanResult, error) {
	wallet := l.svcCtx.Wallet
	mode := metrics.Mode(l.svcCtx.Config.Radar.DryRun)
	call := context.WithoutCancel(l.ctx)

	tokens, err := l.svcCtx.Indexer.ListTokens(call, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	metrics.TokensDiscovered.WithLabelValues(mode).Set(float64(len(tokens)))
	l.Infof("wallet %s holds %d tokens", wallet.Hex(), len(tokens))
	if interrupted(l.ctx) {
		return nil, ErrInterrupted
	}

	nonce, err := l.svcCtx.Chain.NonceAt(call, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to read nonce: %w", err)
	}

	result := &ScanResult{
		Tokens:       tokens,
		Nonce:        nonce,
		Observations: make([]types.AllowanceObservation, 0, len(tokens)*len(l.svcCtx.Spenders)),
	}

	for _, token := range tokens {
		for _, spender := range l.svcCtx.Spenders {
			if interrupted(l.ctx) {
				return nil, ErrInterrupted
			}

			obs, err := l.readAllowance(call, wallet, token, spender)
			if err != nil {
				return nil, err
			}
			metrics.PairsScanned.WithLabelValues(mode).Inc()
			result.Observations = append(result.Observations, obs)
		}
	}

	l.Infof("scanned %d pairs, nonce %d", len(result.Observations), nonce)
	return result, nil
}

func (l *ScanLogic) readAllowance(ctx context.Context, wallet common.Address, token types.TokenRecord, spender common.Address) (types.AllowanceObservation, error) {
	allowance, err := l.svcCtx.Chain.Allowance(ctx, token.Address, wallet, spender)
	if err != nil {
		return types.AllowanceObservation{}, fmt.Errorf("failed to read %s allowance for %s: %w", token.Symbol, spender.Hex(), err)
	}
	return types.NewAllowanceObservation(token, spender, allowance), nil
}
