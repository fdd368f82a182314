package logic

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"revokeradar/internal/chain"
	"revokeradar/internal/constant"
	"revokeradar/internal/metrics"
	"revokeradar/internal/svc"
	"revokeradar/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeromicro/go-zero/core/jsonx"
	"github.com/zeromicro/go-zero/core/logx"
)

var errNoSigner = errors.New("live mode without a signer")

// RevokeResult collects what was built (and sent) for the positive allowances of a scan.
type RevokeResult struct {
	Findings     []types.AllowanceObservation
	Transactions []types.RevocationTx
	// Hashes is empty in dry-run mode.
	Hashes []common.Hash
}

// RevokeLogic turns positive allowances into approve(spender, 0) transactions.
type RevokeLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewRevokeLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RevokeLogic {
	return &RevokeLogic{
		ctx:    ctx,
		svcCtx: svcCtx,
		Logger: logx.WithContext(ctx),
	}
}

// Revoke builds one revocation per positive observation, numbering them from scan.Nonce.
// In dry-run mode each transaction is only logged; otherwise it is signed and broadcast,
// and the first failure aborts the remaining revocations.
func (l *RevokeLogic) Revoke(scan *ScanResult) (*RevokeResult, error) {
	dryRun := l.svcCtx.Config.Radar.DryRun
	if !dryRun && l.svcCtx.Signer == nil {
		return nil, errNoSigner
	}

	mode := metrics.Mode(dryRun)
	call := context.WithoutCancel(l.ctx)
	nonce := scan.Nonce
	result := &RevokeResult{}

	for _, obs := range scan.Observations {
		if !obs.Positive() {
			continue
		}
		if interrupted(l.ctx) {
			return result, ErrInterrupted
		}

		l.Info(obs.String())
		result.Findings = append(result.Findings, obs)
		metrics.AllowancesFound.WithLabelValues(mode).Inc()

		tx, err := l.BuildRevocation(obs, nonce)
		if err != nil {
			return result, err
		}
		nonce++
		result.Transactions = append(result.Transactions, tx)
		metrics.RevocationsBuilt.WithLabelValues(mode).Inc()

		if dryRun {
			l.logDryRun(tx)
			continue
		}

		hash, err := l.svcCtx.Signer.SignAndSend(call, tx.Transaction())
		if err != nil {
			return result, fmt.Errorf("failed to revoke %s allowance for %s: %w", obs.Token.Symbol, obs.Spender.Hex(), err)
		}
		result.Hashes = append(result.Hashes, hash)
		metrics.RevocationsSent.WithLabelValues(mode).Inc()

		l.Infof("sent: %s", hash.Hex())
		if url := constant.ExplorerTxUrl(l.svcCtx.ChainId, hash.Hex()); url != "" {
			l.Infof("explorer: %s", url)
		}
	}

	return result, nil
}

// BuildRevocation builds the unsigned approve(spender, 0) call for one observation.
func (l *RevokeLogic) BuildRevocation(obs types.AllowanceObservation, nonce uint64) (types.RevocationTx, error) {
	data, err := chain.PackRevoke(obs.Spender)
	if err != nil {
		return types.RevocationTx{}, err
	}
	var chainId *big.Int
	if l.svcCtx.ChainId != nil {
		chainId = new(big.Int).Set(l.svcCtx.ChainId)
	}
	return types.RevocationTx{
		From:     l.svcCtx.Wallet,
		To:       obs.Token.Address,
		Spender:  obs.Spender,
		Nonce:    nonce,
		Gas:      constant.RevokeGasLimit,
		GasPrice: constant.RevokeGasPrice(),
		Value:    new(big.Int),
		Data:     data,
		ChainId:  chainId,
	}, nil
}

func (l *RevokeLogic) logDryRun(tx types.RevocationTx) {
	raw, err := jsonx.MarshalToString(tx)
	if err != nil {
		l.Errorf("failed to encode revocation: %v", err)
		return
	}
	l.Infof("DRY RUN: raw_tx = %s", raw)
}
