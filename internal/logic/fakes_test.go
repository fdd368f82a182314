package logic

import (
	"context"
	"math/big"
	"sync"
	"time"

	"revokeradar/internal/config"
	"revokeradar/internal/svc"
	"revokeradar/internal/types"

	"github.com/ethereum/go-ethereum/common"
	evmTypes "github.com/ethereum/go-ethereum/core/types"
)

var (
	testWallet   = common.HexToAddress("0x2c7536E3605D9C16a7a3D7b1898e529396a65c23")
	testSpender1 = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testSpender2 = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testUSDX     = types.TokenRecord{
		Address:  common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		Symbol:   "USDX",
		Decimals: 6,
	}
	testDAI = types.TokenRecord{
		Address:  common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
		Symbol:   "DAI",
		Decimals: 18,
	}
)

type fakeIndexer struct {
	tokens []types.TokenRecord
	err    error
	calls  int
	// onCall runs before ListTokens returns, ctxErr records the call context state after it.
	onCall func()
	ctxErr error
}

func (f *fakeIndexer) ListTokens(ctx context.Context, owner common.Address) ([]types.TokenRecord, error) {
	f.calls++
	if f.onCall != nil {
		f.onCall()
	}
	f.ctxErr = ctx.Err()
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens, nil
}

type pair struct {
	token   common.Address
	spender common.Address
}

type fakeChain struct {
	nonce          uint64
	nonceErr       error
	allowances     map[pair]*big.Int
	allowanceErr   map[pair]error
	nonceCalls     int
	allowanceCalls []pair
}

func newFakeChain(nonce uint64) *fakeChain {
	return &fakeChain{
		nonce:        nonce,
		allowances:   map[pair]*big.Int{},
		allowanceErr: map[pair]error{},
	}
}

func (f *fakeChain) set(token types.TokenRecord, spender common.Address, allowance int64) {
	f.allowances[pair{token.Address, spender}] = big.NewInt(allowance)
}

func (f *fakeChain) NonceAt(_ context.Context, account common.Address) (uint64, error) {
	f.nonceCalls++
	if f.nonceErr != nil {
		return 0, f.nonceErr
	}
	return f.nonce, nil
}

func (f *fakeChain) Allowance(_ context.Context, token, owner, spender common.Address) (*big.Int, error) {
	p := pair{token, spender}
	f.allowanceCalls = append(f.allowanceCalls, p)
	if err, ok := f.allowanceErr[p]; ok {
		return nil, err
	}
	if v, ok := f.allowances[p]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

type fakeSigner struct {
	txs []*evmTypes.Transaction
	err error
}

func (f *fakeSigner) SignAndSend(_ context.Context, tx *evmTypes.Transaction) (common.Hash, error) {
	if f.err != nil {
		return common.Hash{}, f.err
	}
	f.txs = append(f.txs, tx)
	return common.BigToHash(big.NewInt(int64(len(f.txs)))), nil
}

// fakeClock fires the first `fires` sleeps immediately and cancels the driver on the next one.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
	fires  int
	cancel context.CancelFunc
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	if len(c.sleeps) > c.fires {
		c.cancel()
		return make(chan time.Time)
	}
	ch := make(chan time.Time, 1)
	c.now = c.now.Add(d)
	ch <- c.now
	return ch
}

func newTestService(dryRun bool, indexer svc.TokenLister, chain svc.ChainReader, signer svc.Broadcaster) *svc.ServiceContext {
	spenders := []common.Address{testSpender1, testSpender2}
	var c config.Config
	c.Radar = config.RadarConf{
		WalletAddress: testWallet.Hex(),
		Spenders:      []string{testSpender1.Hex(), testSpender2.Hex()},
		DryRun:        dryRun,
		PollInterval:  60,
	}
	ctx := &svc.ServiceContext{
		Config:   c,
		ChainId:  big.NewInt(1),
		Wallet:   testWallet,
		Spenders: spenders,
		Indexer:  indexer,
		Chain:    chain,
	}
	if signer != nil {
		ctx.Signer = signer
	}
	return ctx
}
