package swap

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"swapkit/internal/token"
)

var (
	testWETH = token.Token{
		Address:  common.HexToAddress("0x0000000000000000000000000000000000000001"),
		Symbol:   "WETH",
		Decimals: 18,
	}
	testUSDT = token.Token{
		Address:  common.HexToAddress("0x0000000000000000000000000000000000000002"),
		Symbol:   "USDT",
		Decimals: 6,
	}

	testOwner   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testSpender = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

// callLog records the order of external calls across stubs.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) record(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) index(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, c := range l.calls {
		if c == name {
			return i
		}
	}
	return -1
}

func (l *callLog) count(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c == name {
			n++
		}
	}
	return n
}

// stubAdapter implements AdapterContract in memory.
type stubAdapter struct {
	log *callLog

	quoteOut *big.Int
	quoteErr error

	reserveA, reserveB *big.Int
	reserveErr         error

	swapReceipt *SwapReceipt
	swapErr     error

	liqReceipt *LiquidityReceipt
	liqErr     error
}

func (a *stubAdapter) Spender() common.Address { return testSpender }

func (a *stubAdapter) GetQuote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	a.log.record("getQuote")
	if a.quoteErr != nil {
		return nil, a.quoteErr
	}
	return new(big.Int).Set(a.quoteOut), nil
}

func (a *stubAdapter) GetReserves(ctx context.Context, tokenA, tokenB common.Address) (*big.Int, *big.Int, error) {
	a.log.record("getReserves")
	if a.reserveErr != nil {
		return nil, nil, a.reserveErr
	}
	return new(big.Int).Set(a.reserveA), new(big.Int).Set(a.reserveB), nil
}

func (a *stubAdapter) SwapExactInput(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, minOut *big.Int) (*SwapReceipt, error) {
	a.log.record("swap")
	if a.swapErr != nil {
		return nil, a.swapErr
	}
	return a.swapReceipt, nil
}

func (a *stubAdapter) AddLiquidity(ctx context.Context, tokenA, tokenB common.Address, amountA, amountB *big.Int, toleranceBps uint64) (*LiquidityReceipt, error) {
	a.log.record("addLiquidity")
	if a.liqErr != nil {
		return nil, a.liqErr
	}
	return a.liqReceipt, nil
}

// stubToken implements TokenContract. Approve confirms instantly and, unless
// lagReads is set, the new allowance is visible on the next read.
type stubToken struct {
	log    *callLog
	symbol string

	mu           sync.Mutex
	balance      *big.Int
	allowance    *big.Int
	allowanceErr error
	approveErr   error
	waitErr      error
	lagReads     int // reads after approval that still see the old allowance
	pending      *big.Int
	approved     *big.Int // last amount passed to Approve
}

func newStubToken(log *callLog, symbol string, balance, allowance int64) *stubToken {
	return &stubToken{
		log:       log,
		symbol:    symbol,
		balance:   big.NewInt(balance),
		allowance: big.NewInt(allowance),
	}
}

func (s *stubToken) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	s.log.record("balanceOf:" + s.symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Set(s.balance), nil
}

func (s *stubToken) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	s.log.record("allowance:" + s.symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.allowanceErr != nil {
		return nil, s.allowanceErr
	}
	if s.pending != nil {
		if s.lagReads > 0 {
			s.lagReads--
		} else {
			s.allowance = s.pending
			s.pending = nil
		}
	}
	return new(big.Int).Set(s.allowance), nil
}

func (s *stubToken) Approve(ctx context.Context, spender common.Address, amount *big.Int) (ApprovalTx, error) {
	s.log.record("approve:" + s.symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.approveErr != nil {
		return nil, s.approveErr
	}
	s.approved = new(big.Int).Set(amount)
	s.pending = new(big.Int).Set(amount)
	return &stubApprovalTx{token: s}, nil
}

type stubApprovalTx struct {
	token *stubToken
}

func (s *stubApprovalTx) Ref() string { return "0xapproval-" + s.token.symbol }

func (s *stubApprovalTx) Wait(ctx context.Context) error {
	s.token.log.record("wait:" + s.token.symbol)
	return s.token.waitErr
}

// stubBackend implements TokenBackend over a fixed address table.
type stubBackend struct {
	tokens map[common.Address]*stubToken
}

func (b *stubBackend) TokenContract(addr common.Address) TokenContract {
	return b.tokens[addr]
}

// stubSession implements Session with a fixed owner and chain id.
type stubSession struct {
	chainID   uint64
	chainErr  error
	mu        sync.Mutex
	callbacks []func(uint64)
}

func (s *stubSession) Owner() common.Address { return testOwner }

func (s *stubSession) ChainID(ctx context.Context) (uint64, error) {
	if s.chainErr != nil {
		return 0, s.chainErr
	}
	return s.chainID, nil
}

func (s *stubSession) OnChainChanged(fn func(chainID uint64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

func (s *stubSession) RequestSwitch(ctx context.Context, chainID uint64) error { return nil }

func (s *stubSession) emitChange(chainID uint64) {
	s.mu.Lock()
	s.chainID = chainID
	callbacks := append([]func(uint64){}, s.callbacks...)
	s.mu.Unlock()
	for _, fn := range callbacks {
		fn(chainID)
	}
}
