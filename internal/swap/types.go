// =============================
// File: internal/swap/types.go
// =============================
package swap

import (
	"math/big"

	"swapkit/internal/token"
)

// NetworkState is the guard's view of the session network.
type NetworkState int32

const (
	NetworkUnknown NetworkState = iota
	NetworkCorrect
	NetworkIncorrect
)

func (s NetworkState) String() string {
	switch s {
	case NetworkCorrect:
		return "correct"
	case NetworkIncorrect:
		return "incorrect"
	default:
		return "unknown"
	}
}

// Quote is an advisory exchange quote. Seq is the logical time assigned by
// the QuoteTracker; the input fields tag the quote so a consumer can discard
// a result that no longer matches current user input.
type Quote struct {
	TokenIn   token.Token
	TokenOut  token.Token
	AmountIn  token.Amount
	AmountOut token.Amount
	Network   NetworkState
	Seq       uint64
}

// ReservePair is a snapshot of the pool reserves for a token pair, refreshed
// on demand and never mutated locally.
type ReservePair struct {
	A token.Amount
	B token.Amount
}

// HasLiquidity reports whether both reserves are positive.
func (r ReservePair) HasLiquidity() bool {
	return r.A.Sign() > 0 && r.B.Sign() > 0
}

// SwapRequest is a user-initiated exact-input swap.
type SwapRequest struct {
	TokenIn   token.Token
	TokenOut  token.Token
	AmountIn  string // human decimal form
	Tolerance string // percent, e.g. "1" or "0.5"
}

// SwapResult reports a completed swap with every computed parameter for
// auditability.
type SwapResult struct {
	Quote      *Quote
	MinimumOut token.Amount
	AmountOut  token.Amount // zero raw when the backend cannot observe it
	Approval   *ApprovalOutcome
	TxRef      string
	Balances   map[string]token.Amount
	Network    NetworkState
}

// LiquidityRequest is a user-initiated liquidity provision for a pair.
type LiquidityRequest struct {
	TokenA    token.Token
	TokenB    token.Token
	AmountA   string
	AmountB   string
	Tolerance string
}

// LiquidityResult reports a completed liquidity provision.
type LiquidityResult struct {
	AmountA, AmountB token.Amount
	ToleranceBps     uint64
	ApprovalA        *ApprovalOutcome
	ApprovalB        *ApprovalOutcome
	TxRef            string
	UsedA, UsedB     token.Amount
	LiquidityMinted  *big.Int
	Balances         map[string]token.Amount
	Reserves         *ReservePair
	Network          NetworkState
}

// ReserveReport is the read-only pool status surface. Network records the
// guard state the read ran under; read-only flows proceed in any state.
type ReserveReport struct {
	Reserves ReservePair
	Rate     string // tokenB per tokenA at current reserves, "" without liquidity
	Network  NetworkState
}

// BalanceReport is the read-only balance surface over the configured tokens.
type BalanceReport struct {
	Balances map[string]token.Amount
	Network  NetworkState
}
