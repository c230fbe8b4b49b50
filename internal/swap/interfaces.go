// =============================
// File: internal/swap/interfaces.go
// =============================
package swap

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AdapterContract is the external AMM adapter the orchestrators drive. The
// production implementation lives in internal/ethbridge; tests use stubs.
// Pricing and fee accounting are opaque to this client.
type AdapterContract interface {
	// Spender is the address token approvals must authorize.
	Spender() common.Address

	GetQuote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error)
	GetReserves(ctx context.Context, tokenA, tokenB common.Address) (reserveA, reserveB *big.Int, err error)

	// SwapExactInput executes a swap with a minimum-output floor enforced by
	// the contract. AmountOut in the receipt may be nil when the backend
	// cannot observe return values of a state-changing call.
	SwapExactInput(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, minOut *big.Int) (*SwapReceipt, error)

	AddLiquidity(ctx context.Context, tokenA, tokenB common.Address, amountA, amountB *big.Int, toleranceBps uint64) (*LiquidityReceipt, error)
}

// SwapReceipt reports a confirmed swap execution.
type SwapReceipt struct {
	TxRef     string
	AmountOut *big.Int
}

// LiquidityReceipt reports a confirmed addLiquidity execution.
type LiquidityReceipt struct {
	TxRef           string
	UsedA, UsedB    *big.Int
	LiquidityMinted *big.Int
}

// TokenContract is the ERC-20 subset the client consumes.
type TokenContract interface {
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)

	// Approve submits an approval transaction; the returned handle blocks on
	// Wait until the transaction is confirmed, not merely submitted.
	Approve(ctx context.Context, spender common.Address, amount *big.Int) (ApprovalTx, error)
}

// ApprovalTx is a submitted approval awaiting confirmation.
type ApprovalTx interface {
	Ref() string
	Wait(ctx context.Context) error
}

// TokenBackend resolves token contracts by address.
type TokenBackend interface {
	TokenContract(addr common.Address) TokenContract
}

// Session exposes the wallet/network primitives of the signing session.
type Session interface {
	Owner() common.Address
	ChainID(ctx context.Context) (uint64, error)

	// OnChainChanged registers a callback invoked with the new chain id
	// whenever the session observes a network change.
	OnChainChanged(fn func(chainID uint64))

	// RequestSwitch asks the session to move to the target network. Sessions
	// bound to a fixed RPC endpoint report this as unsupported.
	RequestSwitch(ctx context.Context, chainID uint64) error
}
