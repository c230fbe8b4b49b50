package ethbridge

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapkit/internal/swap"
)

// adapterABI covers the four adapter operations this client drives.
const adapterABI = `[
  {"type":"function","name":"getQuote","stateMutability":"view",
   "inputs":[{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},{"name":"amountIn","type":"uint256"}],
   "outputs":[{"name":"amountOut","type":"uint256"}]},
  {"type":"function","name":"getReserves","stateMutability":"view",
   "inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"}],
   "outputs":[{"name":"reserveA","type":"uint256"},{"name":"reserveB","type":"uint256"}]},
  {"type":"function","name":"swapExactInput","stateMutability":"nonpayable",
   "inputs":[{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},{"name":"amountIn","type":"uint256"},{"name":"minOut","type":"uint256"}],
   "outputs":[{"name":"amountOut","type":"uint256"}]},
  {"type":"function","name":"addLiquidity","stateMutability":"nonpayable",
   "inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"},{"name":"amountA","type":"uint256"},{"name":"amountB","type":"uint256"},{"name":"slippageTolerance","type":"uint256"}],
   "outputs":[{"name":"usedA","type":"uint256"},{"name":"usedB","type":"uint256"},{"name":"liquidity","type":"uint256"}]}
]`

// Adapter drives the AMM adapter contract. It implements swap.AdapterContract.
type Adapter struct {
	bridge   *Bridge
	address  common.Address
	contract *bind.BoundContract
	logger   *zap.Logger
}

func NewAdapter(b *Bridge, address common.Address) (*Adapter, error) {
	parsed, err := abi.JSON(strings.NewReader(adapterABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse adapter ABI: %w", err)
	}
	return &Adapter{
		bridge:   b,
		address:  address,
		contract: bind.NewBoundContract(address, parsed, b.client, b.client, b.client),
		logger:   b.logger,
	}, nil
}

// Spender is the adapter contract itself: it pulls the input tokens from the
// owner, so approvals must name it.
func (a *Adapter) Spender() common.Address {
	return a.address
}

func (a *Adapter) GetQuote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	var out []interface{}
	err := a.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getQuote", tokenIn, tokenOut, amountIn)
	if err != nil {
		return nil, fmt.Errorf("getQuote: %w", err)
	}
	return out[0].(*big.Int), nil
}

func (a *Adapter) GetReserves(ctx context.Context, tokenA, tokenB common.Address) (*big.Int, *big.Int, error) {
	var out []interface{}
	err := a.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getReserves", tokenA, tokenB)
	if err != nil {
		return nil, nil, fmt.Errorf("getReserves: %w", err)
	}
	return out[0].(*big.Int), out[1].(*big.Int), nil
}

// SwapExactInput submits the swap and waits for it to be mined. The executed
// output amount is not observable from a transaction receipt without event
// decoding, so the receipt carries a nil AmountOut.
func (a *Adapter) SwapExactInput(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, minOut *big.Int) (*swap.SwapReceipt, error) {
	tx, err := a.contract.Transact(a.bridge.transactOpts(ctx), "swapExactInput", tokenIn, tokenOut, amountIn, minOut)
	if err != nil {
		return nil, fmt.Errorf("swapExactInput: %w", err)
	}
	a.logger.Debug("swap submitted", zap.String("tx", tx.Hash().Hex()))

	if _, err := a.bridge.waitMined(ctx, tx); err != nil {
		return nil, fmt.Errorf("swapExactInput: %w", err)
	}
	return &swap.SwapReceipt{TxRef: tx.Hash().Hex()}, nil
}

func (a *Adapter) AddLiquidity(ctx context.Context, tokenA, tokenB common.Address, amountA, amountB *big.Int, toleranceBps uint64) (*swap.LiquidityReceipt, error) {
	tx, err := a.contract.Transact(a.bridge.transactOpts(ctx), "addLiquidity",
		tokenA, tokenB, amountA, amountB, new(big.Int).SetUint64(toleranceBps))
	if err != nil {
		return nil, fmt.Errorf("addLiquidity: %w", err)
	}
	a.logger.Debug("addLiquidity submitted", zap.String("tx", tx.Hash().Hex()))

	if _, err := a.bridge.waitMined(ctx, tx); err != nil {
		return nil, fmt.Errorf("addLiquidity: %w", err)
	}
	return &swap.LiquidityReceipt{TxRef: tx.Hash().Hex()}, nil
}
