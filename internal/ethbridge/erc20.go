package ethbridge

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"swapkit/internal/swap"
)

// erc20ABI is the token subset the client consumes.
const erc20ABI = `[
  {"type":"function","name":"balanceOf","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"allowance","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable",
   "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"symbol","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"decimals","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`

// TokenBackend resolves and caches ERC-20 bindings by address. It implements
// swap.TokenBackend.
type TokenBackend struct {
	bridge *Bridge
	parsed abi.ABI

	mu     sync.Mutex
	tokens map[common.Address]*ERC20
}

func NewTokenBackend(b *Bridge) (*TokenBackend, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %w", err)
	}
	return &TokenBackend{
		bridge: b,
		parsed: parsed,
		tokens: make(map[common.Address]*ERC20),
	}, nil
}

func (tb *TokenBackend) TokenContract(addr common.Address) swap.TokenContract {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if t, ok := tb.tokens[addr]; ok {
		return t
	}
	t := &ERC20{
		bridge:   tb.bridge,
		address:  addr,
		contract: bind.NewBoundContract(addr, tb.parsed, tb.bridge.client, tb.bridge.client, tb.bridge.client),
	}
	tb.tokens[addr] = t
	return t
}

// ERC20 is one bound token contract.
type ERC20 struct {
	bridge   *Bridge
	address  common.Address
	contract *bind.BoundContract
}

func (t *ERC20) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	var out []interface{}
	err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("balanceOf %s: %w", t.address.Hex(), err)
	}
	return out[0].(*big.Int), nil
}

func (t *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	var out []interface{}
	err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("allowance %s: %w", t.address.Hex(), err)
	}
	return out[0].(*big.Int), nil
}

func (t *ERC20) Approve(ctx context.Context, spender common.Address, amount *big.Int) (swap.ApprovalTx, error) {
	tx, err := t.contract.Transact(t.bridge.transactOpts(ctx), "approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("approve %s: %w", t.address.Hex(), err)
	}
	t.bridge.logger.Debug("approval submitted",
		zap.String("token", t.address.Hex()),
		zap.String("tx", tx.Hash().Hex()))
	return &approvalTx{bridge: t.bridge, tx: tx}, nil
}

// approvalTx waits on a submitted approval.
type approvalTx struct {
	bridge *Bridge
	tx     *types.Transaction
}

func (a *approvalTx) Ref() string {
	return a.tx.Hash().Hex()
}

func (a *approvalTx) Wait(ctx context.Context) error {
	_, err := a.bridge.waitMined(ctx, a.tx)
	return err
}
