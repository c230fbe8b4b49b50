// =============================
// File: internal/swap/approval.go
// =============================
package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapkit/internal/token"
)

// ApprovalOutcome reports what EnsureAllowance did.
type ApprovalOutcome struct {
	AlreadySufficient bool
	TxRef             string // set when an approval was issued
	Allowance         *big.Int
}

// ApprovalGate ensures a spender's allowance covers an intended transfer
// before the primary action executes. It approves exactly the required
// amount, never an unbounded maximum: bounding the approval limits the blast
// radius of a compromised spender.
type ApprovalGate struct {
	logger      *zap.Logger
	confirmWait time.Duration
}

func NewApprovalGate(logger *zap.Logger, confirmWait time.Duration) *ApprovalGate {
	if confirmWait <= 0 {
		confirmWait = 90 * time.Second
	}
	return &ApprovalGate{logger: logger, confirmWait: confirmWait}
}

var errAllowanceLagging = errors.New("allowance does not reflect the confirmed approval yet")

// EnsureAllowance reads the current allowance and, only if insufficient,
// issues an approval for exactly required and blocks until it is confirmed
// and observable through a fresh allowance read. Allowance is read-then-
// conditionally-write; nothing is cached past this call.
func (g *ApprovalGate) EnsureAllowance(ctx context.Context, tc TokenContract, owner, spender common.Address, required token.Amount) (*ApprovalOutcome, error) {
	current, err := tc.Allowance(ctx, owner, spender)
	if err != nil {
		return nil, fmt.Errorf("%w: allowance read failed: %w", ErrApprovalRejected, err)
	}

	if current.Cmp(required.Raw) >= 0 {
		g.logger.Debug("allowance already sufficient",
			zap.String("token", required.Token.Symbol),
			zap.String("spender", spender.Hex()),
			zap.String("allowance", current.String()),
			zap.String("required", required.Raw.String()))
		return &ApprovalOutcome{AlreadySufficient: true, Allowance: current}, nil
	}

	g.logger.Info("issuing approval",
		zap.String("token", required.Token.Symbol),
		zap.String("spender", spender.Hex()),
		zap.String("amount", required.Decimal()))

	tx, err := tc.Approve(ctx, spender, required.Raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrApprovalRejected, err)
	}
	if err := tx.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: confirmation failed for %s: %w", ErrApprovalRejected, tx.Ref(), err)
	}

	// The dependent transfer must observe the approval, so re-verify through
	// a fresh read before reporting success. Reads can lag the confirmed
	// state on some backends; read errors are permanent.
	verify := func() (*big.Int, error) {
		cur, err := tc.Allowance(ctx, owner, spender)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if cur.Cmp(required.Raw) < 0 {
			return nil, errAllowanceLagging
		}
		return cur, nil
	}
	confirmed, err := backoff.Retry(ctx, verify,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(g.confirmWait),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: approval %s confirmed but not observable: %w", ErrApprovalRejected, tx.Ref(), err)
	}

	g.logger.Info("approval confirmed",
		zap.String("token", required.Token.Symbol),
		zap.String("tx", tx.Ref()),
		zap.String("allowance", confirmed.String()))
	return &ApprovalOutcome{TxRef: tx.Ref(), Allowance: confirmed}, nil
}
