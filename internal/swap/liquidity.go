// =============================
// File: internal/swap/liquidity.go
// =============================
package swap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"swapkit/internal/token"
)

// ExecuteAddLiquidity runs the full liquidity-provision flow: guard,
// normalize both amounts, tolerance to basis points, one approval per token,
// execution, classified failure reporting, balance and reserve refresh.
//
// The two approvals are independent operations: a failure of the first never
// silently skips the second, and the liquidity call proceeds only when both
// succeeded.
func (o *Orchestrator) ExecuteAddLiquidity(ctx context.Context, req LiquidityRequest) (result *LiquidityResult, err error) {
	start := time.Now()
	defer func() {
		o.metrics.RecordOrchestration(ctx, "add_liquidity", time.Since(start), err == nil)
	}()

	if gerr := o.guard.RequireCorrect(); gerr != nil {
		return nil, newFlowError(KindWrongNetwork, StepValidate, gerr, nil)
	}

	amountA, err := o.parsePositive(req.AmountA, req.TokenA)
	if err != nil {
		return nil, err
	}
	amountB, err := o.parsePositive(req.AmountB, req.TokenB)
	if err != nil {
		return nil, err
	}
	tol, terr := ParseTolerance(req.Tolerance, o.opts.Policy)
	if terr != nil {
		return nil, newFlowError(KindInvalidTolerance, StepValidate, terr, nil)
	}
	toleranceBps := tol.BasisPoints()

	params := map[string]string{
		"token_a":       req.TokenA.Symbol,
		"token_b":       req.TokenB.Symbol,
		"amount_a":      amountA.Decimal(),
		"amount_b":      amountB.Decimal(),
		"tolerance_bps": fmt.Sprintf("%d", toleranceBps),
	}

	owner := o.session.Owner()
	spender := o.adapter.Spender()

	approvalA, errA := o.gate.EnsureAllowance(ctx,
		o.tokens.TokenContract(req.TokenA.Address), owner, spender, amountA)
	if errA != nil {
		o.logger.Warn("approval failed for first token, still attempting second",
			zap.String("token", req.TokenA.Symbol), zap.Error(errA))
	} else {
		o.metrics.RecordApproval(req.TokenA.Symbol, !approvalA.AlreadySufficient)
	}

	approvalB, errB := o.gate.EnsureAllowance(ctx,
		o.tokens.TokenContract(req.TokenB.Address), owner, spender, amountB)
	if errB != nil {
		o.logger.Warn("approval failed for second token",
			zap.String("token", req.TokenB.Symbol), zap.Error(errB))
	} else {
		o.metrics.RecordApproval(req.TokenB.Symbol, !approvalB.AlreadySufficient)
	}

	if aerr := errors.Join(errA, errB); aerr != nil {
		return nil, newFlowError(KindApprovalRejected, StepApproval, aerr, params)
	}

	receipt, lerr := o.adapter.AddLiquidity(ctx,
		req.TokenA.Address, req.TokenB.Address, amountA.Raw, amountB.Raw, toleranceBps)
	if lerr != nil {
		if IsRatioMismatch(lerr) {
			return nil, newFlowError(KindRatioMismatch, StepExecute,
				fmt.Errorf("%s: %w", RatioMismatchGuidance, lerr), params)
		}
		return nil, newFlowError(KindLiquidityCallFailed, StepExecute, lerr, params)
	}

	o.logger.Info("liquidity added",
		zap.String("tx", receipt.TxRef),
		zap.String("pair", token.PairKey(req.TokenA, req.TokenB)),
		zap.String("amount_a", amountA.Decimal()),
		zap.String("amount_b", amountB.Decimal()),
		zap.Uint64("tolerance_bps", toleranceBps))

	balances := o.Balances(ctx, []token.Token{req.TokenA, req.TokenB})

	// Refresh reserves for display and metrics; failure here does not void
	// the already-confirmed provision.
	var reserves *ReservePair
	if report, rerr := o.PoolReserves(ctx, req.TokenA, req.TokenB); rerr == nil {
		reserves = &report.Reserves
	} else {
		o.logger.Warn("reserve refresh after liquidity add failed", zap.Error(rerr))
	}

	res := &LiquidityResult{
		AmountA:         amountA,
		AmountB:         amountB,
		ToleranceBps:    toleranceBps,
		ApprovalA:       approvalA,
		ApprovalB:       approvalB,
		TxRef:           receipt.TxRef,
		UsedA:           token.Zero(req.TokenA),
		UsedB:           token.Zero(req.TokenB),
		LiquidityMinted: receipt.LiquidityMinted,
		Balances:        balances.Balances,
		Reserves:        reserves,
		Network:         o.guard.State(),
	}
	if receipt.UsedA != nil {
		res.UsedA = token.NewAmount(req.TokenA, receipt.UsedA)
	}
	if receipt.UsedB != nil {
		res.UsedB = token.NewAmount(req.TokenB, receipt.UsedB)
	}
	return res, nil
}
