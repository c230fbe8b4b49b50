// =============================
// File: internal/swap/orchestrator.go
// =============================
package swap

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swapkit/internal/token"
	"swapkit/internal/utils/metrics"
)

// Options carries the orchestration policy knobs.
type Options struct {
	Policy TolerancePolicy

	// BootstrapRatios maps "A/B" pair keys to the tokenB-per-tokenA ratio
	// used by the advisor when the pool has no liquidity yet.
	BootstrapRatios map[string]*big.Rat

	// DustDivisor defines the advisory dust threshold: an input amount is
	// considered dust when amount * DustDivisor < input-side reserve.
	DustDivisor int64
}

const defaultDustDivisor = 1_000_000

// Orchestrator composes the converters, the guard and the approval gate into
// the swap and liquidity flows exposed to the caller. Each call takes its
// inputs explicitly and returns results as values; no user-visible state is
// mutated in place.
type Orchestrator struct {
	adapter AdapterContract
	tokens  TokenBackend
	session Session
	guard   *NetworkGuard
	gate    *ApprovalGate
	quotes  *QuoteTracker
	metrics *metrics.Collector
	logger  *zap.Logger
	opts    Options
}

func NewOrchestrator(
	adapter AdapterContract,
	tokens TokenBackend,
	session Session,
	guard *NetworkGuard,
	gate *ApprovalGate,
	mc *metrics.Collector,
	logger *zap.Logger,
	opts Options,
) (*Orchestrator, error) {
	if adapter == nil || tokens == nil || session == nil {
		return nil, fmt.Errorf("adapter, token backend and session cannot be nil")
	}
	if guard == nil || gate == nil || mc == nil || logger == nil {
		return nil, fmt.Errorf("guard, gate, metrics and logger cannot be nil")
	}
	if opts.Policy.MinPct == nil && opts.Policy.MaxPct == nil {
		opts.Policy = DefaultTolerancePolicy()
	}
	if opts.DustDivisor <= 0 {
		opts.DustDivisor = defaultDustDivisor
	}
	return &Orchestrator{
		adapter: adapter,
		tokens:  tokens,
		session: session,
		guard:   guard,
		gate:    gate,
		quotes:  NewQuoteTracker(),
		metrics: mc,
		logger:  logger,
		opts:    opts,
	}, nil
}

// NetworkState reports the guard's current view of the session network.
func (o *Orchestrator) NetworkState() NetworkState {
	return o.guard.State()
}

// QuoteSwap retrieves an advisory quote for swapping amountIn of tokenIn into
// tokenOut. Read-only: it runs in any network state and tags the quote with
// the state it ran under. The tolerance is validated here so the caller
// learns about a bad tolerance before committing to a swap.
func (o *Orchestrator) QuoteSwap(ctx context.Context, tokenIn, tokenOut token.Token, amountIn, tolerancePct string) (*Quote, error) {
	in, err := o.parsePositive(amountIn, tokenIn)
	if err != nil {
		return nil, err
	}
	tol, err := ParseTolerance(tolerancePct, o.opts.Policy)
	if err != nil {
		return nil, newFlowError(KindInvalidTolerance, StepValidate, err, nil)
	}

	q, err := o.fetchQuote(ctx, tokenIn, tokenOut, in)
	if err != nil {
		return nil, err
	}

	minOut := MinimumOutput(q.AmountOut, tol)
	o.logger.Debug("quote retrieved",
		zap.String("token_in", tokenIn.Symbol),
		zap.String("token_out", tokenOut.Symbol),
		zap.String("amount_in", in.Decimal()),
		zap.String("amount_out", q.AmountOut.Decimal()),
		zap.String("min_out", minOut.Decimal()),
		zap.String("tolerance", tol.String()),
		zap.Uint64("seq", q.Seq))
	return q, nil
}

// ExecuteSwap runs the full swap flow: guard, normalize, fresh quote,
// minimum output, dust advisory, approval, execution, balance refresh.
// Nothing is retried; every failure is terminal for this run and reports the
// step it occurred in.
func (o *Orchestrator) ExecuteSwap(ctx context.Context, req SwapRequest) (result *SwapResult, err error) {
	start := time.Now()
	defer func() {
		o.metrics.RecordOrchestration(ctx, "swap", time.Since(start), err == nil)
	}()

	if gerr := o.guard.RequireCorrect(); gerr != nil {
		return nil, newFlowError(KindWrongNetwork, StepValidate, gerr, nil)
	}

	amountIn, err := o.parsePositive(req.AmountIn, req.TokenIn)
	if err != nil {
		return nil, err
	}
	tol, terr := ParseTolerance(req.Tolerance, o.opts.Policy)
	if terr != nil {
		return nil, newFlowError(KindInvalidTolerance, StepValidate, terr, nil)
	}

	// The quote is always re-derived immediately before execution; the
	// contract enforces the floor if the pool moves in between.
	quote, err := o.fetchQuote(ctx, req.TokenIn, req.TokenOut, amountIn)
	if err != nil {
		return nil, err
	}
	minOut := MinimumOutput(quote.AmountOut, tol)

	params := map[string]string{
		"token_in":  req.TokenIn.Symbol,
		"token_out": req.TokenOut.Symbol,
		"amount_in": amountIn.Decimal(),
		"min_out":   minOut.Decimal(),
		"tolerance": tol.String(),
	}

	o.warnIfDust(ctx, req.TokenIn, req.TokenOut, amountIn)

	approval, aerr := o.gate.EnsureAllowance(ctx,
		o.tokens.TokenContract(req.TokenIn.Address),
		o.session.Owner(), o.adapter.Spender(), amountIn)
	if aerr != nil {
		return nil, newFlowError(KindApprovalRejected, StepApproval, aerr, params)
	}
	o.metrics.RecordApproval(req.TokenIn.Symbol, !approval.AlreadySufficient)

	receipt, serr := o.adapter.SwapExactInput(ctx,
		req.TokenIn.Address, req.TokenOut.Address, amountIn.Raw, minOut.Raw)
	if serr != nil {
		return nil, newFlowError(KindSwapCallFailed, StepExecute, serr, params)
	}

	amountOut := token.Zero(req.TokenOut)
	if receipt.AmountOut != nil {
		amountOut = token.NewAmount(req.TokenOut, receipt.AmountOut)
	}

	o.logger.Info("swap executed",
		zap.String("tx", receipt.TxRef),
		zap.String("token_in", req.TokenIn.Symbol),
		zap.String("token_out", req.TokenOut.Symbol),
		zap.String("amount_in", amountIn.Decimal()),
		zap.String("min_out", minOut.Decimal()),
		zap.String("amount_out", amountOut.Decimal()))

	balances := o.Balances(ctx, []token.Token{req.TokenIn, req.TokenOut})

	return &SwapResult{
		Quote:      quote,
		MinimumOut: minOut,
		AmountOut:  amountOut,
		Approval:   approval,
		TxRef:      receipt.TxRef,
		Balances:   balances.Balances,
		Network:    o.guard.State(),
	}, nil
}

// AdviseSecondAmount suggests the tokenB amount matching the pool ratio for
// an entered tokenA amount. When the reserve read fails or the pool is empty
// the configured bootstrap ratio for the pair is used.
func (o *Orchestrator) AdviseSecondAmount(ctx context.Context, tokenA, tokenB token.Token, amountA string) (token.Amount, error) {
	a, err := o.parsePositive(amountA, tokenA)
	if err != nil {
		return token.Amount{}, err
	}

	reserves, rerr := o.reservePair(ctx, tokenA, tokenB)
	if rerr != nil {
		o.logger.Warn("reserve read failed, falling back to bootstrap ratio",
			zap.String("pair", token.PairKey(tokenA, tokenB)),
			zap.Error(rerr))
		reserves = ReservePair{A: token.Zero(tokenA), B: token.Zero(tokenB)}
	}

	return AdviseSecondAmount(reserves, a, o.opts.BootstrapRatios[token.PairKey(tokenA, tokenB)])
}

// PoolReserves reads the pool status for a pair. Read-only: allowed in any
// network state, annotated with the state it ran under.
func (o *Orchestrator) PoolReserves(ctx context.Context, tokenA, tokenB token.Token) (*ReserveReport, error) {
	reserves, err := o.reservePair(ctx, tokenA, tokenB)
	if err != nil {
		return nil, newFlowError(KindQuoteUnavailable, StepQuote, err, map[string]string{
			"pair": token.PairKey(tokenA, tokenB),
		})
	}

	pair := token.PairKey(tokenA, tokenB)
	o.metrics.UpdatePoolLiquidity(pair, tokenA.Symbol, approxFloat(reserves.A))
	o.metrics.UpdatePoolLiquidity(pair, tokenB.Symbol, approxFloat(reserves.B))

	report := &ReserveReport{Reserves: reserves, Network: o.guard.State()}
	if reserves.HasLiquidity() {
		report.Rate = spotRate(reserves)
	}
	return report, nil
}

// Balances reads the balances of the given tokens concurrently. An individual
// failure zeroes that entry and is logged; the report always covers every
// requested token.
func (o *Orchestrator) Balances(ctx context.Context, tokens []token.Token) *BalanceReport {
	owner := o.session.Owner()
	balances := make(map[string]token.Amount, len(tokens))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tokens {
		t := t
		g.Go(func() error {
			raw, err := o.tokens.TokenContract(t.Address).BalanceOf(gctx, owner)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				o.logger.Warn("balance read failed",
					zap.String("token", t.Symbol), zap.Error(err))
				balances[t.Symbol] = token.Zero(t)
				return nil
			}
			balances[t.Symbol] = token.NewAmount(t, raw)
			return nil
		})
	}
	_ = g.Wait()

	return &BalanceReport{Balances: balances, Network: o.guard.State()}
}

// LatestQuote exposes the most recent committed quote with its input tag.
func (o *Orchestrator) LatestQuote() (*Quote, bool) {
	return o.quotes.Latest()
}

func (o *Orchestrator) parsePositive(s string, t token.Token) (token.Amount, error) {
	a, err := token.ParseAmount(s, t)
	if err != nil {
		return token.Amount{}, newFlowError(KindInvalidAmount, StepValidate, err, nil)
	}
	if a.Sign() <= 0 {
		return token.Amount{}, newFlowError(KindInvalidAmount, StepValidate,
			fmt.Errorf("%w: amount must be positive", token.ErrInvalidAmount), nil)
	}
	return a, nil
}

// fetchQuote retrieves a fresh quote under a new tracker sequence. A result
// superseded by a newer request is still returned to its caller but not
// installed as the current quote.
func (o *Orchestrator) fetchQuote(ctx context.Context, tokenIn, tokenOut token.Token, amountIn token.Amount) (*Quote, error) {
	seq := o.quotes.Begin()
	out, err := o.adapter.GetQuote(ctx, tokenIn.Address, tokenOut.Address, amountIn.Raw)
	if err != nil {
		return nil, newFlowError(KindQuoteUnavailable, StepQuote, err, map[string]string{
			"token_in":  tokenIn.Symbol,
			"token_out": tokenOut.Symbol,
			"amount_in": amountIn.Decimal(),
		})
	}
	q := &Quote{
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		AmountIn:  amountIn,
		AmountOut: token.NewAmount(tokenOut, out),
		Network:   o.guard.State(),
		Seq:       seq,
	}
	if !o.quotes.Commit(q) {
		o.logger.Debug("stale quote discarded from cache", zap.Uint64("seq", seq))
	}
	return q, nil
}

// warnIfDust logs an advisory when the input is tiny relative to the pool:
// such inputs are disproportionately harmed by integer rounding in the
// external engine. Never blocks; skipped when the reserve read fails.
func (o *Orchestrator) warnIfDust(ctx context.Context, tokenIn, tokenOut token.Token, amountIn token.Amount) {
	reserveIn, _, err := o.adapter.GetReserves(ctx, tokenIn.Address, tokenOut.Address)
	if err != nil {
		o.logger.Debug("skipping dust check, reserve read failed", zap.Error(err))
		return
	}
	if reserveIn.Sign() <= 0 {
		return
	}
	scaled := new(big.Int).Mul(amountIn.Raw, big.NewInt(o.opts.DustDivisor))
	if scaled.Cmp(reserveIn) < 0 {
		o.logger.Warn("input amount is dust relative to pool reserves",
			zap.String("token_in", tokenIn.Symbol),
			zap.String("amount_in", amountIn.Decimal()),
			zap.String("reserve_in", reserveIn.String()),
			zap.Int64("dust_divisor", o.opts.DustDivisor))
	}
}

func (o *Orchestrator) reservePair(ctx context.Context, tokenA, tokenB token.Token) (ReservePair, error) {
	ra, rb, err := o.adapter.GetReserves(ctx, tokenA.Address, tokenB.Address)
	if err != nil {
		return ReservePair{}, fmt.Errorf("reserve read for %s: %w", token.PairKey(tokenA, tokenB), err)
	}
	return ReservePair{
		A: token.NewAmount(tokenA, ra),
		B: token.NewAmount(tokenB, rb),
	}, nil
}

// spotRate renders tokenB-per-tokenA at current reserves with six fractional
// digits, for display only.
func spotRate(r ReservePair) string {
	num := new(big.Int).Mul(r.B.Raw, pow10(r.A.Token.Decimals))
	den := new(big.Int).Mul(r.A.Raw, pow10(r.B.Token.Decimals))
	return new(big.Rat).SetFrac(num, den).FloatString(6)
}

func approxFloat(a token.Amount) float64 {
	f, _ := new(big.Rat).SetFrac(a.Raw, pow10(a.Token.Decimals)).Float64()
	return f
}
