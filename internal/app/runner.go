// =============================
// File: internal/app/runner.go
// =============================
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapkit/internal/config"
	"swapkit/internal/ethbridge"
	"swapkit/internal/swap"
	"swapkit/internal/token"
	"swapkit/internal/utils"
	"swapkit/internal/utils/metrics"
)

// Runner wires configuration, the chain bridge and the orchestrator, and
// dispatches CLI verbs against them.
type Runner struct {
	logger       *zap.Logger
	cfg          *config.Config
	bridge       *ethbridge.Bridge
	session      *ethbridge.Session
	orchestrator *swap.Orchestrator
	tokens       map[string]token.Token
	shutdownCh   chan os.Signal
	cancelWatch  context.CancelFunc
}

func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{
		logger:     logger,
		shutdownCh: make(chan os.Signal, 1),
	}
}

// Initialize loads configuration and connects every collaborator: logger,
// bridge, adapter binding, token backend, session watcher, network guard,
// approval gate and the orchestrator on top.
func (r *Runner) Initialize(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	r.cfg = cfg

	logger, err := utils.InitLogger(cfg.DebugLogging, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	r.logger = logger

	bridge, err := ethbridge.New(ctx, cfg.RPCURL, cfg.PrivateKey, logger)
	if err != nil {
		return err
	}
	r.bridge = bridge

	adapter, err := ethbridge.NewAdapter(bridge, common.HexToAddress(cfg.AdapterAddress))
	if err != nil {
		return err
	}
	backend, err := ethbridge.NewTokenBackend(bridge)
	if err != nil {
		return err
	}

	session := ethbridge.NewSession(bridge, time.Duration(cfg.NetworkPollSec)*time.Second)
	watchCtx, cancel := context.WithCancel(ctx)
	r.cancelWatch = cancel
	r.session = session
	go session.Watch(watchCtx)

	guard := swap.NewNetworkGuard(cfg.ChainID, logger)
	if err := guard.Bind(ctx, session); err != nil {
		r.logger.Warn("network state is unknown until the next check succeeds", zap.Error(err))
	}

	gate := swap.NewApprovalGate(logger, time.Duration(cfg.ApproveWaitSec)*time.Second)

	policy, err := cfg.TolerancePolicy()
	if err != nil {
		return err
	}
	ratios, err := cfg.BootstrapTable()
	if err != nil {
		return err
	}

	orchestrator, err := swap.NewOrchestrator(adapter, backend, session, guard, gate,
		metrics.NewCollector(), logger, swap.Options{
			Policy:          policy,
			BootstrapRatios: ratios,
			DustDivisor:     cfg.DustDivisor,
		})
	if err != nil {
		return err
	}
	r.orchestrator = orchestrator
	r.tokens = cfg.TokenTable()

	logger.Info("runner initialized",
		zap.Uint64("chain_id", cfg.ChainID),
		zap.String("adapter", cfg.AdapterAddress),
		zap.Int("tokens", len(r.tokens)))
	return nil
}

// Run executes one verb and shuts down afterwards. A signal cancels the
// in-flight call.
func (r *Runner) Run(ctx context.Context, verb string, args []string) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case sig := <-r.shutdownCh:
			r.logger.Info("signal received", zap.String("signal", sig.String()))
			cancel()
		case <-runCtx.Done():
		}
	}()

	switch verb {
	case "quote":
		return r.runQuote(runCtx, args)
	case "swap":
		return r.runSwap(runCtx, args)
	case "add-liquidity":
		return r.runAddLiquidity(runCtx, args)
	case "advise":
		return r.runAdvise(runCtx, args)
	case "reserves":
		return r.runReserves(runCtx, args)
	case "balances":
		return r.runBalances(runCtx)
	default:
		return fmt.Errorf("unknown command %q (expected quote, swap, add-liquidity, advise, reserves or balances)", verb)
	}
}

// Close releases the session watcher and the RPC connection.
func (r *Runner) Close() {
	if r.cancelWatch != nil {
		r.cancelWatch()
	}
	if r.bridge != nil {
		r.bridge.Close()
	}
}

func (r *Runner) runQuote(ctx context.Context, args []string) error {
	tokenIn, tokenOut, err := r.pair(args, 0)
	if err != nil {
		return err
	}
	if len(args) < 3 {
		return fmt.Errorf("usage: quote <tokenIn> <tokenOut> <amountIn> [tolerancePct]")
	}
	tolerance := r.cfg.SlippageDefaultPct
	if len(args) > 3 {
		tolerance = args[3]
	}

	q, err := r.orchestrator.QuoteSwap(ctx, tokenIn, tokenOut, args[2], tolerance)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s -> %s %s (network: %s)\n",
		q.AmountIn.Decimal(), tokenIn.Symbol,
		q.AmountOut.Decimal(), tokenOut.Symbol,
		q.Network)
	return nil
}

func (r *Runner) runSwap(ctx context.Context, args []string) error {
	tokenIn, tokenOut, err := r.pair(args, 0)
	if err != nil {
		return err
	}
	if len(args) < 3 {
		return fmt.Errorf("usage: swap <tokenIn> <tokenOut> <amountIn> [tolerancePct]")
	}
	tolerance := r.cfg.SlippageDefaultPct
	if len(args) > 3 {
		tolerance = args[3]
	}

	res, err := r.orchestrator.ExecuteSwap(ctx, swap.SwapRequest{
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		AmountIn:  args[2],
		Tolerance: tolerance,
	})
	if err != nil {
		return err
	}

	fmt.Printf("swap confirmed: %s\n", res.TxRef)
	fmt.Printf("  quoted out:  %s %s\n", res.Quote.AmountOut.Decimal(), tokenOut.Symbol)
	fmt.Printf("  minimum out: %s %s\n", res.MinimumOut.Decimal(), tokenOut.Symbol)
	if res.Approval.AlreadySufficient {
		fmt.Println("  approval:    allowance already sufficient")
	} else {
		fmt.Printf("  approval:    %s\n", res.Approval.TxRef)
	}
	printBalances(res.Balances)
	return nil
}

func (r *Runner) runAddLiquidity(ctx context.Context, args []string) error {
	tokenA, tokenB, err := r.pair(args, 0)
	if err != nil {
		return err
	}
	if len(args) < 4 {
		return fmt.Errorf("usage: add-liquidity <tokenA> <tokenB> <amountA> <amountB> [tolerancePct]")
	}
	tolerance := r.cfg.SlippageDefaultPct
	if len(args) > 4 {
		tolerance = args[4]
	}

	res, err := r.orchestrator.ExecuteAddLiquidity(ctx, swap.LiquidityRequest{
		TokenA:    tokenA,
		TokenB:    tokenB,
		AmountA:   args[2],
		AmountB:   args[3],
		Tolerance: tolerance,
	})
	if err != nil {
		return err
	}

	fmt.Printf("liquidity added: %s\n", res.TxRef)
	fmt.Printf("  deposited: %s %s + %s %s\n",
		res.AmountA.Decimal(), tokenA.Symbol,
		res.AmountB.Decimal(), tokenB.Symbol)
	if res.LiquidityMinted != nil {
		fmt.Printf("  minted:    %s\n", res.LiquidityMinted.String())
	}
	printBalances(res.Balances)
	return nil
}

func (r *Runner) runAdvise(ctx context.Context, args []string) error {
	tokenA, tokenB, err := r.pair(args, 0)
	if err != nil {
		return err
	}
	if len(args) < 3 {
		return fmt.Errorf("usage: advise <tokenA> <tokenB> <amountA>")
	}

	suggested, err := r.orchestrator.AdviseSecondAmount(ctx, tokenA, tokenB, args[2])
	if err != nil {
		return err
	}
	fmt.Printf("%s %s pairs with %s %s at the current ratio\n",
		args[2], tokenA.Symbol, suggested.Decimal(), tokenB.Symbol)
	return nil
}

func (r *Runner) runReserves(ctx context.Context, args []string) error {
	tokenA, tokenB, err := r.pair(args, 0)
	if err != nil {
		return err
	}

	report, err := r.orchestrator.PoolReserves(ctx, tokenA, tokenB)
	if err != nil {
		return err
	}
	fmt.Printf("pool %s (network: %s)\n", token.PairKey(tokenA, tokenB), report.Network)
	fmt.Printf("  %s: %s\n", tokenA.Symbol, report.Reserves.A.Decimal())
	fmt.Printf("  %s: %s\n", tokenB.Symbol, report.Reserves.B.Decimal())
	if report.Rate != "" {
		fmt.Printf("  rate: %s %s per %s\n", report.Rate, tokenB.Symbol, tokenA.Symbol)
	} else {
		fmt.Println("  pool has no liquidity yet")
	}
	return nil
}

func (r *Runner) runBalances(ctx context.Context) error {
	all := make([]token.Token, 0, len(r.tokens))
	for _, t := range r.tokens {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Symbol < all[j].Symbol })

	report := r.orchestrator.Balances(ctx, all)
	fmt.Printf("balances for %s (network: %s)\n", r.bridge.Owner().Hex(), report.Network)
	printBalances(report.Balances)
	return nil
}

// pair resolves two configured token symbols starting at args[offset].
func (r *Runner) pair(args []string, offset int) (token.Token, token.Token, error) {
	if len(args) < offset+2 {
		return token.Token{}, token.Token{}, fmt.Errorf("expected two token symbols")
	}
	a, err := r.lookupToken(args[offset])
	if err != nil {
		return token.Token{}, token.Token{}, err
	}
	b, err := r.lookupToken(args[offset+1])
	if err != nil {
		return token.Token{}, token.Token{}, err
	}
	if a.Equal(b) {
		return token.Token{}, token.Token{}, fmt.Errorf("token pair must name two different tokens")
	}
	return a, b, nil
}

func (r *Runner) lookupToken(symbol string) (token.Token, error) {
	t, ok := r.tokens[symbol]
	if !ok {
		known := make([]string, 0, len(r.tokens))
		for s := range r.tokens {
			known = append(known, s)
		}
		sort.Strings(known)
		return token.Token{}, fmt.Errorf("unknown token %q (configured: %v)", symbol, known)
	}
	return t, nil
}

func printBalances(balances map[string]token.Amount) {
	symbols := make([]string, 0, len(balances))
	for s := range balances {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	for _, s := range symbols {
		fmt.Printf("  balance %s: %s\n", s, balances[s].Decimal())
	}
}
