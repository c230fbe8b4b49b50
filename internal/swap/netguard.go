// =============================
// File: internal/swap/netguard.go
// =============================
package swap

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// NetworkGuard gates every mutating orchestration on "session is on the
// expected network". The state starts Unknown and transitions only on
// explicit observations: the initial session check and chain-change
// notifications. A mutating call against a contract address valid on a
// different chain can silently target an unintended contract, so the guard is
// a precondition, not a post-hoc error translation.
type NetworkGuard struct {
	expected uint64
	state    atomic.Int32
	logger   *zap.Logger
}

func NewNetworkGuard(expectedChainID uint64, logger *zap.Logger) *NetworkGuard {
	return &NetworkGuard{expected: expectedChainID, logger: logger}
}

// Bind performs the initial session check and subscribes to chain-change
// notifications.
func (g *NetworkGuard) Bind(ctx context.Context, s Session) error {
	id, err := s.ChainID(ctx)
	if err != nil {
		g.logger.Warn("initial network check failed", zap.Error(err))
		return err
	}
	g.Observe(id)
	s.OnChainChanged(func(chainID uint64) {
		g.Observe(chainID)
	})
	return nil
}

// Observe records a network-check event and returns the resulting state.
func (g *NetworkGuard) Observe(chainID uint64) NetworkState {
	next := NetworkIncorrect
	if chainID == g.expected {
		next = NetworkCorrect
	}
	prev := NetworkState(g.state.Swap(int32(next)))
	if prev != next {
		g.logger.Info("network state changed",
			zap.Uint64("chain_id", chainID),
			zap.Uint64("expected_chain_id", g.expected),
			zap.String("from", prev.String()),
			zap.String("to", next.String()))
	}
	return next
}

// State returns the current network state.
func (g *NetworkGuard) State() NetworkState {
	return NetworkState(g.state.Load())
}

// RequireCorrect short-circuits mutating flows unless the session is known to
// be on the expected network. Unknown fails closed.
func (g *NetworkGuard) RequireCorrect() error {
	if st := g.State(); st != NetworkCorrect {
		return fmt.Errorf("%w: state %s, expected chain %d", ErrWrongNetwork, st, g.expected)
	}
	return nil
}
