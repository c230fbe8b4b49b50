package ethbridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// ErrSwitchUnsupported is returned by RequestSwitch: a JSON-RPC endpoint is
// pinned to one chain and cannot be renegotiated from the client side.
var ErrSwitchUnsupported = errors.New("network switch is not supported for an RPC-backed session")

const defaultPollInterval = 15 * time.Second

// Session implements swap.Session over the bridge. Plain RPC endpoints do not
// push chain-change events, so changes are detected by polling the chain id
// and notifying registered callbacks on a difference.
type Session struct {
	bridge       *Bridge
	logger       *zap.Logger
	pollInterval time.Duration

	mu        sync.Mutex
	callbacks []func(chainID uint64)
	lastSeen  uint64
	seen      bool
}

func NewSession(b *Bridge, pollInterval time.Duration) *Session {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Session{
		bridge:       b,
		logger:       b.logger,
		pollInterval: pollInterval,
	}
}

func (s *Session) Owner() common.Address {
	return s.bridge.Owner()
}

func (s *Session) ChainID(ctx context.Context) (uint64, error) {
	id, err := s.bridge.client.ChainID(ctx)
	if err != nil {
		return 0, err
	}
	return id.Uint64(), nil
}

func (s *Session) OnChainChanged(fn func(chainID uint64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

func (s *Session) RequestSwitch(ctx context.Context, chainID uint64) error {
	return ErrSwitchUnsupported
}

// Watch polls the chain id until ctx is cancelled and fires the registered
// callbacks whenever it changes.
func (s *Session) Watch(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			id, err := s.ChainID(ctx)
			if err != nil {
				s.logger.Debug("chain id poll failed", zap.Error(err))
				continue
			}
			s.notify(id)
		}
	}
}

func (s *Session) notify(chainID uint64) {
	s.mu.Lock()
	first := !s.seen
	changed := s.seen && s.lastSeen != chainID
	s.lastSeen = chainID
	s.seen = true
	callbacks := make([]func(uint64), len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.Unlock()

	// The first successful poll also notifies: when the initial check at
	// startup failed, subscribers are still waiting for a first observation.
	if !first && !changed {
		return
	}
	if changed {
		s.logger.Info("chain id changed", zap.Uint64("chain_id", chainID))
	}
	for _, fn := range callbacks {
		fn(chainID)
	}
}
