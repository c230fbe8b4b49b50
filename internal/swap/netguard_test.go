package swap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sepoliaChainID = 11155111

func TestNetworkGuardFailsClosedWhileUnknown(t *testing.T) {
	guard := NewNetworkGuard(sepoliaChainID, zap.NewNop())

	assert.Equal(t, NetworkUnknown, guard.State())
	assert.ErrorIs(t, guard.RequireCorrect(), ErrWrongNetwork)
}

func TestNetworkGuardTransitions(t *testing.T) {
	guard := NewNetworkGuard(sepoliaChainID, zap.NewNop())

	assert.Equal(t, NetworkCorrect, guard.Observe(sepoliaChainID))
	assert.NoError(t, guard.RequireCorrect())

	assert.Equal(t, NetworkIncorrect, guard.Observe(1))
	assert.ErrorIs(t, guard.RequireCorrect(), ErrWrongNetwork)

	// Switching back re-enables mutating flows.
	assert.Equal(t, NetworkCorrect, guard.Observe(sepoliaChainID))
	assert.NoError(t, guard.RequireCorrect())
}

func TestNetworkGuardBind(t *testing.T) {
	session := &stubSession{chainID: sepoliaChainID}
	guard := NewNetworkGuard(sepoliaChainID, zap.NewNop())

	require.NoError(t, guard.Bind(context.Background(), session))
	assert.Equal(t, NetworkCorrect, guard.State())

	// A chain change observed through the session flips the guard.
	session.emitChange(1)
	assert.Equal(t, NetworkIncorrect, guard.State())

	session.emitChange(sepoliaChainID)
	assert.Equal(t, NetworkCorrect, guard.State())
}

func TestNetworkGuardBindReportsCheckFailure(t *testing.T) {
	session := &stubSession{chainErr: assert.AnError}
	guard := NewNetworkGuard(sepoliaChainID, zap.NewNop())

	require.Error(t, guard.Bind(context.Background(), session))
	assert.Equal(t, NetworkUnknown, guard.State())
}
