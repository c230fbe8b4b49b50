package swap

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"swapkit/internal/token"
)

func TestEnsureAllowanceSkipsWhenSufficient(t *testing.T) {
	log := &callLog{}
	tc := newStubToken(log, "USDT", 0, 10_000_000)
	gate := NewApprovalGate(zap.NewNop(), time.Second)

	required := token.NewAmount(testUSDT, big.NewInt(5_000_000))
	outcome, err := gate.EnsureAllowance(context.Background(), tc, testOwner, testSpender, required)
	require.NoError(t, err)

	assert.True(t, outcome.AlreadySufficient)
	assert.Empty(t, outcome.TxRef)
	assert.Zero(t, log.count("approve:USDT"))
}

func TestEnsureAllowanceApprovesExactAmount(t *testing.T) {
	log := &callLog{}
	tc := newStubToken(log, "USDT", 0, 0)
	gate := NewApprovalGate(zap.NewNop(), time.Second)

	required := token.NewAmount(testUSDT, big.NewInt(5_000_000))
	outcome, err := gate.EnsureAllowance(context.Background(), tc, testOwner, testSpender, required)
	require.NoError(t, err)

	assert.False(t, outcome.AlreadySufficient)
	assert.NotEmpty(t, outcome.TxRef)
	assert.Equal(t, 1, log.count("approve:USDT"))
	// Exactly the required amount, never an unbounded maximum.
	assert.Zero(t, tc.approved.Cmp(required.Raw))
	assert.Zero(t, outcome.Allowance.Cmp(required.Raw))
}

func TestEnsureAllowanceIsIdempotent(t *testing.T) {
	log := &callLog{}
	tc := newStubToken(log, "USDT", 0, 0)
	gate := NewApprovalGate(zap.NewNop(), time.Second)

	required := token.NewAmount(testUSDT, big.NewInt(5_000_000))
	_, err := gate.EnsureAllowance(context.Background(), tc, testOwner, testSpender, required)
	require.NoError(t, err)

	// The second run observes the allowance left by the first.
	outcome, err := gate.EnsureAllowance(context.Background(), tc, testOwner, testSpender, required)
	require.NoError(t, err)
	assert.True(t, outcome.AlreadySufficient)
	assert.Equal(t, 1, log.count("approve:USDT"))
}

func TestEnsureAllowanceReportsRejection(t *testing.T) {
	log := &callLog{}
	tc := newStubToken(log, "USDT", 0, 0)
	tc.approveErr = assert.AnError
	gate := NewApprovalGate(zap.NewNop(), time.Second)

	required := token.NewAmount(testUSDT, big.NewInt(5_000_000))
	_, err := gate.EnsureAllowance(context.Background(), tc, testOwner, testSpender, required)
	assert.ErrorIs(t, err, ErrApprovalRejected)
}

func TestEnsureAllowanceReportsConfirmationFailure(t *testing.T) {
	log := &callLog{}
	tc := newStubToken(log, "USDT", 0, 0)
	tc.waitErr = assert.AnError
	gate := NewApprovalGate(zap.NewNop(), time.Second)

	required := token.NewAmount(testUSDT, big.NewInt(5_000_000))
	_, err := gate.EnsureAllowance(context.Background(), tc, testOwner, testSpender, required)
	assert.ErrorIs(t, err, ErrApprovalRejected)
}

func TestEnsureAllowanceRetriesLaggingRead(t *testing.T) {
	log := &callLog{}
	tc := newStubToken(log, "USDT", 0, 0)
	tc.lagReads = 1 // the first post-confirmation read still shows the old value
	gate := NewApprovalGate(zap.NewNop(), 5*time.Second)

	required := token.NewAmount(testUSDT, big.NewInt(5_000_000))
	outcome, err := gate.EnsureAllowance(context.Background(), tc, testOwner, testSpender, required)
	require.NoError(t, err)

	assert.Zero(t, outcome.Allowance.Cmp(required.Raw))
	assert.GreaterOrEqual(t, log.count("allowance:USDT"), 3)
}

func TestEnsureAllowanceAllowanceReadFailure(t *testing.T) {
	log := &callLog{}
	tc := newStubToken(log, "USDT", 0, 0)
	tc.allowanceErr = assert.AnError
	gate := NewApprovalGate(zap.NewNop(), time.Second)

	required := token.NewAmount(testUSDT, big.NewInt(5_000_000))
	_, err := gate.EnsureAllowance(context.Background(), tc, testOwner, testSpender, required)
	assert.ErrorIs(t, err, ErrApprovalRejected)
	assert.Zero(t, log.count("approve:USDT"))
}
