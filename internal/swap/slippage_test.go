package swap

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapkit/internal/token"
)

func usdtAmount(t *testing.T, raw int64) token.Amount {
	t.Helper()
	return token.NewAmount(testUSDT, big.NewInt(raw))
}

func mustTolerance(t *testing.T, s string) Tolerance {
	t.Helper()
	tol, err := ParseTolerance(s, DefaultTolerancePolicy())
	require.NoError(t, err)
	return tol
}

func TestMinimumOutputExact(t *testing.T) {
	// 2000.123456 USDT quoted at 1% tolerance floors to 1980.122221.
	quoted := usdtAmount(t, 2000123456)
	min := MinimumOutput(quoted, mustTolerance(t, "1"))
	assert.Equal(t, "1980122221", min.Raw.String())
	assert.Equal(t, "1980.122221", min.Decimal())
}

func TestMinimumOutputNeverExceedsQuoted(t *testing.T) {
	quoted := usdtAmount(t, 123456789)
	for _, pct := range []string{"0.1", "0.5", "1", "2.5", "10"} {
		min := MinimumOutput(quoted, mustTolerance(t, pct))
		assert.LessOrEqual(t, min.Cmp(quoted), 0, "tolerance %s%%", pct)
		assert.GreaterOrEqual(t, min.Sign(), 0)
	}
}

func TestMinimumOutputMonotonicInTolerance(t *testing.T) {
	quoted := usdtAmount(t, 2000123456)
	prev := MinimumOutput(quoted, mustTolerance(t, "0.1"))
	for _, pct := range []string{"0.5", "1", "2", "5", "10"} {
		cur := MinimumOutput(quoted, mustTolerance(t, pct))
		assert.LessOrEqual(t, cur.Cmp(prev), 0, "tolerance %s%%", pct)
		prev = cur
	}
}

func TestMinimumOutputRoundsTowardZero(t *testing.T) {
	// The integer floor must never exceed the exact rational value.
	quoted := usdtAmount(t, 999999999)
	for _, pct := range []string{"0.1", "0.3", "1", "3.7", "10"} {
		tol := mustTolerance(t, pct)
		min := MinimumOutput(quoted, tol)

		exact := new(big.Rat).SetInt(quoted.Raw)
		factor := new(big.Rat).Sub(ratHundred, tol.Percent())
		factor.Quo(factor, ratHundred)
		exact.Mul(exact, factor)

		got := new(big.Rat).SetInt(min.Raw)
		assert.LessOrEqual(t, got.Cmp(exact), 0, "tolerance %s%%", pct)

		// Off by less than one base unit.
		diff := new(big.Rat).Sub(exact, got)
		assert.Less(t, diff.Cmp(big.NewRat(1, 1)), 0, "tolerance %s%%", pct)
	}
}

func TestToleranceBasisPoints(t *testing.T) {
	tests := []struct {
		pct  string
		want uint64
	}{
		{"1", 100},
		{"0.5", 50},
		{"10", 1000},
		{"0.125", 13}, // half rounds away from zero
		{"2.504", 250},
	}
	for _, tt := range tests {
		t.Run(tt.pct, func(t *testing.T) {
			assert.Equal(t, tt.want, mustTolerance(t, tt.pct).BasisPoints())
		})
	}
}

func TestParseToleranceRejectsOutOfPolicy(t *testing.T) {
	policy := DefaultTolerancePolicy()
	for _, s := range []string{"0", "-1", "0.05", "10.01", "abc", ""} {
		t.Run(s, func(t *testing.T) {
			_, err := ParseTolerance(s, policy)
			assert.ErrorIs(t, err, ErrInvalidTolerance)
		})
	}
}

func TestParseToleranceAcceptsBoundaryValues(t *testing.T) {
	policy := DefaultTolerancePolicy()
	for _, s := range []string{"0.1", "10"} {
		_, err := ParseTolerance(s, policy)
		assert.NoError(t, err, s)
	}
}
