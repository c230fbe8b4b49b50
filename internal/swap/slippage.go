// =============================
// File: internal/swap/slippage.go
// =============================
package swap

import (
	"fmt"
	"math/big"

	"swapkit/internal/token"
)

var ratHundred = big.NewRat(100, 1)

// TolerancePolicy bounds the slippage tolerance a user may configure, as
// percentages. Bounds are configuration, not compile-time constants, because
// the acceptable range is deployment policy.
type TolerancePolicy struct {
	MinPct *big.Rat
	MaxPct *big.Rat
}

// DefaultTolerancePolicy allows 0.1% through 10%.
func DefaultTolerancePolicy() TolerancePolicy {
	return TolerancePolicy{
		MinPct: big.NewRat(1, 10),
		MaxPct: big.NewRat(10, 1),
	}
}

// Tolerance is a slippage tolerance percentage. It is kept as a rational for
// the whole computation; pre-scaling to an integer would compound rounding.
type Tolerance struct {
	pct *big.Rat
}

// ParseTolerance parses a percentage string ("1", "0.5") and validates it
// against the policy. Out-of-bounds or malformed input fails with
// ErrInvalidTolerance.
func ParseTolerance(s string, policy TolerancePolicy) (Tolerance, error) {
	pct, ok := new(big.Rat).SetString(s)
	if !ok {
		return Tolerance{}, fmt.Errorf("%w: cannot parse %q as a percentage", ErrInvalidTolerance, s)
	}
	if pct.Sign() <= 0 {
		return Tolerance{}, fmt.Errorf("%w: %s%% is not positive", ErrInvalidTolerance, pct.RatString())
	}
	if policy.MinPct != nil && pct.Cmp(policy.MinPct) < 0 {
		return Tolerance{}, fmt.Errorf("%w: %s%% is below the minimum %s%%",
			ErrInvalidTolerance, pct.RatString(), policy.MinPct.RatString())
	}
	if policy.MaxPct != nil && pct.Cmp(policy.MaxPct) > 0 {
		return Tolerance{}, fmt.Errorf("%w: %s%% exceeds the maximum %s%%",
			ErrInvalidTolerance, pct.RatString(), policy.MaxPct.RatString())
	}
	return Tolerance{pct: pct}, nil
}

// Percent returns a copy of the tolerance as a percentage.
func (t Tolerance) Percent() *big.Rat {
	return new(big.Rat).Set(t.pct)
}

func (t Tolerance) String() string {
	if t.pct == nil {
		return "0%"
	}
	return t.pct.RatString() + "%"
}

// BasisPoints converts the tolerance to the integer unit the adapter
// contract's addLiquidity expects: round(pct * 100), rounded to nearest with
// halves away from zero. This unit conversion is a contract boundary, not an
// internal representation.
func (t Tolerance) BasisPoints() uint64 {
	scaled := new(big.Rat).Mul(t.pct, ratHundred)
	q, r := new(big.Int).QuoRem(scaled.Num(), scaled.Denom(), new(big.Int))
	r.Lsh(r, 1)
	if r.Cmp(scaled.Denom()) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	return q.Uint64()
}

// MinimumOutput computes the guaranteed-minimum acceptable output for a
// quoted output: quoted * (1 - pct/100), quantized toward zero to the output
// token's precision. Rounding down only - rounding up would make the floor
// stricter than the user authorized and cause spurious execution failures.
func MinimumOutput(quoted token.Amount, tol Tolerance) token.Amount {
	factor := new(big.Rat).Sub(ratHundred, tol.pct)
	factor.Quo(factor, ratHundred)

	min := new(big.Int).Mul(quoted.Raw, factor.Num())
	min.Quo(min, factor.Denom())
	return token.Amount{Token: quoted.Token, Raw: min}
}
