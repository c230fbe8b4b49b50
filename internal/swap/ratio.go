// =============================
// File: internal/swap/ratio.go
// =============================
package swap

import (
	"fmt"
	"math/big"

	"swapkit/internal/token"
)

// AdviseSecondAmount proposes the second-token amount that matches the pool's
// current reserve ratio for a first-token input. With liquidity the advice is
// amountA * reserveB / reserveA in raw units, multiplying before dividing so
// no precision is lost to premature truncation. Without liquidity the
// caller-supplied bootstrap ratio (tokenB per tokenA, in human units) is used;
// the ratio is pair-specific configuration, and its absence is an error
// rather than a hardcoded constant.
//
// The advice never blocks or corrects a user-supplied second amount.
func AdviseSecondAmount(reserves ReservePair, amountA token.Amount, bootstrap *big.Rat) (token.Amount, error) {
	if !amountA.Token.Equal(reserves.A.Token) {
		return token.Amount{}, fmt.Errorf("input token %s does not match reserve token %s",
			amountA.Token.Symbol, reserves.A.Token.Symbol)
	}

	tokenB := reserves.B.Token
	if reserves.HasLiquidity() {
		advised := new(big.Int).Mul(amountA.Raw, reserves.B.Raw)
		advised.Quo(advised, reserves.A.Raw)
		return token.Amount{Token: tokenB, Raw: advised}, nil
	}

	if bootstrap == nil || bootstrap.Sign() <= 0 {
		return token.Amount{}, ErrNoBootstrapRatio
	}

	// amountB = amountA_human * ratio, rescaled from tokenA to tokenB
	// precision and floored to an integer base-unit count.
	num := new(big.Int).Mul(amountA.Raw, bootstrap.Num())
	num.Mul(num, pow10(tokenB.Decimals))
	den := new(big.Int).Mul(bootstrap.Denom(), pow10(amountA.Token.Decimals))
	return token.Amount{Token: tokenB, Raw: num.Quo(num, den)}, nil
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
