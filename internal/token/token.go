// Package token defines the token identity and fixed-point amount types used
// throughout the client. All arithmetic happens on raw base units; decimal
// strings are a presentation form only.
package token

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Token describes an ERC-20 token the client is configured to trade. Decimals
// fixes the fixed-point scale for every amount of this token; pairs with
// mismatched decimals are the normal case, never assumed equal.
type Token struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
}

func (t Token) String() string {
	return t.Symbol
}

// Equal reports whether two tokens refer to the same contract.
func (t Token) Equal(other Token) bool {
	return t.Address == other.Address
}

// PairKey returns a stable "A/B" key for configuration lookups.
func PairKey(a, b Token) string {
	return fmt.Sprintf("%s/%s", a.Symbol, b.Symbol)
}
