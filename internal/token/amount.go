package token

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrInvalidAmount is returned when a decimal string is not a
	// non-negative finite decimal number, or is zero where a positive
	// amount is required.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrTooManyDecimals is returned when a decimal string carries more
	// fractional digits than the token's precision allows. It wraps
	// ErrInvalidAmount; truncation is never applied silently.
	ErrTooManyDecimals = fmt.Errorf("%w: too many fractional digits", ErrInvalidAmount)
)

// Amount is a token quantity in the token's smallest unit. Raw is always
// non-negative for amounts produced by this package.
type Amount struct {
	Token Token
	Raw   *big.Int
}

// NewAmount wraps an already-scaled raw value. The value is copied.
func NewAmount(t Token, raw *big.Int) Amount {
	return Amount{Token: t, Raw: new(big.Int).Set(raw)}
}

// Zero returns the zero amount of the given token.
func Zero(t Token) Amount {
	return Amount{Token: t, Raw: new(big.Int)}
}

// Sign returns -1, 0 or +1 like big.Int.Sign.
func (a Amount) Sign() int {
	if a.Raw == nil {
		return 0
	}
	return a.Raw.Sign()
}

// Cmp compares two amounts of the same token.
func (a Amount) Cmp(b Amount) int {
	return a.Raw.Cmp(b.Raw)
}

// Decimal renders the amount as a decimal string with the token's full
// fractional precision, e.g. 5000000000 raw USDT -> "5000.000000".
func (a Amount) Decimal() string {
	raw := a.Raw
	if raw == nil {
		raw = new(big.Int)
	}
	return FormatUnits(raw, a.Token.Decimals)
}

func (a Amount) String() string {
	return a.Decimal() + " " + a.Token.Symbol
}

// ParseAmount converts a human-entered decimal string into base units.
// It fails with ErrInvalidAmount for malformed or negative input and with
// ErrTooManyDecimals when the string is more precise than the token allows.
func ParseAmount(s string, t Token) (Amount, error) {
	whole, frac, err := splitDecimal(s)
	if err != nil {
		return Amount{}, err
	}
	if len(frac) > int(t.Decimals) {
		return Amount{}, fmt.Errorf("%w: %q has %d fractional digits but %s allows %d",
			ErrTooManyDecimals, s, len(frac), t.Symbol, t.Decimals)
	}
	return Amount{Token: t, Raw: scale(whole, frac, t.Decimals)}, nil
}

// ParseAmountTruncating is the explicit rounding variant of ParseAmount:
// fractional digits beyond the token's precision are dropped (rounding toward
// zero) and the dropped remainder is reported through the logger. Callers that
// want strict validation use ParseAmount instead.
func ParseAmountTruncating(s string, t Token, logger *zap.Logger) (Amount, error) {
	whole, frac, err := splitDecimal(s)
	if err != nil {
		return Amount{}, err
	}
	if len(frac) > int(t.Decimals) {
		dropped := frac[t.Decimals:]
		frac = frac[:t.Decimals]
		logger.Warn("truncating amount beyond token precision",
			zap.String("input", s),
			zap.String("token", t.Symbol),
			zap.Uint8("decimals", t.Decimals),
			zap.String("dropped_digits", dropped))
	}
	return Amount{Token: t, Raw: scale(whole, frac, t.Decimals)}, nil
}

// FormatUnits renders a raw base-unit value with the given number of
// fractional digits. It is total for non-negative input and exact:
// ParseAmount(FormatUnits(x, d)) returns x for every non-negative x.
func FormatUnits(raw *big.Int, decimals uint8) string {
	div := pow10(decimals)
	whole, frac := new(big.Int).QuoRem(raw, div, new(big.Int))
	if decimals == 0 {
		return whole.String()
	}
	return fmt.Sprintf("%s.%0*s", whole.String(), decimals, frac.String())
}

// splitDecimal validates the textual form and returns the whole and
// fractional digit runs. Accepted grammar: digits, optionally followed by a
// point and more digits, with at least one digit overall. No signs, spaces,
// exponents or separators.
func splitDecimal(s string) (whole, frac string, err error) {
	if s == "" {
		return "", "", fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	whole = s
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	for _, part := range []string{whole, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return "", "", fmt.Errorf("%w: %q is not a non-negative decimal number", ErrInvalidAmount, s)
			}
		}
	}
	return whole, frac, nil
}

// scale builds whole.frac * 10^decimals as an integer. frac must already be
// at most decimals digits long.
func scale(whole, frac string, decimals uint8) *big.Int {
	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	raw, _ := new(big.Int).SetString(digits, 10)
	if raw == nil {
		raw = new(big.Int)
	}
	return raw
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
