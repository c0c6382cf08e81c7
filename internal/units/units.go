// Package units converts token amounts between human-readable decimal strings
// and integer base units. All conversions are exact.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("fractional component exceeds decimals")
)

var amountPattern = regexp.MustCompile(`^\+?(\d+(\.\d*)?|\.\d+)$`)

// FromBaseUnits formats x (scaled by 10^decimals) as a decimal string.
// The result always carries at least one fractional digit: 10 tokens with
// 18 decimals render as "10.0".
func FromBaseUnits(x *big.Int, decimals uint8) string {
	if x == nil {
		x = new(big.Int)
	}
	s := decimal.NewFromBigInt(x, -int32(decimals)).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ToBaseUnits parses a human amount such as "12.5" into base units.
// Trailing fractional zeros are ignored, so "10.0" is valid for decimals 0.
func ToBaseUnits(s string, decimals uint8) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if !amountPattern.MatchString(s) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		frac := strings.TrimRight(s[dot+1:], "0")
		if len(frac) > int(decimals) {
			return nil, fmt.Errorf("%w: %q has %d fractional digits, token has %d",
				ErrTooManyDecimals, s, len(frac), decimals)
		}
	}

	s = strings.TrimPrefix(s, "+")
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return d.Shift(int32(decimals)).BigInt(), nil
}

// MustToBaseUnits is ToBaseUnits for constants. It panics on malformed input.
func MustToBaseUnits(s string, decimals uint8) *big.Int {
	n, err := ToBaseUnits(s, decimals)
	if err != nil {
		panic(err)
	}
	return n
}
