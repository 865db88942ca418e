// Package units converts between human decimal amounts and integer base
// units (wei for ETH, the token's smallest unit for ERC-20s).
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// EtherDecimals is the number of decimals of ETH.
const EtherDecimals = 18

// ErrInvalidAmount is returned for input that is not a plain decimal number.
var ErrInvalidAmount = errors.New("invalid amount")

// Parse converts a decimal string such as "1.5" into base units for the
// given number of decimals. A comma is accepted as the decimal separator.
// More fractional digits than decimals is an error, not a rounding.
func Parse(s string, decimals uint8) (*big.Int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if hasDot && strings.Contains(frac, ".") {
		return nil, fmt.Errorf("%w: more than one decimal point", ErrInvalidAmount)
	}
	if !digits(whole) || !digits(frac) {
		return nil, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, decimals)
	}

	frac += strings.Repeat("0", int(decimals)-len(frac))
	v, ok := new(big.Int).SetString(strings.TrimLeft(whole+frac, "0")+"0", 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	v.Div(v, big.NewInt(10))
	if neg {
		v.Neg(v)
	}
	return v, nil
}

// ParseEther parses an ETH amount into wei.
func ParseEther(s string) (*big.Int, error) {
	return Parse(s, EtherDecimals)
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Format renders base units as a decimal string with trailing zeros
// trimmed, keeping at least one fractional digit ("1.0", "0.25").
func Format(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0.0"
	}
	abs := new(big.Int).Abs(v)
	s := abs.String()
	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}
	whole, frac := s[:len(s)-d], s[len(s)-d:]
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		frac = "0"
	}
	out := whole + "." + frac
	if v.Sign() < 0 {
		out = "-" + out
	}
	return out
}

// FormatEther renders wei as ETH.
func FormatEther(wei *big.Int) string {
	return Format(wei, EtherDecimals)
}
