package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the precision of the native currency (wei-style 18 places).
const Decimals = 18

// MaxBits is the width of a contract uint256.
const MaxBits = 256

// FormatError is returned when a decimal amount string cannot be converted.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid amount %q: %s", e.Input, e.Reason)
}

// ParseAmount converts a human decimal string like "0.01" into its minor-unit
// integer using the given number of decimals. Fraction digits beyond
// decimals are dropped, never rounded.
//
// ok is false (with a nil error) when the input is empty or whitespace only:
// there is nothing to convert and the caller should skip the action.
func ParseAmount(s string, decimals int) (v *big.Int, ok bool, err error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return nil, false, nil
	}
	if decimals < 0 {
		return nil, false, fmt.Errorf("negative decimals: %d", decimals)
	}

	intPart, fracPart, _ := strings.Cut(in, ".")
	if strings.Contains(fracPart, ".") {
		return nil, false, &FormatError{Input: s, Reason: "more than one decimal point"}
	}
	if intPart == "" && fracPart == "" {
		return nil, false, &FormatError{Input: s, Reason: "no digits"}
	}
	if !digitsOnly(intPart) || !digitsOnly(fracPart) {
		return nil, false, &FormatError{Input: s, Reason: "not a decimal number"}
	}

	if len(fracPart) > decimals {
		fracPart = fracPart[:decimals]
	} else {
		fracPart += strings.Repeat("0", decimals-len(fracPart))
	}

	n, parsed := new(big.Int).SetString(intPart+fracPart, 10)
	if !parsed {
		return nil, false, &FormatError{Input: s, Reason: "not a decimal number"}
	}
	if n.BitLen() > MaxBits {
		return nil, false, &FormatError{Input: s, Reason: "does not fit in 256 bits"}
	}
	return n, true, nil
}

// ToWei is ParseAmount with the native 18 decimals.
func ToWei(s string) (*big.Int, bool, error) {
	return ParseAmount(s, Decimals)
}

// FormatAmount renders a minor-unit integer as a trimmed decimal string:
// 10^16 with 18 decimals is "0.01", 10^18 is "1". nil renders as "0".
func FormatAmount(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}

// FromWei is FormatAmount with the native 18 decimals.
func FromWei(v *big.Int) string {
	return FormatAmount(v, Decimals)
}

// TotalFine returns fine × count exactly. A nil fine counts as zero.
func TotalFine(fine *big.Int, count uint64) *big.Int {
	if fine == nil || count == 0 {
		return new(big.Int)
	}
	return new(big.Int).Mul(fine, new(big.Int).SetUint64(count))
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
