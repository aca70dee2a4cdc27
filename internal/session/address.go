package session

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/w3penalty/internal/units"
)

// ValidAddress reports whether s is a 0x-prefixed 20-byte hex address.
// Mixed-case input must carry a valid EIP-55 checksum.
func ValidAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") || !common.IsHexAddress(s) {
		return false
	}
	body := s[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return common.HexToAddress(s).Hex() == s
}

// ParseAddress validates s and returns the address it names.
func ParseAddress(field, s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !ValidAddress(s) {
		return common.Address{}, &ValidationError{Field: field, Value: s, Reason: "not a valid address"}
	}
	return common.HexToAddress(s), nil
}

// ValidCount reports whether s is a non-empty string of decimal digits.
func ValidCount(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseCount validates s as a non-negative integer of any size.
func ParseCount(field, s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if !ValidCount(s) {
		return nil, &ValidationError{Field: field, Value: s, Reason: "must be a non-negative whole number"}
	}
	v, _ := new(big.Int).SetString(s, 10)
	if v.BitLen() > units.MaxBits {
		return nil, &ValidationError{Field: field, Value: s, Reason: "does not fit in 256 bits"}
	}
	return v, nil
}
