package ledger

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
)

const (
	idHexLength  = 64
	digestLength = 32
)

// IsValidID reports whether id is a 0x-prefixed hex object id or address of
// at most 32 bytes.
func IsValidID(id string) bool {
	if !strings.HasPrefix(id, "0x") && !strings.HasPrefix(id, "0X") {
		return false
	}
	digits := id[2:]
	if len(digits) == 0 || len(digits) > idHexLength {
		return false
	}
	for _, c := range digits {
		if !isHexDigit(c) {
			return false
		}
	}
	return true
}

// NormalizeID left-pads an id to its full 32-byte lowercase form, so "0x6"
// and "0x000...006" compare equal. Invalid ids are returned unchanged.
func NormalizeID(id string) string {
	if !IsValidID(id) {
		return id
	}
	return common.HexToHash(id).Hex()
}

// SameID compares two ids after normalization.
func SameID(a, b string) bool {
	return NormalizeID(a) == NormalizeID(b)
}

// IsValidDigest reports whether d decodes to a 32-byte base58 transaction digest.
func IsValidDigest(d string) bool {
	if d == "" {
		return false
	}
	raw, err := base58.Decode(d)
	if err != nil {
		return false
	}
	return len(raw) == digestLength
}

// CanonicalType normalizes a Move type tag: the coin wrapper
// 0x2::coin::Coin<T> is unwrapped to T and the address part is padded.
func CanonicalType(t string) string {
	t = strings.TrimSpace(t)
	const coinPrefix = "::coin::Coin<"
	if idx := strings.Index(t, coinPrefix); idx >= 0 && strings.HasSuffix(t, ">") {
		if SameID(t[:idx], "0x2") {
			t = t[idx+len(coinPrefix) : len(t)-1]
		}
	}

	parts := strings.SplitN(t, "::", 3)
	if len(parts) != 3 {
		return t
	}
	return NormalizeID(parts[0]) + "::" + parts[1] + "::" + parts[2]
}

// SameType compares two Move type tags in canonical form.
func SameType(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return CanonicalType(a) == CanonicalType(b)
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
