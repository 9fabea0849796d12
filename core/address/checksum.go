// Package address implements the hash-based checksum encoding of contract
// and account addresses. The capitalization pattern of the hex digits is
// derived from a Pedersen hash of the address, giving an error-detecting
// display format that wallets on the network already agree on.
package address

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/cairoforge/starkplug/core/crypto"
	"github.com/cairoforge/starkplug/core/felt"
)

// Hex-address shape: optional 0x prefix, hex digits only, any length.
var hexAddressRegexp = regexp.MustCompile(`^(0x)?[0-9a-fA-F]*$`)

// Parse converts a supported address representation into a felt. Accepted
// inputs are *felt.Felt, unsigned and signed integers, big-endian byte
// slices, and hex strings with or without the 0x prefix.
func Parse(addr any) (*felt.Felt, error) {
	switch v := addr.(type) {
	case *felt.Felt:
		return v, nil
	case felt.Felt:
		return &v, nil
	case uint64:
		return new(felt.Felt).SetUint64(v), nil
	case int:
		if v < 0 {
			return nil, fmt.Errorf("negative address %d", v)
		}
		return new(felt.Felt).SetUint64(uint64(v)), nil
	case int64:
		if v < 0 {
			return nil, fmt.Errorf("negative address %d", v)
		}
		return new(felt.Felt).SetUint64(uint64(v)), nil
	case *big.Int:
		if v.Sign() < 0 {
			return nil, fmt.Errorf("negative address %s", v)
		}
		return new(felt.Felt).SetBigInt(v), nil
	case []byte:
		return new(felt.Felt).SetBytes(v), nil
	case string:
		return parseHex(v)
	default:
		return nil, fmt.Errorf("unsupported address representation %T", addr)
	}
}

func parseHex(s string) (*felt.Felt, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	if trimmed == "" {
		return nil, fmt.Errorf("empty address string %q", s)
	}

	val, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex address %q", s)
	}
	return new(felt.Felt).SetBigInt(val), nil
}

// EncodeChecksum returns the canonical mixed-case form of addr: "0x", then
// 64 hex digits whose capitalization encodes Pedersen(0, addr). The digest
// bytes are the minimal big-endian representation of the hash, so casing
// stops early when the hash has leading zero bytes; the remaining digits
// stay lowercase. Wallets implement the same early stop.
func EncodeChecksum(addr *felt.Felt) string {
	padded := addr.Bytes()
	chars := []byte(hex.EncodeToString(padded[:]))

	hashed := crypto.Pedersen(&felt.Zero, addr).Marshal()
	hashed = bytes.TrimLeft(hashed, "\x00")

	for i := 0; i < len(chars); i += 2 {
		if i>>1 >= len(hashed) {
			break
		}
		if hashed[i>>1]>>4 >= 8 {
			chars[i] = upper(chars[i])
		}
		if hashed[i>>1]&0x0f >= 8 {
			chars[i+1] = upper(chars[i+1])
		}
	}

	return "0x" + string(chars)
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'f' {
		return c - ('a' - 'A')
	}
	return c
}

// IsChecksumAddress reports whether s is a hex-address-shaped string whose
// value re-encodes to exactly s. Malformed or empty input returns false.
func IsChecksumAddress(s string) bool {
	if !hexAddressRegexp.MatchString(s) {
		return false
	}

	addr, err := parseHex(s)
	if err != nil {
		return false
	}
	return s == EncodeChecksum(addr)
}

// ToChecksumAddress converts any supported address representation to its
// checksummed form. Strings that already carry a valid checksum are
// returned unchanged, which makes the conversion idempotent.
func ToChecksumAddress(addr any) (string, error) {
	if s, ok := addr.(string); ok && IsChecksumAddress(s) {
		return s, nil
	}

	parsed, err := Parse(addr)
	if err != nil {
		return "", err
	}
	return EncodeChecksum(parsed), nil
}
