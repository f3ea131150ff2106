package idver

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"
)

// base36Alphabet is the character set for base36 encoding (0-9, a-z).
const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// encodeBase36 converts bytes into a base36 string of exactly length
// characters, left-padding with zeros or truncating to the least
// significant digits as needed.
func encodeBase36(data []byte, length int) string {
	num := new(big.Int).SetBytes(data)
	base := big.NewInt(36)
	zero := big.NewInt(0)
	mod := new(big.Int)

	chars := make([]byte, 0, length)
	for num.Cmp(zero) > 0 {
		num.DivMod(num, base, mod)
		chars = append(chars, base36Alphabet[mod.Int64()])
	}

	var b strings.Builder
	for i := len(chars) - 1; i >= 0; i-- {
		b.WriteByte(chars[i])
	}
	str := b.String()
	if len(str) < length {
		str = strings.Repeat("0", length-len(str)) + str
	}
	if len(str) > length {
		str = str[len(str)-length:]
	}
	return str
}

// StubExternalID assigns a deterministic external_id placeholder to a stub
// entry created to satisfy a dependency edge whose child entity has not
// yet been ingested (spec.md §4.4 DependencyMissing). It is content
// derived, so the same missing reference always yields the same value.
func StubExternalID(orgSlug, entrySlug string) string {
	content := fmt.Sprintf("stub|%s|%s", orgSlug, entrySlug)
	sum := sha256.Sum256([]byte(content))
	return "stub-" + encodeBase36(sum[:5], 8)
}
