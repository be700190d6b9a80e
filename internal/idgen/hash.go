// Package idgen generates identifiers and file-name slugs for tracked entities.
package idgen

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// IDLength is the fixed length of every generated identifier.
const IDLength = 8

// maxAttempts bounds collision retries before giving up.
const maxAttempts = 16

// base36Alphabet is the character set for base36 encoding (0-9, a-z).
const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var idPattern = regexp.MustCompile(`^[0-9a-z]{8}$`)

// IsValidID reports whether s has the generated identifier shape.
func IsValidID(s string) bool {
	return idPattern.MatchString(s)
}

// EncodeBase36 converts a byte slice to a base36 string of specified length.
// Shorter results are zero-padded; longer ones keep the least significant digits.
func EncodeBase36(data []byte, length int) string {
	num := new(big.Int).SetBytes(data)

	base := big.NewInt(36)
	zero := big.NewInt(0)
	mod := new(big.Int)

	chars := make([]byte, 0, length)
	for num.Cmp(zero) > 0 {
		num.DivMod(num, base, mod)
		chars = append(chars, base36Alphabet[mod.Int64()])
	}

	var result strings.Builder
	for i := len(chars) - 1; i >= 0; i-- {
		result.WriteByte(chars[i])
	}

	str := result.String()
	if len(str) < length {
		str = strings.Repeat("0", length-len(str)) + str
	}
	if len(str) > length {
		str = str[len(str)-length:]
	}
	return str
}

// HashID derives an identifier from the creation inputs. The nonce is bumped on collision.
func HashID(title, creator string, timestamp time.Time, nonce int) string {
	content := fmt.Sprintf("%s|%s|%d|%d", title, creator, timestamp.UnixNano(), nonce)
	hash := sha256.Sum256([]byte(content))
	// 6 bytes = 48 bits, comfortably more than 8 base36 chars (~41 bits)
	return EncodeBase36(hash[:6], IDLength)
}

// Generate returns a fresh identifier that exists does not report as taken.
func Generate(title, creator string, now time.Time, exists func(id string) bool) (string, error) {
	for nonce := 0; nonce < maxAttempts; nonce++ {
		id := HashID(title, creator, now, nonce)
		if exists == nil || !exists(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique id after %d attempts", maxAttempts)
}
