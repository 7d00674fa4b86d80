package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"
)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Slugify converts a title into a URL-safe slug: lowercase, non-alphanumeric
// runs collapsed into single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// RandomSuffix returns n random lowercase alphanumeric characters, used to
// disambiguate locally generated slugs.
func RandomSuffix(n int) string {
	var b strings.Builder
	max := big.NewInt(int64(len(suffixAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			b.WriteByte('x')
			continue
		}
		b.WriteByte(suffixAlphabet[idx.Int64()])
	}
	return b.String()
}
