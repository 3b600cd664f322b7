// Package contenthash computes the canonical content-hash fingerprint
// used by the Store to deduplicate questions globally.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	punctSpacing  = regexp.MustCompile(`\s*([.!?,:;])\s*`)
)

// normalize lowercases, collapses whitespace runs to a single space, trims,
// and standardizes spacing around .!?,:; (no space before, exactly one
// space after, unconditionally, then re-collapsed and re-trimmed).
func normalize(s string) string {
	s = strings.ToLower(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = punctSpacing.ReplaceAllString(s, "$1 ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Canonical builds the canonical "|"-joined string used as the hash input:
// normalized prompt, normalized answer, then the four normalized options
// sorted lexicographically.
func Canonical(prompt, answer string, options []string) string {
	normOptions := make([]string, len(options))
	for i, o := range options {
		normOptions[i] = normalize(o)
	}
	sort.Strings(normOptions)

	parts := make([]string, 0, 2+len(normOptions))
	parts = append(parts, normalize(prompt), normalize(answer))
	parts = append(parts, normOptions...)
	return strings.Join(parts, "|")
}

// Compute returns the first 16 hex characters of the SHA-256 digest of the
// canonical string's UTF-8 bytes.
func Compute(prompt, answer string, options []string) string {
	sum := sha256.Sum256([]byte(Canonical(prompt, answer, options)))
	return hex.EncodeToString(sum[:])[:16]
}
