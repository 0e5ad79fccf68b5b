package normalizer

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Func maps a word before it is counted or looked up.
type Func func(string) string

// Identity leaves words untouched.
func Identity(s string) string { return s }

// NFC composes s to Unicode normalization form C.
func NFC(s string) string { return norm.NFC.String(s) }

// NFKC applies compatibility decomposition followed by composition.
func NFKC(s string) string { return norm.NFKC.String(s) }

// ByName returns the normalizer registered under name. An empty name or
// "none" selects Identity.
func ByName(name string) (Func, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return Identity, nil
	case "nfc":
		return NFC, nil
	case "nfkc":
		return NFKC, nil
	}
	return nil, fmt.Errorf("normalizer: unknown form %q", name)
}

// Words applies fn to every word and returns a new slice.
func Words(fn Func, words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = fn(w)
	}
	return out
}
