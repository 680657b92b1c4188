package tokenizer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"golang.org/x/text/unicode/norm"
)

// nonWordRegex matches sequences of characters that cannot be part of a word unit.
var nonWordRegex = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_]+`)

// Tokenize converts a string into a slice of lowercase alphabetic tokens.
// It NFKC-normalizes and lowercases the text, splits it into word units and
// discards every unit containing a non-letter (digits, underscores), so
// "item123" disappears entirely while "black-wallet" yields "black" and "wallet".
func Tokenize(text string) []string {
	tokens := make([]string, 0) // Initialize as empty slice, not nil
	if text == "" {
		return tokens
	}

	// 1. Fold compatibility forms (ligatures, full-width letters) and lowercase
	lowerText := strings.ToLower(norm.NFKC.String(text))

	// 2. Split into word units
	for _, s := range nonWordRegex.Split(lowerText, -1) {
		// 3. Keep purely alphabetic units only
		if s != "" && isAlphabetic(s) {
			tokens = append(tokens, s)
		}
	}
	return tokens
}

// Normalize turns raw text into the token sequence used for matching:
// tokenize, drop English stopwords, then stem what remains (stems that are
// themselves stopwords are dropped too).
// It never fails; empty or garbage input yields an empty slice.
func Normalize(text string) []string {
	tokens := Tokenize(text)

	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if IsStopword(token) {
			continue
		}
		stem := Stem(token)
		if IsStopword(stem) {
			continue
		}
		result = append(result, stem)
	}
	return result
}

// NormalizeFields joins name, description and place with single spaces
// (nil fields count as empty) and normalizes the result.
func NormalizeFields(name, description, place *string) []string {
	return Normalize(deref(name) + " " + deref(description) + " " + deref(place))
}

// maxStemPasses bounds the fixed-point loop in Stem.
const maxStemPasses = 8

// Stem reduces a lowercase token to its Snowball (Porter2) English stem,
// re-stemming until the result is stable so Stem(Stem(w)) == Stem(w).
func Stem(token string) string {
	stem := token
	for i := 0; i < maxStemPasses; i++ {
		next := english.Stem(stem, false)
		if next == stem {
			break
		}
		stem = next
	}
	return stem
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsMark(r) {
			return false
		}
	}
	return true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
