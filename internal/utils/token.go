package utils

import (
	"strings"
	"unicode"
)

// CollapseWhitespace trims a string and squeezes internal whitespace runs
// down to a single space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// WordCount returns the number of whitespace separated tokens in a phrase.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// IsIdentifierToken reports whether a token looks like a field or parameter
// identifier: it contains an underscore, or mixes upper and lower case past
// the first rune ("payment_id", "endToEndId"). Identifier tokens keep their
// original casing through normalization.
func IsIdentifierToken(tok string) bool {
	if strings.ContainsRune(tok, '_') {
		return true
	}
	hasLower := false
	hasInnerUpper := false
	for i, r := range tok {
		if unicode.IsLower(r) {
			hasLower = true
		}
		if i > 0 && unicode.IsUpper(r) {
			hasInnerUpper = true
		}
	}
	return hasLower && hasInnerUpper
}

// HasWordBoundedSubstring reports whether short appears in long as a
// whitespace bounded substring: "credit transfer" is word-bounded inside
// "ACH credit transfer", but "ransfer" is not.
func HasWordBoundedSubstring(long, short string) bool {
	if short == "" || len(short) >= len(long) {
		return false
	}
	return strings.Contains(" "+long+" ", " "+short+" ")
}

// SingularCandidates returns the plural-stripped forms of a phrase's final
// word: first with a trailing "s" removed, then with a trailing "es"
// removed, each only when the stripped word keeps at least minStem
// characters. Both forms are needed because the singular may itself end in
// "e" ("type"/"types") or not ("batch"/"batches"); callers match any
// candidate against the unstripped canonicals of earlier phrases. The
// phrase itself is not included.
func SingularCandidates(phrase string, minStem int) []string {
	idx := strings.LastIndexByte(phrase, ' ')
	head, last := "", phrase
	if idx >= 0 {
		head, last = phrase[:idx+1], phrase[idx+1:]
	}
	var out []string
	if strings.HasSuffix(last, "s") && len(last)-1 >= minStem {
		out = append(out, head+last[:len(last)-1])
	}
	if strings.HasSuffix(last, "es") && len(last)-2 >= minStem {
		out = append(out, head+last[:len(last)-2])
	}
	return out
}
