package scoring

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds the text to NFKC lower case. A Caser is stateful, so one is
// built per call.
func Normalize(text string) string {
	return cases.Lower(language.Und).String(norm.NFKC.String(text))
}

// Tokenize lower-cases the text, drops everything that is not a letter,
// digit, mark, underscore or whitespace and splits on whitespace.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r), r == '_':
			return r
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, Normalize(text))

	return strings.Fields(cleaned)
}

func runeLen(s string) int {
	return len([]rune(s))
}

func distinctRunes(s string) int {
	seen := make(map[rune]struct{}, len(s))
	for _, r := range s {
		seen[r] = struct{}{}
	}
	return len(seen)
}
