package scoring

import (
	"fmt"
	"regexp"
)

const (
	floodLimit      = 3
	shortTokenLen   = 2
	shortTokenShare = 0.7
)

var digitsOnly = regexp.MustCompile(`^[\d\s]+$`)

// StrictScorer accepts a message only when none of the spam rules match.
type StrictScorer struct {
	MinWords int
}

func (s *StrictScorer) Policy() Policy {
	return PolicyStrict
}

func (s *StrictScorer) Score(text string) Verdict {
	if reason := s.Check(text); reason != "" {
		return reject(reason)
	}
	return Verdict{Meaningful: true, Score: 1, Category: Classify(text)}
}

// Check returns the first rule the text breaks, or "" when it passes.
func (s *StrictScorer) Check(text string) string {
	words := Tokenize(text)
	if len(words) < s.MinWords {
		return fmt.Sprintf("fewer than %d words", s.MinWords)
	}

	if digitsOnly.MatchString(text) {
		return "digits only"
	}

	counts := make(map[string]int, len(words))
	short := 0
	for _, w := range words {
		n := runeLen(w)
		if n <= shortTokenLen {
			short++
			continue
		}
		if distinctRunes(w) <= 2 {
			return fmt.Sprintf("repeated characters in %q", w)
		}
		counts[w]++
		if counts[w] > floodLimit {
			return fmt.Sprintf("word %q repeated more than %d times", w, floodLimit)
		}
	}

	if float64(short) > float64(len(words))*shortTokenShare {
		return "mostly short tokens"
	}

	return ""
}
