package scoring

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

const (
	minMessageLength = 3
	maxMessageLength = 1000

	punctuationBonus = 0.1
	mixedCaseBonus   = 0.05
	maxDiversity     = 0.2
)

var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[0-9]+$`),
	regexp.MustCompile(`^[a-zA-Z0-9]{20,}$`),
	regexp.MustCompile(`^[a-zA-Z]{1,2}[0-9]{10,}$`),
	regexp.MustCompile(`^[а-яё]{1,2}[0-9]{10,}$`),
	regexp.MustCompile(`^[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?]{5,}$`),
	regexp.MustCompile(`^[а-яё]{1,3}[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?]{3,}$`),
}

// ScoredScorer applies the strict rules and then requires a vocabulary based
// quality score above Threshold with a spam ratio of at most MaxSpamRatio.
type ScoredScorer struct {
	Strict       *StrictScorer
	Threshold    float64
	MaxSpamRatio float64
}

func NewScoredScorer(strict *StrictScorer) *ScoredScorer {
	return &ScoredScorer{
		Strict:       strict,
		Threshold:    DefaultThreshold,
		MaxSpamRatio: DefaultMaxSpamRatio,
	}
}

func (s *ScoredScorer) Policy() Policy {
	return PolicyScored
}

func (s *ScoredScorer) Score(text string) Verdict {
	trimmed := strings.TrimSpace(text)
	if runeLen(trimmed) < minMessageLength {
		return reject("message too short")
	}
	if runeLen(text) > maxMessageLength {
		return reject("message too long")
	}
	for _, p := range spamPatterns {
		if p.MatchString(trimmed) {
			return reject("spam pattern")
		}
	}
	if reason := s.Strict.Check(text); reason != "" {
		return reject(reason)
	}

	spam := SpamRatio(text)
	if spam > s.MaxSpamRatio {
		return reject("spam vocabulary")
	}

	score := QualityScore(text) * (1 - spam)
	if score <= s.Threshold {
		return Verdict{Score: score, Reason: "not meaningful enough"}
	}

	return Verdict{Meaningful: true, Score: score, Category: Classify(text)}
}

// SpamRatio is the number of spam vocabulary entries present in the text
// divided by its whitespace word count, capped at 1.
func SpamRatio(text string) float64 {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}

	lowered := Normalize(text)
	hits := 0
	for _, w := range spamVocabulary {
		if strings.Contains(lowered, w) {
			hits++
		}
	}
	return math.Min(float64(hits)/float64(words), 1)
}

// QualityScore combines vocabulary density with small bonuses for
// punctuation, mixed case and character diversity, capped at 1.
func QualityScore(text string) float64 {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}

	lowered := Normalize(text)
	hits := 0
	for _, group := range meaningfulVocabulary {
		for _, w := range group {
			if strings.Contains(lowered, w) {
				hits++
			}
		}
	}

	bonus := 0.0
	if strings.ContainsAny(text, ".,!?;:") {
		bonus += punctuationBonus
	}
	if strings.ToUpper(text) != text && strings.IndexFunc(text, unicode.IsUpper) >= 0 {
		bonus += mixedCaseBonus
	}

	diversity := math.Min(float64(distinctRunes(lowered))/float64(runeLen(text)), maxDiversity)

	return math.Min(float64(hits)/float64(words)+bonus+diversity, 1)
}
