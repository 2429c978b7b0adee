package scoring

import "fmt"

type Policy string

const (
	PolicyStrict Policy = "strict"
	PolicyScored Policy = "scored"
)

const (
	DefaultMinWords     = 5
	DefaultThreshold    = 0.3
	DefaultMaxSpamRatio = 0.7
)

// Verdict is the outcome of classifying one message.
type Verdict struct {
	Meaningful bool
	// Score is in [0,1]. The strict policy reports 1 or 0.
	Score    float64
	Reason   string
	Category Category
}

type Scorer interface {
	Score(text string) Verdict
	Policy() Policy
}

func New(policy Policy, minWords int) (Scorer, error) {
	if minWords <= 0 {
		minWords = DefaultMinWords
	}

	strict := &StrictScorer{MinWords: minWords}
	switch policy {
	case PolicyStrict, "":
		return strict, nil
	case PolicyScored:
		return NewScoredScorer(strict), nil
	default:
		return nil, fmt.Errorf("unknown scoring policy %q", policy)
	}
}

func reject(reason string) Verdict {
	return Verdict{Reason: reason}
}
