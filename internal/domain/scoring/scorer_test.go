package scoring

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrictScorer(t *testing.T) {
	s := &StrictScorer{MinWords: DefaultMinWords}

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "too few words", text: "hello there", want: false},
		{name: "exactly five words", text: "I really like this movie", want: true},
		{name: "punctuation stripped", text: "hello, world! how are you?", want: true},
		{name: "cyrillic sentence", text: "Сегодня вечером идём в кино с друзьями", want: true},
		{name: "emoji do not count as words", text: "🔥🔥🔥 !!! ??? ... hi", want: false},
		{name: "repeated character token", text: "ааааа ааааа hello world friends today", want: false},
		{name: "two distinct characters", text: "ababab hello world friends today", want: false},
		{name: "flood", text: "spam spam spam spam hello world", want: false},
		{name: "three repeats allowed", text: "spam spam spam hello world", want: true},
		{name: "digits only", text: "12345 67890 13579 24680 97531", want: false},
		{name: "short token spam", text: "a b c d e f hello", want: false},
		{name: "seventy percent short is fine", text: "a b c d e f g hello world again", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.text)
			assert.Equal(t, tt.want, got.Meaningful, "reason: %s", got.Reason)
			if tt.want {
				assert.Equal(t, 1.0, got.Score)
			} else {
				assert.NotEmpty(t, got.Reason)
			}
		})
	}
}

func TestFewerWordsThanMinimumNeverMeaningful(t *testing.T) {
	vocabulary := []string{"what", "today", "reading", "home", "Сегодня", "вечером", "love", "hello"}
	rng := rand.New(rand.NewPCG(1, 2))

	for _, policy := range []Policy{PolicyStrict, PolicyScored} {
		scorer, err := New(policy, 5)
		require.NoError(t, err)

		for i := 0; i < 500; i++ {
			n := rng.IntN(5)
			words := make([]string, n)
			for j := range words {
				words[j] = vocabulary[rng.IntN(len(vocabulary))]
			}
			text := strings.Join(words, " ")
			assert.False(t, scorer.Score(text).Meaningful, "%s accepted %q", policy, text)
		}
	}
}

func TestSingleRepeatedRunRejected(t *testing.T) {
	for _, policy := range []Policy{PolicyStrict, PolicyScored} {
		scorer, err := New(policy, 1)
		require.NoError(t, err)

		for _, run := range []string{"ааа", "оооооооо", "zzzz", "!!!!!!!!", "1111111"} {
			assert.False(t, scorer.Score(run).Meaningful, "%s accepted %q", policy, run)
		}
	}
}

func TestScoredScorer(t *testing.T) {
	scorer, err := New(PolicyScored, DefaultMinWords)
	require.NoError(t, err)
	require.Equal(t, PolicyScored, scorer.Policy())

	t.Run("vocabulary rich message accepted", func(t *testing.T) {
		got := scorer.Score("What are you doing today? I love reading at home.")
		assert.True(t, got.Meaningful)
		assert.InDelta(t, 0.95, got.Score, 1e-9)
		assert.Equal(t, CategoryQuestion, got.Category)
	})

	t.Run("strict accepts but score too low", func(t *testing.T) {
		text := "zebra quartz jumps over lazy fox"
		assert.True(t, (&StrictScorer{MinWords: 5}).Score(text).Meaningful)

		got := scorer.Score(text)
		assert.False(t, got.Meaningful)
		assert.InDelta(t, 0.2, got.Score, 1e-9)
	})

	t.Run("spam vocabulary above ratio", func(t *testing.T) {
		text := "buy money bonus prize casino now"
		assert.InDelta(t, 5.0/6.0, SpamRatio(text), 1e-9)
		assert.False(t, scorer.Score(text).Meaningful)
	})

	t.Run("strict rules still apply", func(t *testing.T) {
		assert.False(t, scorer.Score("what what what what how today").Meaningful)
	})

	t.Run("too long", func(t *testing.T) {
		text := strings.Repeat("what a lovely evening at home today ", 40)
		assert.False(t, scorer.Score(text).Meaningful)
	})
}

func TestScoredBoundaries(t *testing.T) {
	const (
		sevenOfTen = "spam casino lottery prize bonus loan profit today friends garden"
		eightOfTen = "spam casino lottery prize bonus loan profit money friends garden"
		plain      = "zebra quartz jumps over lazy fox"
	)
	require.Equal(t, 0.7, SpamRatio(sevenOfTen))
	require.Equal(t, 0.8, SpamRatio(eightOfTen))
	plainScore := QualityScore(plain) * (1 - SpamRatio(plain))

	tests := []struct {
		name      string
		text      string
		threshold float64
		accepted  bool
		reason    string
	}{
		{name: "spam ratio at the limit", text: sevenOfTen, threshold: 0, accepted: true},
		{name: "spam ratio above the limit", text: eightOfTen, threshold: 0, reason: "spam vocabulary"},
		{name: "score equal to threshold", text: plain, threshold: plainScore, reason: "not meaningful enough"},
		{name: "score just above threshold", text: plain, threshold: plainScore - 1e-9, accepted: true},
		{name: "default threshold caps spammy text", text: sevenOfTen, threshold: DefaultThreshold, reason: "not meaningful enough"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := NewScoredScorer(&StrictScorer{MinWords: DefaultMinWords})
			scorer.Threshold = tt.threshold

			got := scorer.Score(tt.text)
			assert.Equal(t, tt.accepted, got.Meaningful)
			if !tt.accepted {
				assert.Equal(t, tt.reason, got.Reason)
			}
		})
	}
}

func TestQualityScoreBounds(t *testing.T) {
	for _, text := range []string{
		"",
		"what how where when why who which today tomorrow",
		"plain words without anything",
		"КАПС ЛОК СООБЩЕНИЕ БЕЗ СМЫСЛА",
	} {
		score := QualityScore(text)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestNewRejectsUnknownPolicy(t *testing.T) {
	_, err := New("fuzzy", 5)
	assert.Error(t, err)

	s, err := New("", 0)
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, s.Policy())
	assert.Equal(t, DefaultMinWords, s.(*StrictScorer).MinWords)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Category
	}{
		{text: "Where is the station?", want: CategoryQuestion},
		{text: "Привет всем друзья", want: CategoryGreeting},
		{text: "Thanks a lot", want: CategoryThanks},
		{text: "goodbye everyone", want: CategoryFarewell},
		{text: "I am so happy now", want: CategoryEmotion},
		{text: "The weather is nice", want: CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}

	assert.True(t, IsQuestion("как дела"))
	assert.False(t, IsQuestion("just a statement"))
}
