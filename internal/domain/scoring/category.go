package scoring

import "strings"

type Category string

const (
	CategoryQuestion Category = "question"
	CategoryGreeting Category = "greeting"
	CategoryFarewell Category = "farewell"
	CategoryThanks   Category = "thanks"
	CategoryEmotion  Category = "emotion"
	CategoryGeneral  Category = "general"
)

func IsQuestion(text string) bool {
	return containsAny(Normalize(text), questionMarkers)
}

// Classify picks the first matching category in priority order.
func Classify(text string) Category {
	lowered := Normalize(text)
	switch {
	case containsAny(lowered, questionMarkers):
		return CategoryQuestion
	case containsAny(lowered, greetingMarkers):
		return CategoryGreeting
	case containsAny(lowered, farewellMarkers):
		return CategoryFarewell
	case containsAny(lowered, thanksMarkers):
		return CategoryThanks
	case containsAny(lowered, emotionMarkers):
		return CategoryEmotion
	default:
		return CategoryGeneral
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
