package achievements

import (
	"fmt"
	"strings"
)

// DefaultThresholds are the daily totals that trigger a check. 10000 is
// always appended when missing.
var DefaultThresholds = []int64{200, 500, 1000, 2000, 5000}

const TopThreshold int64 = 10000

// Templates maps a threshold to its congratulation variants. {username} is
// replaced with the achiever's name.
type Templates map[int64][]string

var DefaultTemplates = Templates{
	200: {
		"🎉 Отличное начало, {username}! Ты набрал 200 очков!",
		"🚀 {username} достиг 200 очков! Продолжай в том же духе!",
	},
	500: {
		"🔥 {username} набрал 500 очков! Ты на верном пути!",
		"⭐ {username} - 500 очков! Отличная активность!",
	},
	1000: {
		"💎 {username} достиг 1000 очков! Невероятная активность!",
		"👑 {username} - 1000 очков! Ты настоящий лидер!",
	},
	2000: {
		"🌟 {username} набрал 2000 очков! Феноменальная работа!",
		"🏆 {username} - 2000 очков! Ты легенда чата!",
	},
	5000: {
		"💫 {username} достиг 5000 очков! Абсолютный рекорд!",
		"🎊 {username} - 5000 очков! Ты непревзойденный чемпион!",
	},
}

// Render picks variant pick(n) for the threshold, or the generic
// first-achiever line when the threshold has no templates.
func (t Templates) Render(threshold int64, name string, pick func(n int) int) string {
	variants := t[threshold]
	if len(variants) == 0 {
		return fmt.Sprintf("🎉 @%s первый достиг %d очков за сегодня! Поздравляем!", name, threshold)
	}
	return strings.ReplaceAll(variants[pick(len(variants))], "{username}", name)
}
