package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jkcommunity/jkbot/internal/domain/ledger"
	"github.com/jkcommunity/jkbot/internal/domain/winners"
)

func FormatNumber(n int64) string {
	str := strconv.FormatInt(n, 10)
	if n < 0 {
		str = str[1:]
	}

	var result []byte
	for i := len(str) - 1; i >= 0; i-- {
		if (len(str)-i-1)%3 == 0 && i != len(str)-1 {
			result = append([]byte{','}, result...)
		}
		result = append([]byte{str[i]}, result...)
	}

	if n < 0 {
		return "-" + string(result)
	}
	return string(result)
}

// Medal returns the leaderboard emoji for a 1-based rank.
func Medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return "🏅"
	}
}

// Mention renders a handle as @handle, falling back to a placeholder.
func Mention(handle string, fallback string) string {
	if handle == "" {
		return "@" + fallback
	}
	return "@" + handle
}

// FormatStandings renders one line per entry; offset is the rank of the first
// entry minus one.
func FormatStandings(standings []ledger.Standing, offset int) string {
	var b strings.Builder
	for i, s := range standings {
		rank := offset + i + 1
		fmt.Fprintf(&b, "%s %d. %s - %s очков\n",
			Medal(rank), rank, Mention(s.Handle, fmt.Sprintf("user_%d", rank)), FormatNumber(s.Points))
	}
	return b.String()
}

// FormatMonth turns a month bucket key into "February 2024".
func FormatMonth(monthStart string) string {
	t, err := time.Parse(ledger.KeyLayout, monthStart)
	if err != nil {
		return monthStart
	}
	return t.Format("January 2006")
}

func FormatWinners(history []winners.Winner) string {
	var b strings.Builder
	for _, w := range history {
		fmt.Fprintf(&b, "👑 %s: %s (%s очков)\n",
			FormatMonth(w.MonthStart), Mention(w.Handle, "user"), FormatNumber(w.Points))
	}
	return b.String()
}

var bucketTitles = map[ledger.Bucket]string{
	ledger.BucketDay:   "сегодня",
	ledger.BucketWeek:  "неделю",
	ledger.BucketMonth: "месяц",
}

var emptyBucket = map[ledger.Bucket]string{
	ledger.BucketDay:   "Сегодня пока нет активных пользователей. Будь первым!",
	ledger.BucketWeek:  "Пока нет данных за эту неделю. Будь первым!",
	ledger.BucketMonth: "Пока нет данных за этот месяц. Будь первым!",
}

// LeaderboardTitle is the heading of a top-N listing.
func LeaderboardTitle(bucket ledger.Bucket, n int) string {
	return fmt.Sprintf("🏆 Топ-%d за %s", n, bucketTitles[bucket])
}

// EmptyLeaderboard is shown when nobody scored in the bucket yet.
func EmptyLeaderboard(bucket ledger.Bucket) string {
	return emptyBucket[bucket]
}

func DailyReport(standings []ledger.Standing) string {
	if len(standings) == 0 {
		return "📊 **Ежедневный отчет**\n\n" + EmptyLeaderboard(ledger.BucketDay)
	}
	return "📊 **Ежедневный отчет активности**\n\n🏆 **Топ активных пользователей:**\n\n" +
		FormatStandings(standings, 0) +
		"\n🎯 **Продолжайте общаться и зарабатывать очки!**"
}

func BoostAnnouncement(startHour, endHour int, base, boost float64) string {
	return fmt.Sprintf("🚀 **БУСТ АКТИВНОСТИ!**\n\n"+
		"С %d:00 до %d:00 по МСК вероятность получения очков повышена с %.0f%% до %.0f%%!\n\n"+
		"💬 Общайся активно и зарабатывай больше очков!\n"+
		"⏰ Буст действует %s",
		startHour, endHour, base*100, boost*100, Hours(endHour-startHour))
}

func WinnerAnnouncement(w *winners.Winner) string {
	return fmt.Sprintf("👑 **ПОБЕДИТЕЛЬ МЕСЯЦА!**\n\n"+
		"Поздравляем %s с победой в прошлом месяце!\n"+
		"🏆 Набрано очков: %s\n\n"+
		"Отличная работа! Продолжайте в том же духе! 🎉",
		Mention(w.Handle, "user"), FormatNumber(w.Points))
}

// MutedNotice tells a muted sender how long the mute lasts.
func MutedNotice(left time.Duration) string {
	left = left.Round(time.Second)
	return fmt.Sprintf("Вы в муте ещё %d мин %d сек.", int(left.Minutes()), int(left.Seconds())%60)
}

// Hours renders an hour count with the Russian plural form.
func Hours(n int) string {
	switch {
	case n%10 == 1 && n%100 != 11:
		return fmt.Sprintf("%d час", n)
	case n%10 >= 2 && n%10 <= 4 && (n%100 < 12 || n%100 > 14):
		return fmt.Sprintf("%d часа", n)
	default:
		return fmt.Sprintf("%d часов", n)
	}
}
