package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jkcommunity/jkbot/internal/domain/errs"
	"github.com/jkcommunity/jkbot/internal/domain/ledger"
	"github.com/jkcommunity/jkbot/internal/domain/winners"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "1,000", FormatNumber(1000))
	assert.Equal(t, "-12,345,678", FormatNumber(-12345678))
}

func TestFormatStandings(t *testing.T) {
	out := FormatStandings([]ledger.Standing{
		{UserID: 1, Handle: "alice", Points: 1200},
		{UserID: 2, Handle: "bob", Points: 30},
		{UserID: 3, Points: 20},
		{UserID: 4, Handle: "dave", Points: 10},
	}, 0)

	assert.Equal(t, "🥇 1. @alice - 1,200 очков\n"+
		"🥈 2. @bob - 30 очков\n"+
		"🥉 3. @user_3 - 20 очков\n"+
		"🏅 4. @dave - 10 очков\n", out)

	assert.Equal(t, "🏅 11. @kate - 5 очков\n",
		FormatStandings([]ledger.Standing{{Handle: "kate", Points: 5}}, 10))
}

func TestDailyReport(t *testing.T) {
	assert.Contains(t, DailyReport(nil), "Будь первым!")

	report := DailyReport([]ledger.Standing{{Handle: "alice", Points: 40}})
	assert.Contains(t, report, "Ежедневный отчет активности")
	assert.Contains(t, report, "🥇 1. @alice - 40 очков")
}

func TestWinnersFormatting(t *testing.T) {
	out := FormatWinners([]winners.Winner{{Handle: "bob", Points: 450, MonthStart: "2024-02-01"}})
	assert.Equal(t, "👑 February 2024: @bob (450 очков)\n", out)

	announcement := WinnerAnnouncement(&winners.Winner{Handle: "bob", Points: 450})
	assert.Contains(t, announcement, "Поздравляем @bob")
	assert.Contains(t, announcement, "450")
}

func TestBoostAnnouncement(t *testing.T) {
	text := BoostAnnouncement(20, 23, 0.20, 0.325)
	assert.Contains(t, text, "С 20:00 до 23:00")
	assert.Contains(t, text, "повышена с 20% до")
	assert.Contains(t, text, "3 часа")
}

func TestMutedNotice(t *testing.T) {
	assert.Equal(t, "Вы в муте ещё 29 мин 5 сек.", MutedNotice(29*time.Minute+5*time.Second))
	assert.Equal(t, "Вы в муте ещё 0 мин 1 сек.", MutedNotice(700*time.Millisecond))
}

func TestHours(t *testing.T) {
	assert.Equal(t, "1 час", Hours(1))
	assert.Equal(t, "3 часа", Hours(3))
	assert.Equal(t, "5 часов", Hours(5))
	assert.Equal(t, "11 часов", Hours(11))
	assert.Equal(t, "21 час", Hours(21))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		typ  ErrorType
		msg  string
	}{
		{"validation", errs.Validation("amount", "must be positive"), UserError, "Сумма должна быть положительной."},
		{"mute unit", errs.Validation("amount", "must be a positive multiple of 100"), UserError, "Сумма должна быть положительной и кратной 100."},
		{"self target", errs.Validation("target", "cannot be yourself"), UserError, "Нельзя выбрать самого себя."},
		{"missing user", errs.Validation("user", "missing"), UserError, "Укажите пользователя."},
		{"other field", errs.Validation("odds", "out of range"), UserError, "Некорректные параметры команды."},
		{"insufficient", &errs.InsufficientBalanceError{UserID: 1, Balance: 50, Required: 100}, BusinessLogicError, "Недостаточно очков: у вас 50, нужно 100."},
		{"not found", &errs.NotFoundError{Entity: "user", Key: "@bobb", Suggestions: []string{"@bobby"}}, NotFoundError, "Пользователь @bobb не найден. Возможно, вы имели в виду: @bobby"},
		{"persistence", errs.Persistence("add", "ledger_entry", errors.New("disk full")), SystemError, genericFailure},
		{"unknown", errors.New("boom"), SystemError, genericFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, msg := ClassifyError(tt.err)
			assert.Equal(t, tt.typ, typ)
			assert.Equal(t, tt.msg, msg)
		})
	}
}
