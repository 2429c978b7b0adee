package system

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/jkcommunity/jkbot/jkbot"
	"github.com/jkcommunity/jkbot/jkbot/utils"
)

var Help = discord.SlashCommandCreate{
	Name:        "help",
	Description: "📖 Как начисляются очки и какие есть команды",
}

func HelpHandler(b *jkbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		return utils.EH.CreateInfoEmbed(e, "🤖 Бот-администратор чата", HelpText(b.Cfg))
	}
}

// HelpText describes the reward rules with the values currently configured.
func HelpText(cfg *jkbot.Config) string {
	r := cfg.Rewards
	s := cfg.Schedule

	thresholds := make([]string, len(r.PointThresholds))
	for i, t := range r.PointThresholds {
		thresholds[i] = utils.FormatNumber(t)
	}

	var b strings.Builder
	b.WriteString("**Как работают очки:**\n")
	fmt.Fprintf(&b, "• За каждое осмысленное сообщение (минимум %d слов) есть шанс получить +%d очков\n",
		r.MinWordsForPoints, r.PointsPerMessage)
	fmt.Fprintf(&b, "• Базовая вероятность: %.0f%%\n", r.BaseProbability*100)
	fmt.Fprintf(&b, "• С %d:00 до %d:00 по МСК: %.1f%% (буст активности!)\n",
		r.BoostStartHour, r.BoostEndHour, r.BoostProbability*100)
	fmt.Fprintf(&b, "• Первый, кто наберёт порог за день, получает +%.0f%% к шансу на %d мин\n\n",
		r.BoostDelta*100, r.BoostGrantMinutes)

	fmt.Fprintf(&b, "**Доступные команды:**\n"+
		"/stats - твоя статистика\n"+
		"/today, /week, /month - топ-%d за день, неделю, месяц\n"+
		"/winners - победители прошлых месяцев\n"+
		"/send - перевести очки\n"+
		"/mute - замутить пользователя (%d очков = %d мин)\n"+
		"/dice - испытать удачу\n"+
		"/jk - приветствие JK Community\n\n",
		r.TopNLimit, r.MuteUnitPoints, r.MuteMinutesPerUnit)

	b.WriteString("**Особенности:**\n")
	fmt.Fprintf(&b, "• Ежедневно в %d:%02d публикуется топ активных пользователей\n",
		s.DailyReportHour, s.DailyReportMinute)
	fmt.Fprintf(&b, "• При достижении %s очков за день - специальные уведомления\n", strings.Join(thresholds, ", "))
	b.WriteString("• Ежемесячный топ сбрасывается, но сохраняется история победителей\n\n")
	b.WriteString("**Общайся активно и зарабатывай очки!** 🎯")
	return b.String()
}
