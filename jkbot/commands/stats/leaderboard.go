package stats

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"

	"github.com/jkcommunity/jkbot/internal/domain/ledger"
	"github.com/jkcommunity/jkbot/internal/domain/winners"
	"github.com/jkcommunity/jkbot/jkbot"
	"github.com/jkcommunity/jkbot/jkbot/config"
	"github.com/jkcommunity/jkbot/jkbot/utils"
)

var (
	Today = discord.SlashCommandCreate{
		Name:        "today",
		Description: "🏆 Топ активных пользователей за сегодня",
	}
	Week = discord.SlashCommandCreate{
		Name:        "week",
		Description: "🏆 Топ активных пользователей за неделю",
	}
	Month = discord.SlashCommandCreate{
		Name:        "month",
		Description: "🏆 Топ за месяц и победители прошлых месяцев",
	}
	Winners = discord.SlashCommandCreate{
		Name:        "winners",
		Description: "👑 Победители прошлых месяцев",
	}
)

const historyHeading = "📜 **Победители предыдущих месяцев:**\n"

// LeaderboardHandler answers /today and /week with a single top-N embed.
func LeaderboardHandler(b *jkbot.Bot, bucket ledger.Bucket) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.StatsQueryTimeout)
		defer cancel()

		n := b.Cfg.Rewards.TopNLimit
		top, err := b.Ledger.Top(ctx, bucket, n)
		if err != nil {
			return utils.EH.ReplyError(e, err)
		}
		if len(top) == 0 {
			return utils.EH.CreateInfoEmbed(e, "", utils.EmptyLeaderboard(bucket))
		}
		return utils.EH.CreateInfoEmbed(e, utils.LeaderboardTitle(bucket, n), utils.FormatStandings(top, 0))
	}
}

// MonthHandler pages the month's top-N followed by the winners history.
func MonthHandler(b *jkbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.StatsQueryTimeout)
		defer cancel()

		n := b.Cfg.Rewards.TopNLimit
		top, err := b.Ledger.Top(ctx, ledger.BucketMonth, n)
		if err != nil {
			return utils.EH.ReplyError(e, err)
		}
		if len(top) == 0 {
			return utils.EH.CreateInfoEmbed(e, "", utils.EmptyLeaderboard(ledger.BucketMonth))
		}
		history, err := b.Archiver.History(ctx, b.Cfg.Rewards.MonthlyWinnerHistoryLimit)
		if err != nil {
			return utils.EH.ReplyError(e, err)
		}

		return paginate(b, e, utils.LeaderboardTitle(ledger.BucketMonth, n),
			LeaderboardPages(top, history, config.EntriesPerPage))
	}
}

func WinnersHandler(b *jkbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.StatsQueryTimeout)
		defer cancel()

		history, err := b.Archiver.History(ctx, b.Cfg.Rewards.MonthlyWinnerHistoryLimit)
		if err != nil {
			return utils.EH.ReplyError(e, err)
		}
		if len(history) == 0 {
			return utils.EH.CreateInfoEmbed(e, "", "Победителей пока нет. Первый итог подведём в начале следующего месяца!")
		}
		return paginate(b, e, "👑 Победители месяцев", WinnerPages(history, config.EntriesPerPage))
	}
}

func paginate(b *jkbot.Bot, e *handler.CommandEvent, title string, pages []string) error {
	if len(pages) == 1 {
		return utils.EH.CreateInfoEmbed(e, title, pages[0])
	}
	return b.Paginator.Create(e.Respond, paginator.Pages{
		ID:      e.ID().String(),
		Creator: e.User().ID,
		PageFunc: func(page int, embed *discord.EmbedBuilder) {
			embed.
				SetTitle(title).
				SetDescription(pages[page]).
				SetColor(config.InfoColor).
				SetFooter(fmt.Sprintf("Страница %d/%d", page+1, len(pages)), "")
		},
		Pages:      len(pages),
		ExpireMode: paginator.ExpireModeAfterLastUsage,
	}, false)
}

// LeaderboardPages splits standings into pages of perPage entries and
// appends the winners history to the last page.
func LeaderboardPages(standings []ledger.Standing, history []winners.Winner, perPage int) []string {
	var pages []string
	for start := 0; start < len(standings); start += perPage {
		end := min(start+perPage, len(standings))
		pages = append(pages, utils.FormatStandings(standings[start:end], start))
	}
	if len(history) == 0 {
		return pages
	}

	block := historyHeading + utils.FormatWinners(history)
	if len(pages) == 0 {
		return []string{block}
	}
	pages[len(pages)-1] += "\n" + block
	return pages
}

func WinnerPages(history []winners.Winner, perPage int) []string {
	var pages []string
	for start := 0; start < len(history); start += perPage {
		end := min(start+perPage, len(history))
		pages = append(pages, utils.FormatWinners(history[start:end]))
	}
	return pages
}
