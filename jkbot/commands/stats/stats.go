package stats

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/jkcommunity/jkbot/internal/domain/errs"
	"github.com/jkcommunity/jkbot/internal/domain/ledger"
	"github.com/jkcommunity/jkbot/jkbot"
	"github.com/jkcommunity/jkbot/jkbot/config"
	"github.com/jkcommunity/jkbot/jkbot/utils"
)

var Stats = discord.SlashCommandCreate{
	Name:        "stats",
	Description: "📊 Статистика очков",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "user",
			Description: "Имя или упоминание пользователя (по умолчанию вы)",
			Required:    false,
		},
	},
}

const noPointsYet = "Ты еще не заработал очков. Начни общаться в чате!"

func StatsHandler(b *jkbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.StatsQueryTimeout)
		defer cancel()

		userID := int64(e.User().ID)
		ref, other := e.SlashCommandInteractionData().OptString("user")
		if other {
			target, err := b.Directory.Resolve(ctx, ref)
			if err != nil {
				return utils.EH.ReplyError(e, err)
			}
			userID = target.ID
		}

		stats, err := b.Ledger.Stats(ctx, userID)
		if err != nil {
			if errs.IsNotFound(err) && !other {
				return utils.EH.CreateInfoEmbed(e, "", noPointsYet)
			}
			return utils.EH.ReplyError(e, err)
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "📊 Статистика пользователя " + stats.User.Mention(),
				Description: FormatStats(stats),
				Color:       config.InfoColor,
			}},
			AllowedMentions: &discord.AllowedMentions{},
		})
	}
}

// FormatStats renders a user's bucket totals.
func FormatStats(s *ledger.Stats) string {
	registered := "—"
	if !s.User.RegisteredAt.IsZero() {
		registered = s.User.RegisteredAt.Format(ledger.KeyLayout)
	}
	return fmt.Sprintf("🏆 **Общие очки:** %s\n"+
		"📅 **За сегодня:** %s\n"+
		"📈 **За неделю:** %s\n"+
		"📊 **За месяц:** %s\n\n"+
		"📅 **Дата регистрации:** %s",
		utils.FormatNumber(s.Lifetime),
		utils.FormatNumber(s.Today),
		utils.FormatNumber(s.Week),
		utils.FormatNumber(s.Month),
		registered,
	)
}
