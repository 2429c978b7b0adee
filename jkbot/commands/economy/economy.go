package economy

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/jkcommunity/jkbot/internal/domain/economy"
	"github.com/jkcommunity/jkbot/internal/domain/ledger"
	"github.com/jkcommunity/jkbot/jkbot"
	"github.com/jkcommunity/jkbot/jkbot/config"
	"github.com/jkcommunity/jkbot/jkbot/utils"
)

var (
	Send = discord.SlashCommandCreate{
		Name:        "send",
		Description: "💸 Перевести очки другому пользователю",
		Options: []discord.ApplicationCommandOption{
			userOption("Кому перевести"),
			discord.ApplicationCommandOptionInt{
				Name:        "amount",
				Description: "Количество очков",
				Required:    true,
			},
		},
	}
	Mute = discord.SlashCommandCreate{
		Name:        "mute",
		Description: "🔇 Замутить пользователя за очки",
		Options: []discord.ApplicationCommandOption{
			userOption("Кого замутить"),
			discord.ApplicationCommandOptionInt{
				Name:        "amount",
				Description: "Количество очков (кратно 100, 100 очков = 30 мин)",
				Required:    true,
			},
		},
	}
	Dice = discord.SlashCommandCreate{
		Name:        "dice",
		Description: "🎲 Поставить очки и испытать удачу",
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionInt{
				Name:        "amount",
				Description: "Ставка",
				Required:    true,
			},
		},
	}
)

func userOption(description string) discord.ApplicationCommandOption {
	return discord.ApplicationCommandOptionString{
		Name:        "user",
		Description: description + " (имя или упоминание)",
		Required:    true,
	}
}

// invoker registers the command author so first-time users can be debited.
func invoker(ctx context.Context, b *jkbot.Bot, e *handler.CommandEvent) (*ledger.User, error) {
	u := e.User()
	return b.Directory.Touch(ctx, ledger.User{
		ID:          int64(u.ID),
		Handle:      u.Username,
		DisplayName: u.EffectiveName(),
	})
}

func SendHandler(b *jkbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		data := e.SlashCommandInteractionData()
		from, err := invoker(ctx, b, e)
		if err != nil {
			return utils.EH.ReplyError(e, err)
		}
		to, err := b.Directory.Resolve(ctx, data.String("user"))
		if err != nil {
			return utils.EH.ReplyError(e, err)
		}

		amount := int64(data.Int("amount"))
		if err = b.Economy.Transfer(ctx, from.ID, to.ID, amount); err != nil {
			return utils.EH.ReplyError(e, err)
		}
		return announce(e, TransferText(*from, *to, amount))
	}
}

func MuteHandler(b *jkbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		data := e.SlashCommandInteractionData()
		buyer, err := invoker(ctx, b, e)
		if err != nil {
			return utils.EH.ReplyError(e, err)
		}
		target, err := b.Directory.Resolve(ctx, data.String("user"))
		if err != nil {
			return utils.EH.ReplyError(e, err)
		}

		mute, err := b.Economy.Mute(ctx, buyer.ID, target.ID, int64(data.Int("amount")))
		if err != nil {
			return utils.EH.ReplyError(e, err)
		}
		return announce(e, MuteText(*buyer, *target, mute))
	}
}

func DiceHandler(b *jkbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		player, err := invoker(ctx, b, e)
		if err != nil {
			return utils.EH.ReplyError(e, err)
		}
		result, err := b.Economy.Wager(ctx, player.ID, int64(e.SlashCommandInteractionData().Int("amount")))
		if err != nil {
			return utils.EH.ReplyError(e, err)
		}
		return announce(e, DiceText(*player, result))
	}
}

// announce posts the outcome publicly without pinging anyone.
func announce(e *handler.CommandEvent, text string) error {
	return e.CreateMessage(discord.MessageCreate{
		Content:         text,
		AllowedMentions: &discord.AllowedMentions{},
	})
}

func TransferText(from, to ledger.User, amount int64) string {
	return fmt.Sprintf("%s отправил(а) %s очков активности %s!",
		from.Mention(), utils.FormatNumber(amount), to.Mention())
}

func MuteText(buyer, target ledger.User, m *economy.Mute) string {
	return fmt.Sprintf("%s замутил(а) %s на %d минут! (-%s очков)",
		buyer.Mention(), target.Mention(), int(m.Duration.Minutes()), utils.FormatNumber(m.Cost))
}

func DiceText(player ledger.User, r *economy.WagerResult) string {
	verb := "проиграл(а)"
	if r.Won {
		verb = "выиграл(а)"
	}
	return fmt.Sprintf("%s бросил(а) кости и %s %s очков! 🎲 Баланс: %s",
		player.Mention(), verb, utils.FormatNumber(r.Stake), utils.FormatNumber(r.Balance))
}
