package system

import (
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/jkcommunity/jkbot/jkbot/utils"
)

var JK = discord.SlashCommandCreate{
	Name:        "jk",
	Description: "🤖 Приветствие JK Community",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "lang",
			Description: "Язык приветствия",
			Required:    false,
			Choices: []discord.ApplicationCommandOptionChoiceString{
				{Name: "Русский", Value: "ru"},
				{Name: "English", Value: "en"},
			},
		},
	},
}

var welcome = map[string]string{
	"ru": "**Jekardos Coin (JK)** - внутренняя валюта нашего чата.\n" +
		"Каждый получает JK пропорционально своему вкладу и активности.\n\n" +
		"**Команды бота:**\n" +
		"/start - приветствие\n" +
		"/help - справка\n" +
		"/stats - ваша статистика\n" +
		"/week - топ за неделю\n" +
		"/month - топ за месяц\n" +
		"/send user N - перевести N очков другому\n" +
		"/mute user N - замутить пользователя (100 очков = 30 мин)\n" +
		"/dice N - испытать удачу: поставить N очков, шанс удвоить\n\n" +
		"**JK Coin - это валюта, которую можно зарабатывать, переводить, тратить на mute и мини-игры!**\n\n" +
		"**Спасибо завсегдатаям и китам JK за вклад в развитие сообщества!** 🚀",
	"en": "**Jekardos Coin (JK)** is our chat's internal currency.\n" +
		"Everyone receives JK proportional to their contribution and activity.\n\n" +
		"**Bot commands:**\n" +
		"/start - greeting\n" +
		"/help - help\n" +
		"/stats - your statistics\n" +
		"/week - top of the week\n" +
		"/month - top of the month\n" +
		"/send user N - transfer N points to another user\n" +
		"/mute user N - mute a user (100 points = 30 min)\n" +
		"/dice N - try your luck: bet N points, chance to double\n\n" +
		"**JK Coin is a currency you can earn, transfer, spend on mute and mini-games!**\n\n" +
		"**Thank you to regulars and JK whales for their great contribution to the community!** 🚀",
}

var welcomeTitle = map[string]string{
	"ru": "🤖 Добро пожаловать в JK Community!",
	"en": "🤖 Welcome to JK Community!",
}

// Welcome returns the community greeting; anything but English falls back
// to Russian.
func Welcome(lang string) (title, text string) {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "en", "english":
		lang = "en"
	default:
		lang = "ru"
	}
	return welcomeTitle[lang], welcome[lang]
}

func JKHandler(e *handler.CommandEvent) error {
	lang, _ := e.SlashCommandInteractionData().OptString("lang")
	title, text := Welcome(lang)
	return utils.EH.CreateInfoEmbed(e, title, text)
}
