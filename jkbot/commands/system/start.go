package system

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/jkcommunity/jkbot/jkbot/utils"
)

var Start = discord.SlashCommandCreate{
	Name:        "start",
	Description: "👋 Знакомство с ботом",
}

const startText = "Привет! Я бот-администратор чата. Я начисляю очки за активность и веду статистику!\n\n" +
	"Доступные команды:\n" +
	"/stats - твоя статистика\n" +
	"/today - топ за сегодня\n" +
	"/week - топ за неделю\n" +
	"/month - топ за месяц\n" +
	"/winners - победители прошлых месяцев\n" +
	"/help - справка\n" +
	"/jk - приветствие JK Community"

func StartHandler(e *handler.CommandEvent) error {
	return utils.EH.CreateInfoEmbed(e, "", startText)
}
