package stats

import "github.com/disgoorg/disgo/discord"

var Commands = []discord.ApplicationCommandCreate{
	Stats,
	Today,
	Week,
	Month,
	Winners,
}
