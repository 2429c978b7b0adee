package commands

import (
	"github.com/disgoorg/disgo/discord"

	"github.com/jkcommunity/jkbot/jkbot/commands/economy"
	"github.com/jkcommunity/jkbot/jkbot/commands/stats"
	"github.com/jkcommunity/jkbot/jkbot/commands/system"
)

var Commands = []discord.ApplicationCommandCreate{}

func init() {
	Commands = append(Commands, system.Commands...)
	Commands = append(Commands, stats.Commands...)
	Commands = append(Commands, economy.Commands...)
}
