package commands

import (
	"github.com/bwmarrin/discordgo"

	"discord-antinuke-bot/internal/commands/antinuke"
)

var Commands = []*discordgo.ApplicationCommand{
	antinuke.SetLimit,
	antinuke.Limits,
	antinuke.Punishment,
	antinuke.JailRole,
	antinuke.Whitelist,
	antinuke.Logs,
	antinuke.History,
}
