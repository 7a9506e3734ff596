package bot

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"discord-antinuke-bot/internal/commands"
	"discord-antinuke-bot/internal/commands/antinuke"
)

func (b *Bot) Ready(s *discordgo.Session, r *discordgo.Ready) {
	// Manually populate state user since state tracking is disabled
	if s.State.User == nil {
		s.State.User = r.User
	}
	b.correlator.SetSelf(r.User.ID)

	b.Logger.Info("gateway ready", zap.Int("guilds", len(r.Guilds)))
}

func (b *Bot) GuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	// Per-guild registration makes command updates visible immediately.
	_, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, g.ID, commands.Commands)
	if err != nil {
		b.Logger.Warn("guild command registration failed",
			zap.String("guild_id", g.ID),
			zap.Error(err))
		return
	}
	b.Logger.Info("guild loaded",
		zap.String("guild_id", g.ID),
		zap.String("name", g.Name))
}

// guildInvalidator is implemented by stores that keep per-guild cache state.
type guildInvalidator interface {
	InvalidateGuild(guildID string) error
}

func (b *Bot) GuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	// Unavailable means an outage, not a removal. The guild comes back.
	if g.Unavailable {
		return
	}

	b.Engine.Tracker().ResetGuild(g.ID)
	if inv, ok := b.Store.(guildInvalidator); ok {
		if err := inv.InvalidateGuild(g.ID); err != nil {
			b.Logger.Warn("guild cache invalidation failed",
				zap.String("guild_id", g.ID),
				zap.Error(err))
		}
	}
	b.Logger.Info("guild removed", zap.String("guild_id", g.ID))
}

func (b *Bot) InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.GuildID == "" || i.Member == nil {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "setlimit":
		antinuke.HandleSetLimit(s, i, b.Store)
	case "limits":
		antinuke.HandleLimits(s, i, b.Store)
	case "punishment":
		antinuke.HandlePunishment(s, i, b.Store)
	case "jailrole":
		antinuke.HandleJailRole(s, i, b.Store)
	case "whitelist":
		antinuke.HandleWhitelist(s, i, b.Store)
	case "logs":
		antinuke.HandleLogs(s, i, b.Store)
	case "history":
		antinuke.HandleHistory(s, i, b.Store)
	}
}
