package guard

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"discord-antinuke-bot/internal/models"
)

// Platform is the subset of the Discord REST surface the executor and the
// notification path use. *discordgo.Session satisfies it; tests use a fake.
type Platform interface {
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildBanCreateWithReason(guildID, userID, reason string, days int, options ...discordgo.RequestOption) error
	GuildMemberDeleteWithReason(guildID, userID, reason string, options ...discordgo.RequestOption) error
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Executor applies the configured remediation to an actor. Platform errors
// never escape this boundary: every outcome is reduced to applied true/false.
type Executor struct {
	platform Platform
	store    Store
	log      *zap.Logger
}

// NewExecutor creates a punishment executor.
func NewExecutor(platform Platform, store Store, log *zap.Logger) *Executor {
	return &Executor{platform: platform, store: store, log: log}
}

// Apply executes the punishment against the actor and reports whether it took
// effect. There is no retry: a failed remediation is logged and reported as
// applied=false.
func (x *Executor) Apply(guildID string, actor *discordgo.Member, p models.Punishment, reason string) bool {
	var err error
	switch p {
	case models.PunishmentJail:
		err = x.jail(guildID, actor, reason)
	case models.PunishmentBan:
		err = x.platform.GuildBanCreateWithReason(guildID, actor.User.ID, reason, 0)
	case models.PunishmentKick:
		err = x.platform.GuildMemberDeleteWithReason(guildID, actor.User.ID, reason)
	default:
		err = fmt.Errorf("unknown punishment %q", p)
	}

	if err != nil {
		x.log.Warn("punishment failed",
			zap.String("guild_id", guildID),
			zap.String("actor_id", actor.User.ID),
			zap.String("punishment", string(p)),
			zap.Error(err))
		return false
	}
	return true
}

// jail strips the actor's roles and assigns the guild's configured jail role.
// Fails when no jail role is configured or the role no longer exists.
func (x *Executor) jail(guildID string, actor *discordgo.Member, reason string) error {
	jailRoleID, err := x.store.GetJailRole(guildID)
	if err != nil {
		return fmt.Errorf("jail role lookup: %w", err)
	}
	if jailRoleID == "" {
		return fmt.Errorf("no jail role configured for guild %s", guildID)
	}

	roles, err := x.platform.GuildRoles(guildID)
	if err != nil {
		return fmt.Errorf("role listing: %w", err)
	}
	found := false
	for _, r := range roles {
		if r.ID == jailRoleID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("jail role %s no longer exists in guild %s", jailRoleID, guildID)
	}

	// The @everyone role is never part of Member.Roles, so stripping
	// everything except the jail role leaves only the guild default.
	for _, roleID := range actor.Roles {
		if roleID == jailRoleID {
			continue
		}
		if err := x.platform.GuildMemberRoleRemove(guildID, actor.User.ID, roleID); err != nil {
			return fmt.Errorf("remove role %s: %w", roleID, err)
		}
	}
	if err := x.platform.GuildMemberRoleAdd(guildID, actor.User.ID, jailRoleID); err != nil {
		return fmt.Errorf("assign jail role: %w", err)
	}
	return nil
}

// Notify posts a structured notice to the guild's anti-nuke log channel.
// Best effort: no channel configured or a send failure is swallowed.
func (x *Executor) Notify(guildID string, actor *discordgo.Member, action models.ActionType, t models.Threshold, count int, p models.Punishment, reason string) {
	channelID, err := x.store.GetLogChannel(guildID, LogCategory)
	if err != nil || channelID == "" {
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:     "🛡️ Anti-Nuke Triggered",
		Color:     0xed4245,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Actor",
				Value:  fmt.Sprintf("<@%s> (%s)", actor.User.ID, actor.User.String()),
				Inline: true,
			},
			{
				Name:   "Action",
				Value:  models.ActionDisplayName(action),
				Inline: true,
			},
			{
				Name:   "Count",
				Value:  fmt.Sprintf("%d/%d in %dh", count, t.Count, t.WindowHours),
				Inline: true,
			},
			{
				Name:   "Punishment",
				Value:  models.PunishmentDisplayName(p),
				Inline: true,
			},
			{
				Name:   "Reason",
				Value:  reason,
				Inline: false,
			},
		},
	}

	if _, err := x.platform.ChannelMessageSendEmbed(channelID, embed); err != nil {
		x.log.Debug("log channel notify failed",
			zap.String("guild_id", guildID),
			zap.String("channel_id", channelID),
			zap.Error(err))
	}
}

// LogCategory is the log-channel category used by the anti-nuke subsystem.
const LogCategory = "antinuke"
