package antinuke

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"discord-antinuke-bot/internal/guard"
	"discord-antinuke-bot/internal/models"
	"discord-antinuke-bot/internal/utils"
)

// HandleSetLimit handles /setlimit
func HandleSetLimit(s *discordgo.Session, i *discordgo.InteractionCreate, store guard.Store) {
	options := i.ApplicationCommandData().Options

	action, err := models.ParseActionType(options[0].StringValue())
	if err != nil {
		utils.SendError(s, i, err.Error())
		return
	}

	t := models.Threshold{
		Action:      action,
		Count:       int(options[1].IntValue()),
		WindowHours: int(options[2].IntValue()),
	}
	if err := t.Validate(); err != nil {
		utils.SendError(s, i, err.Error())
		return
	}

	if err := store.SetThreshold(i.GuildID, t); err != nil {
		utils.SendError(s, i, "Failed to save threshold: "+err.Error())
		return
	}

	utils.SendSuccess(s, i, fmt.Sprintf("✅ Limit updated for **%s**\nThreshold: **%d** events in **%d** hour(s)",
		models.ActionDisplayName(action), t.Count, t.WindowHours))
}

// HandleLimits handles /limits
func HandleLimits(s *discordgo.Session, i *discordgo.InteractionCreate, store guard.Store) {
	configured, err := store.GetThresholds(i.GuildID)
	if err != nil {
		utils.SendError(s, i, "Failed to load thresholds: "+err.Error())
		return
	}

	custom := make(map[models.ActionType]models.Threshold, len(configured))
	for _, t := range configured {
		custom[t.Action] = t
	}

	var b strings.Builder
	for _, action := range models.AllActionTypes() {
		t, ok := custom[action]
		source := "custom"
		if !ok {
			t, _ = models.DefaultThreshold(action)
			source = "default"
		}
		fmt.Fprintf(&b, "**%s** — %d in %dh (%s)\n",
			models.ActionDisplayName(action), t.Count, t.WindowHours, source)
	}

	utils.SendEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🛡️ Anti-Nuke Thresholds",
		Description: b.String(),
		Color:       utils.ColorInfo,
	})
}

// HandlePunishment handles /punishment
func HandlePunishment(s *discordgo.Session, i *discordgo.InteractionCreate, store guard.Store) {
	p, err := models.ParsePunishment(i.ApplicationCommandData().Options[0].StringValue())
	if err != nil {
		utils.SendError(s, i, err.Error())
		return
	}

	if err := store.SetPunishment(i.GuildID, p); err != nil {
		utils.SendError(s, i, "Failed to update punishment: "+err.Error())
		return
	}

	msg := fmt.Sprintf("✅ Punishment set to **%s**", models.PunishmentDisplayName(p))
	if p == models.PunishmentJail {
		jailRole, err := store.GetJailRole(i.GuildID)
		if err == nil && jailRole == "" {
			msg += "\n⚠️ No jail role is configured. Set one with `/jailrole` or jailing will fail."
		}
	}
	utils.SendSuccess(s, i, msg)
}

// HandleJailRole handles /jailrole
func HandleJailRole(s *discordgo.Session, i *discordgo.InteractionCreate, store guard.Store) {
	role := i.ApplicationCommandData().Options[0].RoleValue(s, i.GuildID)
	if role == nil {
		utils.SendError(s, i, "Invalid role")
		return
	}

	if err := store.SetJailRole(i.GuildID, role.ID); err != nil {
		utils.SendError(s, i, "Failed to set jail role: "+err.Error())
		return
	}

	utils.SendSuccess(s, i, fmt.Sprintf("✅ Jailed members will receive <@&%s>", role.ID))
}

// HandleLogs handles /logs
func HandleLogs(s *discordgo.Session, i *discordgo.InteractionCreate, store guard.Store) {
	channel := i.ApplicationCommandData().Options[0].ChannelValue(s)
	if channel == nil {
		utils.SendError(s, i, "Invalid channel")
		return
	}

	if err := store.SetLogChannel(i.GuildID, guard.LogCategory, channel.ID); err != nil {
		utils.SendError(s, i, "Failed to set log channel: "+err.Error())
		return
	}

	utils.SendSuccess(s, i, fmt.Sprintf("✅ Security alerts will be sent to <#%s>", channel.ID))
}

// HandleHistory handles /history
func HandleHistory(s *discordgo.Session, i *discordgo.InteractionCreate, store guard.Store) {
	limit := 10
	if opts := i.ApplicationCommandData().Options; len(opts) > 0 {
		limit = int(opts[0].IntValue())
	}
	if limit < 1 {
		limit = 1
	}
	if limit > models.HistoryLimit {
		limit = models.HistoryLimit
	}

	entries, err := store.GetHistory(i.GuildID, limit)
	if err != nil {
		utils.SendError(s, i, "Failed to load history: "+err.Error())
		return
	}

	if len(entries) == 0 {
		utils.SendSuccess(s, i, "📜 No punishments recorded.")
		return
	}

	// Entries arrive oldest first, show newest first.
	var b strings.Builder
	for idx := len(entries) - 1; idx >= 0; idx-- {
		e := entries[idx]
		fmt.Fprintf(&b, "<t:%d:R> **%s** — <@%s> (%s) → **%s**\n",
			e.Timestamp/1000,
			models.ActionDisplayName(e.Action),
			e.ActorID, e.ActorTag,
			models.PunishmentDisplayName(e.Punishment))
	}

	utils.SendEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "📜 Punishment History",
		Description: b.String(),
		Color:       utils.ColorAlert,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Showing %d of up to %d retained entries", len(entries), models.HistoryLimit),
		},
	})
}
