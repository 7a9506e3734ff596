package antinuke

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"discord-antinuke-bot/internal/guard"
	"discord-antinuke-bot/internal/models"
	"discord-antinuke-bot/internal/utils"
)

// HandleWhitelist handles /whitelist
func HandleWhitelist(s *discordgo.Session, i *discordgo.InteractionCreate, store guard.Store) {
	options := i.ApplicationCommandData().Options
	subCmd := options[0].Name

	switch subCmd {
	case "add":
		targetID, targetType := resolveTarget(s, i, options[0].Options)
		if targetID == "" {
			utils.SendError(s, i, "Provide a user or a role to whitelist.")
			return
		}

		entry := models.WhitelistEntry{
			GuildID:    i.GuildID,
			TargetID:   targetID,
			TargetType: targetType,
			AddedBy:    i.Member.User.ID,
			CreatedAt:  models.Now(),
		}
		if err := store.AddWhitelistEntry(entry); err != nil {
			utils.SendError(s, i, "Failed to add whitelist entry: "+err.Error())
			return
		}
		utils.SendSuccess(s, i, fmt.Sprintf("✅ Added %s to the whitelist.", mention(targetID, targetType)))

	case "remove":
		targetID, _ := resolveTarget(s, i, options[0].Options)
		if targetID == "" {
			utils.SendError(s, i, "Provide a user or a role to remove.")
			return
		}

		if err := store.RemoveWhitelistEntry(i.GuildID, targetID); err != nil {
			utils.SendError(s, i, "Failed to remove whitelist entry: "+err.Error())
			return
		}
		utils.SendSuccess(s, i, "✅ Removed from the whitelist.")

	case "list":
		entries, err := store.GetWhitelistEntries(i.GuildID)
		if err != nil {
			utils.SendError(s, i, "Failed to load whitelist: "+err.Error())
			return
		}

		if len(entries) == 0 {
			utils.SendSuccess(s, i, "📜 The whitelist is empty.")
			return
		}

		var b strings.Builder
		for _, e := range entries {
			fmt.Fprintf(&b, "%s — added by <@%s> <t:%d:R>\n",
				mention(e.TargetID, e.TargetType), e.AddedBy, e.CreatedAt/1000)
		}

		utils.SendEmbed(s, i, &discordgo.MessageEmbed{
			Title:       "📜 Anti-Nuke Whitelist",
			Description: b.String(),
			Color:       utils.ColorInfo,
		})
	}
}

// resolveTarget extracts the user or role option from a whitelist subcommand.
func resolveTarget(s *discordgo.Session, i *discordgo.InteractionCreate, opts []*discordgo.ApplicationCommandInteractionDataOption) (string, string) {
	for _, opt := range opts {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionUser:
			if u := opt.UserValue(s); u != nil {
				return u.ID, models.TargetUser
			}
		case discordgo.ApplicationCommandOptionRole:
			if r := opt.RoleValue(s, i.GuildID); r != nil {
				return r.ID, models.TargetRole
			}
		}
	}
	return "", ""
}

func mention(targetID, targetType string) string {
	if targetType == models.TargetRole {
		return "<@&" + targetID + ">"
	}
	return "<@" + targetID + ">"
}
