package antinuke

import (
	"github.com/bwmarrin/discordgo"

	"discord-antinuke-bot/internal/models"
)

var (
	// Permissions
	adminPerms = int64(discordgo.PermissionAdministrator)

	// /setlimit
	SetLimit = &discordgo.ApplicationCommand{
		Name:        "setlimit",
		Description: "Configure the detection threshold for an action",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "action",
				Description: "The action to limit",
				Required:    true,
				Choices:     actionChoices(),
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "count",
				Description: "Max number of actions allowed in the window",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "hours",
				Description: "Trailing window length in hours",
				Required:    true,
			},
		},
		DefaultMemberPermissions: &adminPerms,
	}

	// /limits
	Limits = &discordgo.ApplicationCommand{
		Name:                     "limits",
		Description:              "View the effective thresholds for this server",
		DefaultMemberPermissions: &adminPerms,
	}

	// /punishment
	Punishment = &discordgo.ApplicationCommand{
		Name:        "punishment",
		Description: "Set the punishment applied when a threshold is exceeded",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "type",
				Description: "Punishment to apply",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Jail (Quarantine)", Value: "jail"},
					{Name: "Ban", Value: "ban"},
					{Name: "Kick", Value: "kick"},
				},
			},
		},
		DefaultMemberPermissions: &adminPerms,
	}

	// /jailrole
	JailRole = &discordgo.ApplicationCommand{
		Name:        "jailrole",
		Description: "Set the role assigned to jailed members",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "role",
				Description: "Role to assign when jailing",
				Required:    true,
			},
		},
		DefaultMemberPermissions: &adminPerms,
	}

	// /whitelist
	Whitelist = &discordgo.ApplicationCommand{
		Name:        "whitelist",
		Description: "Manage trusted users and roles",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Add a user or role to the whitelist",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionUser,
						Name:        "user",
						Description: "User to whitelist",
						Required:    false,
					},
					{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "role",
						Description: "Role to whitelist",
						Required:    false,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "remove",
				Description: "Remove a user or role from the whitelist",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionUser,
						Name:        "user",
						Description: "User to remove",
						Required:    false,
					},
					{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "role",
						Description: "Role to remove",
						Required:    false,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List all whitelisted users and roles",
			},
		},
		DefaultMemberPermissions: &adminPerms,
	}

	// /logs
	Logs = &discordgo.ApplicationCommand{
		Name:        "logs",
		Description: "Set the alert channel for security events",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "channel",
				Description:  "Channel to send alerts to",
				Required:     true,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			},
		},
		DefaultMemberPermissions: &adminPerms,
	}

	// /history
	History = &discordgo.ApplicationCommand{
		Name:        "history",
		Description: "View recent punishments applied by the anti-nuke system",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "limit",
				Description: "Number of entries to show (default 10, max 50)",
				Required:    false,
			},
		},
		DefaultMemberPermissions: &adminPerms,
	}
)

func actionChoices() []*discordgo.ApplicationCommandOptionChoice {
	actions := models.AllActionTypes()
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(actions))
	for _, a := range actions {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  models.ActionDisplayName(a),
			Value: string(a),
		})
	}
	return choices
}
