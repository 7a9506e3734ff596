package utils

import (
	"github.com/bwmarrin/discordgo"
)

// Embed colors used across command responses.
const (
	ColorError   = 0xFF0000
	ColorSuccess = 0x00FF00
	ColorInfo    = 0x5865F2
	ColorAlert   = 0xFF4500
)

// SendError sends an ephemeral error message
func SendError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "❌ Error",
					Description: message,
					Color:       ColorError,
				},
			},
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

// SendSuccess sends an ephemeral success message
func SendSuccess(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: message,
					Color:       ColorSuccess,
				},
			},
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

// SendEmbed sends an ephemeral embed response
func SendEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}
