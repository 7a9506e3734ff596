package auditor

import (
	"github.com/bwmarrin/discordgo"

	"discord-antinuke-bot/internal/models"
)

// binding ties a tracked action type to the audit-log query that attributes
// it. queryLimit is 1 for events that carry an unambiguous target and 5 for
// bulk or ambiguous events where the matching entry may not be the newest.
type binding struct {
	action      models.ActionType
	auditAction discordgo.AuditLogAction
	queryLimit  int
}

// dispatchTable is the single source of truth mapping tracked actions to
// audit-log lookups. Handlers consult it instead of hardcoding query shapes.
var dispatchTable = map[models.ActionType]binding{
	models.ActionBan:           {models.ActionBan, discordgo.AuditLogActionMemberBanAdd, 1},
	models.ActionKick:          {models.ActionKick, discordgo.AuditLogActionMemberKick, 1},
	models.ActionRoleCreate:    {models.ActionRoleCreate, discordgo.AuditLogActionRoleCreate, 1},
	models.ActionRoleDelete:    {models.ActionRoleDelete, discordgo.AuditLogActionRoleDelete, 1},
	models.ActionChannelCreate: {models.ActionChannelCreate, discordgo.AuditLogActionChannelCreate, 1},
	models.ActionChannelDelete: {models.ActionChannelDelete, discordgo.AuditLogActionChannelDelete, 1},
	models.ActionWebhookCreate: {models.ActionWebhookCreate, discordgo.AuditLogActionWebhookCreate, 5},
	models.ActionWebhookDelete: {models.ActionWebhookDelete, discordgo.AuditLogActionWebhookDelete, 5},
	models.ActionEmojiCreate:   {models.ActionEmojiCreate, discordgo.AuditLogActionEmojiCreate, 5},
	models.ActionEmojiDelete:   {models.ActionEmojiDelete, discordgo.AuditLogActionEmojiDelete, 5},
	models.ActionStickerCreate: {models.ActionStickerCreate, discordgo.AuditLogActionStickerCreate, 5},
	models.ActionStickerDelete: {models.ActionStickerDelete, discordgo.AuditLogActionStickerDelete, 5},
}

func bindingFor(action models.ActionType) (binding, bool) {
	b, ok := dispatchTable[action]
	return b, ok
}

// Register hooks every gateway event kind the correlator consumes onto the
// session.
func (c *Correlator) Register(s *discordgo.Session) {
	s.AddHandler(c.onGuildCreate)
	s.AddHandler(c.onGuildBanAdd)
	s.AddHandler(c.onGuildMemberRemove)
	s.AddHandler(c.onGuildRoleCreate)
	s.AddHandler(c.onGuildRoleDelete)
	s.AddHandler(c.onChannelCreate)
	s.AddHandler(c.onChannelDelete)
	s.AddHandler(c.onWebhooksUpdate)
	s.AddHandler(c.onGuildEmojisUpdate)
	s.AddHandler(c.onGuildStickersUpdate)
}
