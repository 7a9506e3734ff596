package auditor

import (
	"github.com/bwmarrin/discordgo"

	"discord-antinuke-bot/internal/models"
)

// Gateway handlers. discordgo dispatches each of these on its own goroutine,
// so the grace delay inside correlate never stalls the event reader.

func (c *Correlator) onGuildCreate(s *discordgo.Session, e *discordgo.GuildCreate) {
	emojis := make(map[string]string, len(e.Emojis))
	for _, em := range e.Emojis {
		emojis[em.ID] = em.Name
	}
	stickers := make(map[string]string, len(e.Stickers))
	for _, st := range e.Stickers {
		stickers[st.ID] = st.Name
	}

	c.mu.Lock()
	c.emojis[e.ID] = toSet(emojis)
	c.stickers[e.ID] = toSet(stickers)
	c.owners[e.ID] = e.OwnerID
	c.mu.Unlock()
}

func (c *Correlator) onGuildBanAdd(s *discordgo.Session, e *discordgo.GuildBanAdd) {
	c.correlate(e.GuildID, models.ActionBan, e.User.ID, e.User.Username)
}

// onGuildMemberRemove fires for voluntary leaves, kicks and bans alike; the
// kick audit-entry match is what separates them. Bans are handled by
// onGuildBanAdd.
func (c *Correlator) onGuildMemberRemove(s *discordgo.Session, e *discordgo.GuildMemberRemove) {
	c.correlate(e.GuildID, models.ActionKick, e.User.ID, e.User.Username)
}

func (c *Correlator) onGuildRoleCreate(s *discordgo.Session, e *discordgo.GuildRoleCreate) {
	c.correlate(e.GuildID, models.ActionRoleCreate, e.Role.ID, e.Role.Name)
}

func (c *Correlator) onGuildRoleDelete(s *discordgo.Session, e *discordgo.GuildRoleDelete) {
	c.correlate(e.GuildID, models.ActionRoleDelete, e.RoleID, "")
}

func (c *Correlator) onChannelCreate(s *discordgo.Session, e *discordgo.ChannelCreate) {
	if e.GuildID == "" {
		return // DM channel
	}
	c.correlate(e.GuildID, models.ActionChannelCreate, e.ID, e.Name)
}

func (c *Correlator) onChannelDelete(s *discordgo.Session, e *discordgo.ChannelDelete) {
	if e.GuildID == "" {
		return
	}
	c.correlate(e.GuildID, models.ActionChannelDelete, e.ID, e.Name)
}

// onWebhooksUpdate carries no created/deleted webhook IDs, so both audit
// kinds are tried; whichever has a fresh matching entry wins.
func (c *Correlator) onWebhooksUpdate(s *discordgo.Session, e *discordgo.WebhooksUpdate) {
	c.correlate(e.GuildID, models.ActionWebhookCreate, "", "")
	c.correlate(e.GuildID, models.ActionWebhookDelete, "", "")
}

func (c *Correlator) onGuildEmojisUpdate(s *discordgo.Session, e *discordgo.GuildEmojisUpdate) {
	after := make(map[string]string, len(e.Emojis))
	for _, em := range e.Emojis {
		after[em.ID] = em.Name
	}

	c.mu.Lock()
	before, seeded := c.emojis[e.GuildID]
	c.emojis[e.GuildID] = toSet(after)
	c.mu.Unlock()

	if !seeded {
		return // first sighting, nothing to diff against
	}

	created, deleted := diffSets(before, after)
	c.correlateDiff(e.GuildID, models.ActionEmojiCreate, created)
	c.correlateDiff(e.GuildID, models.ActionEmojiDelete, deleted)
}

func (c *Correlator) onGuildStickersUpdate(s *discordgo.Session, e *discordgo.GuildStickersUpdate) {
	after := make(map[string]string, len(e.Stickers))
	for _, st := range e.Stickers {
		after[st.ID] = st.Name
	}

	c.mu.Lock()
	before, seeded := c.stickers[e.GuildID]
	c.stickers[e.GuildID] = toSet(after)
	c.mu.Unlock()

	if !seeded {
		return
	}

	created, deleted := diffSets(before, after)
	c.correlateDiff(e.GuildID, models.ActionStickerCreate, created)
	c.correlateDiff(e.GuildID, models.ActionStickerDelete, deleted)
}

func toSet(m map[string]string) map[string]bool {
	set := make(map[string]bool, len(m))
	for id := range m {
		set[id] = true
	}
	return set
}

// diffSets returns created = after − before and deleted = before − after.
// Created entries keep their names from the after set; deleted IDs have no
// name left to report.
func diffSets(before map[string]bool, after map[string]string) (created, deleted map[string]string) {
	created = make(map[string]string)
	deleted = make(map[string]string)

	for id, name := range after {
		if !before[id] {
			created[id] = name
		}
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			deleted[id] = ""
		}
	}
	return created, deleted
}
