package guard

import "discord-antinuke-bot/internal/models"

// Store is the persistence port for guild-scoped anti-nuke state. The engine
// never touches the backing database directly; internal/database provides the
// Postgres implementation and internal/cache fronts the hot read paths.
//
// Writes to the same logical guild document must be atomic: concurrent
// events mutating one guild's record must not lose updates.
type Store interface {
	// Thresholds. GetThreshold returns ok=false when the guild has no
	// explicit configuration for the action; callers fall back to the
	// built-in default table.
	GetThreshold(guildID string, action models.ActionType) (models.Threshold, bool, error)
	SetThreshold(guildID string, t models.Threshold) error
	GetThresholds(guildID string) ([]models.Threshold, error)

	// Whitelist. Exemption is checked by target ID; users and roles share
	// the same namespace.
	IsWhitelisted(guildID, targetID string) (bool, error)
	AddWhitelistEntry(e models.WhitelistEntry) error
	RemoveWhitelistEntry(guildID, targetID string) error
	GetWhitelistEntries(guildID string) ([]models.WhitelistEntry, error)

	// Guild settings.
	GetPunishment(guildID string) (models.Punishment, error)
	SetPunishment(guildID string, p models.Punishment) error
	GetJailRole(guildID string) (string, error)
	SetJailRole(guildID, roleID string) error
	GetLogChannel(guildID, category string) (string, error)
	SetLogChannel(guildID, category, channelID string) error

	// History. AppendHistory keeps at most models.HistoryLimit entries per
	// guild, evicting the oldest first.
	AppendHistory(guildID string, e models.HistoryEntry) error
	GetHistory(guildID string, limit int) ([]models.HistoryEntry, error)
}
