package database

import (
	"database/sql"

	"discord-antinuke-bot/internal/models"
)

// Guild settings: default punishment, jail role, log channels.

// GetPunishment returns the guild's configured punishment, falling back to
// the default when unset.
func (d *Database) GetPunishment(guildID string) (models.Punishment, error) {
	var p string
	err := d.db.QueryRow(`
		SELECT punishment FROM guild_settings WHERE guild_id = $1
	`, guildID).Scan(&p)

	if err == sql.ErrNoRows {
		return models.DefaultPunishment, nil
	}
	if err != nil {
		return "", err
	}
	return models.Punishment(p), nil
}

// SetPunishment sets the guild's default punishment.
func (d *Database) SetPunishment(guildID string, p models.Punishment) error {
	_, err := d.db.Exec(`
		INSERT INTO guild_settings (guild_id, punishment)
		VALUES ($1, $2)
		ON CONFLICT (guild_id) DO UPDATE SET punishment = $2
	`, guildID, string(p))
	return err
}

// GetJailRole returns the configured jail role ID, empty when unset.
func (d *Database) GetJailRole(guildID string) (string, error) {
	var roleID string
	err := d.db.QueryRow(`
		SELECT jail_role FROM guild_settings WHERE guild_id = $1
	`, guildID).Scan(&roleID)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return roleID, nil
}

// SetJailRole sets the guild's jail role.
func (d *Database) SetJailRole(guildID, roleID string) error {
	_, err := d.db.Exec(`
		INSERT INTO guild_settings (guild_id, jail_role)
		VALUES ($1, $2)
		ON CONFLICT (guild_id) DO UPDATE SET jail_role = $2
	`, guildID, roleID)
	return err
}

// GetLogChannel returns the channel configured for a log category, empty when
// unset.
func (d *Database) GetLogChannel(guildID, category string) (string, error) {
	var channelID string
	err := d.db.QueryRow(`
		SELECT channel_id FROM log_channels WHERE guild_id = $1 AND category = $2
	`, guildID, category).Scan(&channelID)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return channelID, nil
}

// SetLogChannel sets the channel for a log category.
func (d *Database) SetLogChannel(guildID, category, channelID string) error {
	_, err := d.db.Exec(`
		INSERT INTO log_channels (guild_id, category, channel_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id, category) DO UPDATE SET channel_id = $3
	`, guildID, category, channelID)
	return err
}
