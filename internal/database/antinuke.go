package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"discord-antinuke-bot/internal/models"
)

// Threshold operations

// GetThreshold returns the guild's explicit threshold for an action.
// ok is false when none is configured.
func (d *Database) GetThreshold(guildID string, action models.ActionType) (models.Threshold, bool, error) {
	t := models.Threshold{Action: action}
	err := d.db.QueryRow(`
		SELECT limit_count, window_hours
		FROM antinuke_thresholds
		WHERE guild_id = $1 AND action_type = $2
	`, guildID, string(action)).Scan(&t.Count, &t.WindowHours)

	if err == sql.ErrNoRows {
		return models.Threshold{}, false, nil
	}
	if err != nil {
		return models.Threshold{}, false, err
	}
	return t, true, nil
}

// SetThreshold creates or replaces a threshold.
func (d *Database) SetThreshold(guildID string, t models.Threshold) error {
	if err := t.Validate(); err != nil {
		return err
	}
	now := time.Now().Unix()
	_, err := d.db.Exec(`
		INSERT INTO antinuke_thresholds (guild_id, action_type, limit_count, window_hours, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id, action_type) DO UPDATE
		SET limit_count = $3, window_hours = $4, updated_at = $5
	`, guildID, string(t.Action), t.Count, t.WindowHours, now)
	return err
}

// GetThresholds returns every explicitly configured threshold for a guild.
func (d *Database) GetThresholds(guildID string) ([]models.Threshold, error) {
	rows, err := d.db.Query(`
		SELECT action_type, limit_count, window_hours
		FROM antinuke_thresholds
		WHERE guild_id = $1
		ORDER BY action_type
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var thresholds []models.Threshold
	for rows.Next() {
		var t models.Threshold
		var action string
		if err := rows.Scan(&action, &t.Count, &t.WindowHours); err != nil {
			return nil, err
		}
		t.Action = models.ActionType(action)
		thresholds = append(thresholds, t)
	}
	return thresholds, rows.Err()
}

// Whitelist operations

// IsWhitelisted checks whether a user or role ID is exempt.
func (d *Database) IsWhitelisted(guildID, targetID string) (bool, error) {
	var exists int
	err := d.db.QueryRow(`
		SELECT 1 FROM antinuke_whitelist
		WHERE guild_id = $1 AND target_id = $2
	`, guildID, targetID).Scan(&exists)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddWhitelistEntry adds a user or role to the whitelist.
func (d *Database) AddWhitelistEntry(e models.WhitelistEntry) error {
	created := e.CreatedAt
	if created == 0 {
		created = time.Now().Unix()
	}
	_, err := d.db.Exec(`
		INSERT INTO antinuke_whitelist (guild_id, target_id, target_type, added_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id, target_id) DO NOTHING
	`, e.GuildID, e.TargetID, e.TargetType, e.AddedBy, created)
	return err
}

// RemoveWhitelistEntry removes a user or role from the whitelist.
func (d *Database) RemoveWhitelistEntry(guildID, targetID string) error {
	_, err := d.db.Exec(`
		DELETE FROM antinuke_whitelist
		WHERE guild_id = $1 AND target_id = $2
	`, guildID, targetID)
	return err
}

// GetWhitelistEntries returns all whitelist entries for a guild.
func (d *Database) GetWhitelistEntries(guildID string) ([]models.WhitelistEntry, error) {
	rows, err := d.db.Query(`
		SELECT target_id, target_type, added_by, created_at
		FROM antinuke_whitelist
		WHERE guild_id = $1
		ORDER BY created_at DESC
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.WhitelistEntry
	for rows.Next() {
		e := models.WhitelistEntry{GuildID: guildID}
		if err := rows.Scan(&e.TargetID, &e.TargetType, &e.AddedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// History operations

// AppendHistory inserts a punishment record and trims the guild's history to
// the newest models.HistoryLimit rows, in a single transaction so concurrent
// events against the same guild never lose the cap.
func (d *Database) AppendHistory(guildID string, e models.HistoryEntry) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO antinuke_history (guild_id, ts, action_type, actor_id, actor_tag, punishment, reason, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, guildID, e.Timestamp, string(e.Action), e.ActorID, e.ActorTag, string(e.Punishment), e.Reason, string(details))
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		DELETE FROM antinuke_history
		WHERE guild_id = $1 AND id NOT IN (
			SELECT id FROM antinuke_history
			WHERE guild_id = $1
			ORDER BY id DESC
			LIMIT $2
		)
	`, guildID, models.HistoryLimit)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetHistory returns the newest limit entries, oldest first.
func (d *Database) GetHistory(guildID string, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 || limit > models.HistoryLimit {
		limit = models.HistoryLimit
	}

	rows, err := d.db.Query(`
		SELECT ts, action_type, actor_id, actor_tag, punishment, reason, details
		FROM antinuke_history
		WHERE guild_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, guildID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var action, punishment, details string
		if err := rows.Scan(&e.Timestamp, &action, &e.ActorID, &e.ActorTag, &punishment, &e.Reason, &details); err != nil {
			return nil, err
		}
		e.Action = models.ActionType(action)
		e.Punishment = models.Punishment(punishment)
		if details != "" && details != "{}" {
			if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
				return nil, fmt.Errorf("unmarshal details: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest-first from the query; flip to chronological order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
