package cache

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"discord-antinuke-bot/internal/guard"
	"discord-antinuke-bot/internal/models"
)

// Cache key prefixes. Guild-scoped so writes can invalidate precisely.
const (
	keyThreshold  = "an:th:%s:%s" // guild, action
	keyWhitelist  = "an:wl:%s:%s" // guild, target
	keyPunishment = "an:pn:%s"    // guild
	keyJailRole   = "an:jr:%s"    // guild
	keyLogChannel = "an:lc:%s:%s" // guild, category
)

// absent marks a cached negative lookup so misses don't hammer Postgres.
const absent = "\x00absent"

const storeTTL = 5 * time.Minute

// Store wraps a persistent guard.Store with read-through caching. Every
// audit-matched event performs several config reads, so the hot path should
// not touch Postgres at all once warm.
type Store struct {
	inner guard.Store
	cache *Cache
}

var _ guard.Store = (*Store)(nil)

func NewStore(inner guard.Store, cache *Cache) *Store {
	return &Store{inner: inner, cache: cache}
}

func (s *Store) GetThreshold(guildID string, action models.ActionType) (models.Threshold, bool, error) {
	key := fmt.Sprintf(keyThreshold, guildID, action)
	val, err := s.cache.GetString(key, storeTTL, func() (string, error) {
		t, ok, err := s.inner.GetThreshold(guildID, action)
		if err != nil {
			return "", err
		}
		if !ok {
			return absent, nil
		}
		raw, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	})
	if err != nil {
		return models.Threshold{}, false, err
	}
	if val == absent {
		return models.Threshold{}, false, nil
	}

	var t models.Threshold
	if err := json.Unmarshal([]byte(val), &t); err != nil {
		return models.Threshold{}, false, err
	}
	return t, true, nil
}

func (s *Store) SetThreshold(guildID string, t models.Threshold) error {
	if err := s.inner.SetThreshold(guildID, t); err != nil {
		return err
	}
	s.cache.Delete(fmt.Sprintf(keyThreshold, guildID, t.Action))
	return nil
}

func (s *Store) GetThresholds(guildID string) ([]models.Threshold, error) {
	// List reads happen from commands only, no caching needed.
	return s.inner.GetThresholds(guildID)
}

func (s *Store) IsWhitelisted(guildID, targetID string) (bool, error) {
	key := fmt.Sprintf(keyWhitelist, guildID, targetID)
	val, err := s.cache.GetString(key, storeTTL, func() (string, error) {
		ok, err := s.inner.IsWhitelisted(guildID, targetID)
		if err != nil {
			return "", err
		}
		if ok {
			return "1", nil
		}
		return "0", nil
	})
	if err != nil {
		return false, err
	}
	return val == "1", nil
}

func (s *Store) AddWhitelistEntry(e models.WhitelistEntry) error {
	if err := s.inner.AddWhitelistEntry(e); err != nil {
		return err
	}
	s.cache.Delete(fmt.Sprintf(keyWhitelist, e.GuildID, e.TargetID))
	return nil
}

func (s *Store) RemoveWhitelistEntry(guildID, targetID string) error {
	if err := s.inner.RemoveWhitelistEntry(guildID, targetID); err != nil {
		return err
	}
	s.cache.Delete(fmt.Sprintf(keyWhitelist, guildID, targetID))
	return nil
}

func (s *Store) GetWhitelistEntries(guildID string) ([]models.WhitelistEntry, error) {
	return s.inner.GetWhitelistEntries(guildID)
}

func (s *Store) GetPunishment(guildID string) (models.Punishment, error) {
	key := fmt.Sprintf(keyPunishment, guildID)
	val, err := s.cache.GetString(key, storeTTL, func() (string, error) {
		p, err := s.inner.GetPunishment(guildID)
		if err != nil {
			return "", err
		}
		return string(p), nil
	})
	if err != nil {
		return "", err
	}
	return models.Punishment(val), nil
}

func (s *Store) SetPunishment(guildID string, p models.Punishment) error {
	if err := s.inner.SetPunishment(guildID, p); err != nil {
		return err
	}
	s.cache.Delete(fmt.Sprintf(keyPunishment, guildID))
	return nil
}

func (s *Store) GetJailRole(guildID string) (string, error) {
	key := fmt.Sprintf(keyJailRole, guildID)
	val, err := s.cache.GetString(key, storeTTL, func() (string, error) {
		roleID, err := s.inner.GetJailRole(guildID)
		if err != nil {
			return "", err
		}
		if roleID == "" {
			return absent, nil
		}
		return roleID, nil
	})
	if err != nil {
		return "", err
	}
	if val == absent {
		return "", nil
	}
	return val, nil
}

func (s *Store) SetJailRole(guildID, roleID string) error {
	if err := s.inner.SetJailRole(guildID, roleID); err != nil {
		return err
	}
	s.cache.Delete(fmt.Sprintf(keyJailRole, guildID))
	return nil
}

func (s *Store) GetLogChannel(guildID, category string) (string, error) {
	key := fmt.Sprintf(keyLogChannel, guildID, category)
	val, err := s.cache.GetString(key, storeTTL, func() (string, error) {
		channelID, err := s.inner.GetLogChannel(guildID, category)
		if err != nil {
			return "", err
		}
		if channelID == "" {
			return absent, nil
		}
		return channelID, nil
	})
	if err != nil {
		return "", err
	}
	if val == absent {
		return "", nil
	}
	return val, nil
}

func (s *Store) SetLogChannel(guildID, category, channelID string) error {
	if err := s.inner.SetLogChannel(guildID, category, channelID); err != nil {
		return err
	}
	s.cache.Delete(fmt.Sprintf(keyLogChannel, guildID, category))
	return nil
}

// InvalidateGuild drops every cached key for a guild, called when the bot
// leaves it. Single-segment keys are deleted directly; the two-segment
// threshold, whitelist and log channel keys go through a pattern scan.
func (s *Store) InvalidateGuild(guildID string) error {
	s.cache.Delete(fmt.Sprintf(keyPunishment, guildID))
	s.cache.Delete(fmt.Sprintf(keyJailRole, guildID))
	return s.cache.DeletePattern("an:*:" + guildID + ":*")
}

func (s *Store) AppendHistory(guildID string, e models.HistoryEntry) error {
	return s.inner.AppendHistory(guildID, e)
}

func (s *Store) GetHistory(guildID string, limit int) ([]models.HistoryEntry, error) {
	return s.inner.GetHistory(guildID, limit)
}
