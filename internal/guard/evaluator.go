package guard

import (
	"go.uber.org/zap"

	"discord-antinuke-bot/internal/models"
)

// Evaluator compares window counts against configured or default thresholds.
type Evaluator struct {
	store Store
	log   *zap.Logger
}

// NewEvaluator creates a threshold evaluator backed by the given store.
func NewEvaluator(store Store, log *zap.Logger) *Evaluator {
	return &Evaluator{store: store, log: log}
}

// Limit returns the effective threshold for (guild, action): the guild's
// explicit configuration if set, otherwise the built-in default. ok is false
// for unrecognized action types, which never trigger.
func (e *Evaluator) Limit(guildID string, action models.ActionType) (models.Threshold, bool) {
	def, known := models.DefaultThreshold(action)
	if !known {
		return models.Threshold{}, false
	}

	t, ok, err := e.store.GetThreshold(guildID, action)
	if err != nil {
		// Config lookup failure falls back to the default rather than
		// disabling detection.
		e.log.Warn("threshold lookup failed, using default",
			zap.String("guild_id", guildID),
			zap.String("action", string(action)),
			zap.Error(err))
		return def, true
	}
	if !ok {
		return def, true
	}
	return t, true
}

// Exceeded reports whether count meets or passes the effective limit, and
// returns the threshold used for display purposes.
func (e *Evaluator) Exceeded(guildID string, action models.ActionType, count int) (bool, models.Threshold) {
	t, ok := e.Limit(guildID, action)
	if !ok {
		return false, models.Threshold{}
	}
	return count >= t.Count, t
}
