// Package guard implements the anti-nuke core: whitelist gate, sliding-window
// threshold evaluation and the punishment state machine.
package guard

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"discord-antinuke-bot/internal/metrics"
	"discord-antinuke-bot/internal/models"
	"discord-antinuke-bot/internal/tracker"
)

// Event is a correlated action: the auditor has already resolved the actor to
// a live guild member and filtered out bot accounts.
type Event struct {
	GuildID    string
	Action     models.ActionType
	Actor      *discordgo.Member
	TargetID   string
	TargetName string
	// AuditReason is the reason string the actor supplied on the original
	// action, if any.
	AuditReason string
}

// Engine wires gate, tracker, evaluator and executor into the detection
// pipeline.
type Engine struct {
	gate      *Gate
	tracker   *tracker.Tracker
	evaluator *Evaluator
	executor  *Executor
	store     Store
	log       *zap.Logger
}

// NewEngine assembles the detection pipeline.
func NewEngine(platform Platform, store Store, log *zap.Logger) *Engine {
	return &Engine{
		gate:      NewGate(store),
		tracker:   tracker.New(),
		evaluator: NewEvaluator(store, log),
		executor:  NewExecutor(platform, store, log),
		store:     store,
		log:       log,
	}
}

// Tracker exposes the window tracker for periodic cleanup.
func (e *Engine) Tracker() *tracker.Tracker {
	return e.tracker
}

// HandleEvent runs one correlated action through the pipeline. It never
// panics outward and never returns an error: every failure mode ends the
// event's processing quietly.
func (e *Engine) HandleEvent(evt Event) {
	// Default deny: action types outside the recognized set never reach the
	// tracker.
	threshold, known := e.evaluator.Limit(evt.GuildID, evt.Action)
	if !known {
		return
	}

	// The window is recorded unconditionally, one increment per real event.
	// Exemption only short-circuits evaluation and punishment.
	key := tracker.Key{GuildID: evt.GuildID, ActorID: evt.Actor.User.ID, Action: evt.Action}
	count := e.tracker.Record(key, threshold.Window())

	exempt, err := e.gate.Exempt(evt.GuildID, evt.Actor.User.ID, evt.Actor.Roles)
	if err != nil {
		e.log.Warn("whitelist lookup failed, dropping event",
			zap.String("guild_id", evt.GuildID),
			zap.String("actor_id", evt.Actor.User.ID),
			zap.Error(err))
		metrics.EventsDropped.WithLabelValues(metrics.DropStoreError).Inc()
		return
	}
	if exempt {
		metrics.EventsDropped.WithLabelValues(metrics.DropWhitelisted).Inc()
		return
	}

	if exceeded, _ := e.evaluator.Exceeded(evt.GuildID, evt.Action, count); !exceeded {
		return
	}

	e.punish(evt, threshold, count)
}

func (e *Engine) punish(evt Event, threshold models.Threshold, count int) {
	punishment, err := e.store.GetPunishment(evt.GuildID)
	if err != nil {
		e.log.Warn("punishment setting lookup failed, using default",
			zap.String("guild_id", evt.GuildID),
			zap.Error(err))
		punishment = models.DefaultPunishment
	}

	reason := triggerReason(evt)
	applied := e.executor.Apply(evt.GuildID, evt.Actor, punishment, reason)
	if !applied {
		metrics.PunishmentFailures.WithLabelValues(string(punishment)).Inc()
		return
	}
	metrics.PunishmentsApplied.WithLabelValues(string(punishment)).Inc()

	e.log.Info("punishment applied",
		zap.String("guild_id", evt.GuildID),
		zap.String("actor_id", evt.Actor.User.ID),
		zap.String("action", string(evt.Action)),
		zap.String("punishment", string(punishment)),
		zap.Int("count", count),
		zap.Int("limit", threshold.Count))

	entry := models.HistoryEntry{
		Timestamp:  models.Now(),
		Action:     evt.Action,
		ActorID:    evt.Actor.User.ID,
		ActorTag:   evt.Actor.User.String(),
		Punishment: punishment,
		Reason:     reason,
		Details: map[string]string{
			"target_id": evt.TargetID,
			"count":     fmt.Sprintf("%d/%d", count, threshold.Count),
		},
	}
	if evt.TargetName != "" {
		entry.Details["target_name"] = evt.TargetName
	}
	if err := e.store.AppendHistory(evt.GuildID, entry); err != nil {
		e.log.Warn("history append failed",
			zap.String("guild_id", evt.GuildID),
			zap.Error(err))
	}

	e.executor.Notify(evt.GuildID, evt.Actor, evt.Action, threshold, count, punishment, reason)
}

func triggerReason(evt Event) string {
	reason := fmt.Sprintf("Anti-nuke: mass %s detected", models.ActionDisplayName(evt.Action))
	if evt.AuditReason != "" {
		reason += " (" + evt.AuditReason + ")"
	}
	return reason
}
