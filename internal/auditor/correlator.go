// Package auditor resolves platform state-change events to the user who
// caused them, via the guild audit log, and feeds correlated events into the
// guard engine.
package auditor

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"discord-antinuke-bot/internal/guard"
	"discord-antinuke-bot/internal/metrics"
	"discord-antinuke-bot/internal/models"
)

// AuditSource is the subset of the Discord REST surface the correlator needs.
// *discordgo.Session satisfies it; tests use a fake.
type AuditSource interface {
	GuildAuditLog(guildID, userID, beforeID string, actionType, limit int, options ...discordgo.RequestOption) (*discordgo.GuildAuditLog, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
}

// Sink consumes correlated events. *guard.Engine satisfies it.
type Sink interface {
	HandleEvent(guard.Event)
}

// graceDelay gives the platform's audit trail time to become consistent
// before we query it. It is a single fixed wait, not a retry.
const graceDelay = time.Second

// Correlator turns gateway events into attributed guard events. All handlers
// run as independent goroutines dispatched by the session; none of them may
// panic or block the gateway reader.
type Correlator struct {
	source AuditSource
	sink   Sink
	log    *zap.Logger

	grace time.Duration

	// selfID is the bot's own user ID, set from the Ready payload once the
	// session identifies. Actions the bot performs (including its own
	// punishments) are never fed back into the pipeline.
	//
	// Emoji and sticker updates arrive as full replacement sets, so the
	// correlator keeps the last seen ID set per guild to diff against. The
	// guild owner ID is kept alongside: owners are exempt from tracking.
	mu       sync.Mutex
	selfID   string
	emojis   map[string]map[string]bool
	stickers map[string]map[string]bool
	owners   map[string]string
}

// New creates a correlator feeding the given sink. Register it before the
// session opens so no GuildCreate frame is missed; call SetSelf from the
// Ready handler.
func New(source AuditSource, sink Sink, log *zap.Logger) *Correlator {
	return &Correlator{
		source:   source,
		sink:     sink,
		log:      log,
		grace:    graceDelay,
		emojis:   make(map[string]map[string]bool),
		stickers: make(map[string]map[string]bool),
		owners:   make(map[string]string),
	}
}

// SetSelf records the bot's own user ID.
func (c *Correlator) SetSelf(id string) {
	c.mu.Lock()
	c.selfID = id
	c.mu.Unlock()
}

// correlate attributes one observed action to a live, non-bot guild member
// and hands it to the sink. targetID narrows the audit match; empty matches
// the most recent entry of that kind. Any failure drops the event.
func (c *Correlator) correlate(guildID string, action models.ActionType, targetID, targetName string) {
	start := time.Now()
	metrics.EventsObserved.WithLabelValues(string(action)).Inc()

	b, ok := bindingFor(action)
	if !ok {
		return
	}

	time.Sleep(c.grace)

	entry, ok := c.findEntry(guildID, b, targetID)
	if !ok {
		return
	}

	actor, ok := c.resolveActor(guildID, entry.UserID)
	if !ok {
		return
	}

	metrics.EventsAttributed.WithLabelValues(string(action)).Inc()
	metrics.AttributionLatency.Observe(time.Since(start).Seconds())

	c.sink.HandleEvent(guard.Event{
		GuildID:     guildID,
		Action:      action,
		Actor:       actor,
		TargetID:    entry.TargetID,
		TargetName:  targetName,
		AuditReason: entry.Reason,
	})
}

// findEntry queries the audit log for the binding's action kind and returns
// the first entry matching targetID.
func (c *Correlator) findEntry(guildID string, b binding, targetID string) (*discordgo.AuditLogEntry, bool) {
	audit, err := c.source.GuildAuditLog(guildID, "", "", int(b.auditAction), b.queryLimit)
	if err != nil {
		c.log.Warn("audit log query failed",
			zap.String("guild_id", guildID),
			zap.String("action", string(b.action)),
			zap.Error(err))
		metrics.EventsDropped.WithLabelValues(metrics.DropAPIError).Inc()
		return nil, false
	}

	for _, entry := range audit.AuditLogEntries {
		if targetID != "" && entry.TargetID != targetID {
			continue
		}
		return entry, true
	}
	metrics.EventsDropped.WithLabelValues(metrics.DropNoAuditMatch).Inc()
	return nil, false
}

// resolveActor maps an executor ID to a live guild member, filtering out the
// bot itself, other automated accounts and the guild owner. A departed actor
// can be neither whitelist-checked nor punished, so processing aborts.
func (c *Correlator) resolveActor(guildID, executorID string) (*discordgo.Member, bool) {
	c.mu.Lock()
	selfID := c.selfID
	owner, seeded := c.owners[guildID]
	c.mu.Unlock()

	if selfID != "" && executorID == selfID {
		metrics.EventsDropped.WithLabelValues(metrics.DropBotActor).Inc()
		return nil, false
	}

	// The owner snapshot comes from GuildCreate; a guild whose frame has not
	// been seen yet falls back to a one-time REST lookup.
	if !seeded {
		guild, err := c.source.Guild(guildID)
		if err != nil {
			c.log.Debug("guild owner lookup failed",
				zap.String("guild_id", guildID),
				zap.Error(err))
		} else {
			owner = guild.OwnerID
			c.mu.Lock()
			c.owners[guildID] = owner
			c.mu.Unlock()
		}
	}
	if owner != "" && executorID == owner {
		metrics.EventsDropped.WithLabelValues(metrics.DropGuildOwner).Inc()
		return nil, false
	}

	member, err := c.source.GuildMember(guildID, executorID)
	if err != nil {
		metrics.EventsDropped.WithLabelValues(metrics.DropActorDeparted).Inc()
		return nil, false
	}
	if member.User == nil || member.User.Bot {
		metrics.EventsDropped.WithLabelValues(metrics.DropBotActor).Inc()
		return nil, false
	}
	return member, true
}

// correlateDiff handles bulk replacement events: for every ID in the diff
// set, it walks the candidate audit entries and attributes the first one
// whose target falls inside the set, one match per event.
func (c *Correlator) correlateDiff(guildID string, action models.ActionType, diff map[string]string) {
	if len(diff) == 0 {
		return
	}
	start := time.Now()
	metrics.EventsObserved.WithLabelValues(string(action)).Inc()

	b, ok := bindingFor(action)
	if !ok {
		return
	}

	time.Sleep(c.grace)

	audit, err := c.source.GuildAuditLog(guildID, "", "", int(b.auditAction), b.queryLimit)
	if err != nil {
		c.log.Warn("audit log query failed",
			zap.String("guild_id", guildID),
			zap.String("action", string(action)),
			zap.Error(err))
		metrics.EventsDropped.WithLabelValues(metrics.DropAPIError).Inc()
		return
	}

	for _, entry := range audit.AuditLogEntries {
		name, inDiff := diff[entry.TargetID]
		if !inDiff {
			continue
		}

		actor, ok := c.resolveActor(guildID, entry.UserID)
		if !ok {
			return
		}

		metrics.EventsAttributed.WithLabelValues(string(action)).Inc()
		metrics.AttributionLatency.Observe(time.Since(start).Seconds())

		c.sink.HandleEvent(guard.Event{
			GuildID:     guildID,
			Action:      action,
			Actor:       actor,
			TargetID:    entry.TargetID,
			TargetName:  name,
			AuditReason: entry.Reason,
		})
		return
	}
	metrics.EventsDropped.WithLabelValues(metrics.DropNoAuditMatch).Inc()
}
