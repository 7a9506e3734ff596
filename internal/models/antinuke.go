package models

import (
	"fmt"
	"time"
)

// ActionType identifies a destructive administrative action tracked by the
// anti-nuke engine. Values match the persisted form.
type ActionType string

const (
	ActionBan           ActionType = "ban"
	ActionKick          ActionType = "kick"
	ActionRoleCreate    ActionType = "role_create"
	ActionRoleDelete    ActionType = "role_delete"
	ActionChannelCreate ActionType = "channel_create"
	ActionChannelDelete ActionType = "channel_delete"
	ActionWebhookCreate ActionType = "webhook_create"
	ActionWebhookDelete ActionType = "webhook_delete"
	ActionEmojiCreate   ActionType = "emoji_create"
	ActionEmojiDelete   ActionType = "emoji_delete"
	ActionStickerCreate ActionType = "sticker_create"
	ActionStickerDelete ActionType = "sticker_delete"
)

// Punishment identifies the remediation applied when a threshold is exceeded.
type Punishment string

const (
	PunishmentJail Punishment = "jail" // strip roles, assign the configured jail role
	PunishmentBan  Punishment = "ban"
	PunishmentKick Punishment = "kick"
)

// DefaultPunishment is applied when a guild has not configured one.
const DefaultPunishment = PunishmentJail

// HistoryLimit caps the per-guild punishment history. Oldest entries are
// evicted first.
const HistoryLimit = 50

// Threshold is the per-(guild, action) trigger configuration.
type Threshold struct {
	Action      ActionType `json:"action"`
	Count       int        `json:"count"`
	WindowHours int        `json:"hours"`
}

// Window returns the threshold's trailing window as a duration.
func (t Threshold) Window() time.Duration {
	return time.Duration(t.WindowHours) * time.Hour
}

// Validate rejects thresholds the evaluator can't honor.
func (t Threshold) Validate() error {
	if !IsKnownAction(t.Action) {
		return fmt.Errorf("unknown action type %q", t.Action)
	}
	if t.Count < 1 {
		return fmt.Errorf("threshold count must be >= 1, got %d", t.Count)
	}
	if t.WindowHours < 1 {
		return fmt.Errorf("threshold window must be >= 1 hour, got %d", t.WindowHours)
	}
	return nil
}

// WhitelistEntry is a user or role exempt from tracking and punishment.
type WhitelistEntry struct {
	GuildID    string
	TargetID   string
	TargetType string // "user" or "role"
	AddedBy    string
	CreatedAt  int64
}

// Whitelist target type constants.
const (
	TargetUser = "user"
	TargetRole = "role"
)

// HistoryEntry records a punishment that was actually applied.
type HistoryEntry struct {
	Timestamp  int64             `json:"timestamp"`
	Action     ActionType        `json:"action"`
	ActorID    string            `json:"actor_id"`
	ActorTag   string            `json:"actor_tag"`
	Punishment Punishment        `json:"punishment"`
	Reason     string            `json:"reason"`
	Details    map[string]string `json:"details,omitempty"`
}

// defaultThresholds is the built-in fallback table, used for any
// (guild, action) pair without an explicit configuration.
var defaultThresholds = map[ActionType]Threshold{
	ActionBan:           {ActionBan, 3, 1},
	ActionKick:          {ActionKick, 5, 1},
	ActionRoleCreate:    {ActionRoleCreate, 5, 1},
	ActionRoleDelete:    {ActionRoleDelete, 3, 1},
	ActionChannelCreate: {ActionChannelCreate, 5, 1},
	ActionChannelDelete: {ActionChannelDelete, 3, 1},
	ActionWebhookCreate: {ActionWebhookCreate, 5, 1},
	ActionWebhookDelete: {ActionWebhookDelete, 5, 1},
	ActionEmojiCreate:   {ActionEmojiCreate, 10, 1},
	ActionEmojiDelete:   {ActionEmojiDelete, 10, 1},
	ActionStickerCreate: {ActionStickerCreate, 5, 1},
	ActionStickerDelete: {ActionStickerDelete, 5, 1},
}

// DefaultThreshold returns the built-in threshold for an action.
// ok is false for unrecognized actions; those never trigger.
func DefaultThreshold(action ActionType) (Threshold, bool) {
	t, ok := defaultThresholds[action]
	return t, ok
}

// SetDefaultThreshold overrides a built-in default at startup (deployment
// tuning via thresholds.yaml). Unknown actions and invalid values are refused.
func SetDefaultThreshold(t Threshold) error {
	if err := t.Validate(); err != nil {
		return err
	}
	defaultThresholds[t.Action] = t
	return nil
}

// IsKnownAction reports whether the action type is in the recognized set.
func IsKnownAction(action ActionType) bool {
	_, ok := defaultThresholds[action]
	return ok
}

// AllActionTypes returns every recognized action type, in stable order.
func AllActionTypes() []ActionType {
	return []ActionType{
		ActionBan,
		ActionKick,
		ActionRoleCreate,
		ActionRoleDelete,
		ActionChannelCreate,
		ActionChannelDelete,
		ActionWebhookCreate,
		ActionWebhookDelete,
		ActionEmojiCreate,
		ActionEmojiDelete,
		ActionStickerCreate,
		ActionStickerDelete,
	}
}

// ParseActionType converts user input to an ActionType.
func ParseActionType(s string) (ActionType, error) {
	a := ActionType(s)
	if !IsKnownAction(a) {
		return "", fmt.Errorf("unknown action type %q", s)
	}
	return a, nil
}

// ParsePunishment converts user input to a Punishment.
func ParsePunishment(s string) (Punishment, error) {
	switch p := Punishment(s); p {
	case PunishmentJail, PunishmentBan, PunishmentKick:
		return p, nil
	default:
		return "", fmt.Errorf("unknown punishment %q (use jail, ban or kick)", s)
	}
}

// ActionDisplayName returns a human-readable name for an action type.
func ActionDisplayName(action ActionType) string {
	switch action {
	case ActionBan:
		return "Banning Members"
	case ActionKick:
		return "Kicking Members"
	case ActionRoleCreate:
		return "Creating Roles"
	case ActionRoleDelete:
		return "Deleting Roles"
	case ActionChannelCreate:
		return "Creating Channels"
	case ActionChannelDelete:
		return "Deleting Channels"
	case ActionWebhookCreate:
		return "Creating Webhooks"
	case ActionWebhookDelete:
		return "Deleting Webhooks"
	case ActionEmojiCreate:
		return "Creating Emojis"
	case ActionEmojiDelete:
		return "Deleting Emojis"
	case ActionStickerCreate:
		return "Creating Stickers"
	case ActionStickerDelete:
		return "Deleting Stickers"
	default:
		return string(action)
	}
}

// PunishmentDisplayName returns a human-readable name for a punishment.
func PunishmentDisplayName(p Punishment) string {
	switch p {
	case PunishmentJail:
		return "Jail (Quarantine)"
	case PunishmentBan:
		return "Ban"
	case PunishmentKick:
		return "Kick"
	default:
		return string(p)
	}
}

// Now returns the current Unix timestamp in milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}
