package auditor

import (
	"github.com/bwmarrin/discordgo"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"discord-antinuke-bot/internal/metrics"
)

// monitoredKinds are the raw gateway dispatch types the pipeline consumes.
var monitoredKinds = map[string]bool{
	"GUILD_BAN_ADD":         true,
	"GUILD_MEMBER_REMOVE":   true,
	"GUILD_ROLE_CREATE":     true,
	"GUILD_ROLE_DELETE":     true,
	"CHANNEL_CREATE":        true,
	"CHANNEL_DELETE":        true,
	"WEBHOOKS_UPDATE":       true,
	"GUILD_EMOJIS_UPDATE":   true,
	"GUILD_STICKERS_UPDATE": true,
}

// Ingress is a cheap raw-frame tap: it peeks at the dispatch type and guild
// of every gateway frame without a full unmarshal, for trace logging of the
// frames the typed handlers are about to see. Detection itself runs off the
// typed handlers; this exists so a misbehaving guild can be diagnosed from
// logs alone.
type Ingress struct {
	log *zap.Logger
}

// NewIngress creates the raw-frame tap.
func NewIngress(log *zap.Logger) *Ingress {
	return &Ingress{log: log}
}

// Handle is registered as a raw *discordgo.Event handler.
func (in *Ingress) Handle(s *discordgo.Session, e *discordgo.Event) {
	if len(e.RawData) == 0 || !monitoredKinds[e.Type] {
		return
	}
	metrics.GatewayFrames.WithLabelValues(e.Type).Inc()
	guildID := gjson.GetBytes(e.RawData, "guild_id").String()
	in.log.Debug("gateway frame",
		zap.String("type", e.Type),
		zap.String("guild_id", guildID))
}
