package bot

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"discord-antinuke-bot/internal/auditor"
	"discord-antinuke-bot/internal/commands"
	"discord-antinuke-bot/internal/database"
	"discord-antinuke-bot/internal/guard"
	"discord-antinuke-bot/internal/redis"
)

type Bot struct {
	Session   *discordgo.Session
	DB        *database.Database
	Redis     *redis.Client
	Store     guard.Store
	Engine    *guard.Engine
	Ingress   *auditor.Ingress
	StartTime time.Time
	Logger    *zap.Logger

	correlator *auditor.Correlator
}

func New(token string, store guard.Store, db *database.Database, rdb *redis.Client, logger *zap.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("session error: %w", err)
	}

	// Pooled keep-alive transport. Punishments are REST calls on the hot
	// path, so connection setup cost matters.
	tr := &http.Transport{
		MaxIdleConns:          500,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       120 * time.Second,
		ForceAttemptHTTP2:     true,
		MaxConnsPerHost:       100,
		ResponseHeaderTimeout: 5 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	s.Client = &http.Client{
		Transport: tr,
		Timeout:   15 * time.Second,
	}

	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildBans | // GUILD_MODERATION: ban add events
		discordgo.IntentsGuildWebhooks |
		discordgo.IntentsGuildEmojis // covers emoji and sticker update events

	// State tracking stays off. Everything the engine needs arrives in the
	// events themselves or is fetched fresh over REST.
	s.StateEnabled = false

	s.ShouldReconnectOnError = true
	s.ShouldRetryOnRateLimit = true
	s.MaxRestRetries = 3

	b := &Bot{
		Session:   s,
		DB:        db,
		Redis:     rdb,
		Store:     store,
		Engine:    guard.NewEngine(s, store, logger),
		Ingress:   auditor.NewIngress(logger),
		StartTime: time.Now(),
		Logger:    logger,
	}

	// The correlator registers before the session opens so the GUILD_CREATE
	// burst after READY seeds its owner and emoji snapshots. The bot's own ID
	// is filled in from the Ready handler.
	b.correlator = auditor.New(s, b.Engine, logger)
	b.correlator.Register(s)

	s.AddHandler(b.Ready)
	s.AddHandler(b.InteractionCreate)
	s.AddHandler(b.GuildCreate)
	s.AddHandler(b.GuildDelete)
	s.AddHandler(b.Ingress.Handle)

	return b, nil
}

func (b *Bot) Start() error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("gateway connection failed: %w", err)
	}

	// Ensure we have the bot user (since state is disabled)
	if b.Session.State.User == nil {
		u, err := b.Session.User("@me")
		if err != nil {
			return fmt.Errorf("failed to get bot user: %w", err)
		}
		b.Session.State.User = u
	}
	selfID := b.Session.State.User.ID

	b.Logger.Info("logged in",
		zap.String("username", b.Session.State.User.Username),
		zap.String("user_id", selfID))

	if _, err := b.Session.ApplicationCommandBulkOverwrite(selfID, "", commands.Commands); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	b.Logger.Info("registered commands", zap.Int("count", len(commands.Commands)))

	go b.trackerJanitor()

	// Wait for interrupt
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	return b.Close()
}

func (b *Bot) Close() error {
	b.Logger.Info("shutting down")
	b.Logger.Sync()
	b.DB.Close()
	b.Redis.Close()
	return b.Session.Close()
}

// trackerJanitor periodically drops rate windows that have gone idle, so
// one-off admin actions don't pin memory forever.
func (b *Bot) trackerJanitor() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		removed := b.Engine.Tracker().Cleanup(24 * time.Hour)
		if removed > 0 {
			b.Logger.Debug("pruned idle rate windows", zap.Int("removed", removed))
		}
	}
}
