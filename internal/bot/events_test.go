package bot

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"discord-antinuke-bot/internal/guard"
	"discord-antinuke-bot/internal/models"
	"discord-antinuke-bot/internal/tracker"
)

// fakeStore satisfies guard.Store through the embedded interface; only the
// invalidation hook is real.
type fakeStore struct {
	guard.Store
	invalidated []string
}

func (f *fakeStore) InvalidateGuild(guildID string) error {
	f.invalidated = append(f.invalidated, guildID)
	return nil
}

func TestGuildDeleteClearsGuildState(t *testing.T) {
	store := &fakeStore{}
	b, err := New("token", store, nil, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	left := tracker.Key{GuildID: "g1", ActorID: "u1", Action: models.ActionBan}
	kept := tracker.Key{GuildID: "g2", ActorID: "u1", Action: models.ActionBan}
	b.Engine.Tracker().Record(left, time.Hour)
	b.Engine.Tracker().Record(kept, time.Hour)

	b.GuildDelete(b.Session, &discordgo.GuildDelete{
		Guild: &discordgo.Guild{ID: "g1"},
	})

	if got := b.Engine.Tracker().Peek(left, time.Hour); got != 0 {
		t.Fatalf("left guild window = %d, want 0", got)
	}
	if got := b.Engine.Tracker().Peek(kept, time.Hour); got != 1 {
		t.Fatalf("kept guild window = %d, want 1", got)
	}
	if len(store.invalidated) != 1 || store.invalidated[0] != "g1" {
		t.Fatalf("invalidated = %v, want [g1]", store.invalidated)
	}
}

func TestGuildDeleteSkipsUnavailableGuild(t *testing.T) {
	store := &fakeStore{}
	b, err := New("token", store, nil, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	key := tracker.Key{GuildID: "g1", ActorID: "u1", Action: models.ActionBan}
	b.Engine.Tracker().Record(key, time.Hour)

	b.GuildDelete(b.Session, &discordgo.GuildDelete{
		Guild: &discordgo.Guild{ID: "g1", Unavailable: true},
	})

	if got := b.Engine.Tracker().Peek(key, time.Hour); got != 1 {
		t.Fatalf("window = %d, want 1 after outage frame", got)
	}
	if len(store.invalidated) != 0 {
		t.Fatalf("invalidated = %v, want none", store.invalidated)
	}
}
