package guard

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"discord-antinuke-bot/internal/models"
)

// fakeStore is an in-memory Store for tests.
type fakeStore struct {
	thresholds map[string]models.Threshold // guildID+action
	whitelist  map[string]bool             // guildID+targetID
	punishment map[string]models.Punishment
	jailRoles  map[string]string
	channels   map[string]string // guildID+category
	history    map[string][]models.HistoryEntry

	whitelistErr error
	thresholdErr error
	punishErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		thresholds: make(map[string]models.Threshold),
		whitelist:  make(map[string]bool),
		punishment: make(map[string]models.Punishment),
		jailRoles:  make(map[string]string),
		channels:   make(map[string]string),
		history:    make(map[string][]models.HistoryEntry),
	}
}

func (f *fakeStore) GetThreshold(guildID string, action models.ActionType) (models.Threshold, bool, error) {
	if f.thresholdErr != nil {
		return models.Threshold{}, false, f.thresholdErr
	}
	t, ok := f.thresholds[guildID+string(action)]
	return t, ok, nil
}

func (f *fakeStore) SetThreshold(guildID string, t models.Threshold) error {
	f.thresholds[guildID+string(t.Action)] = t
	return nil
}

func (f *fakeStore) GetThresholds(guildID string) ([]models.Threshold, error) {
	var out []models.Threshold
	for _, t := range f.thresholds {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) IsWhitelisted(guildID, targetID string) (bool, error) {
	if f.whitelistErr != nil {
		return false, f.whitelistErr
	}
	return f.whitelist[guildID+targetID], nil
}

func (f *fakeStore) AddWhitelistEntry(e models.WhitelistEntry) error {
	f.whitelist[e.GuildID+e.TargetID] = true
	return nil
}

func (f *fakeStore) RemoveWhitelistEntry(guildID, targetID string) error {
	delete(f.whitelist, guildID+targetID)
	return nil
}

func (f *fakeStore) GetWhitelistEntries(guildID string) ([]models.WhitelistEntry, error) {
	return nil, nil
}

func (f *fakeStore) GetPunishment(guildID string) (models.Punishment, error) {
	if f.punishErr != nil {
		return "", f.punishErr
	}
	if p, ok := f.punishment[guildID]; ok {
		return p, nil
	}
	return models.DefaultPunishment, nil
}

func (f *fakeStore) SetPunishment(guildID string, p models.Punishment) error {
	f.punishment[guildID] = p
	return nil
}

func (f *fakeStore) GetJailRole(guildID string) (string, error) {
	return f.jailRoles[guildID], nil
}

func (f *fakeStore) SetJailRole(guildID, roleID string) error {
	f.jailRoles[guildID] = roleID
	return nil
}

func (f *fakeStore) GetLogChannel(guildID, category string) (string, error) {
	return f.channels[guildID+category], nil
}

func (f *fakeStore) SetLogChannel(guildID, category, channelID string) error {
	f.channels[guildID+category] = channelID
	return nil
}

func (f *fakeStore) AppendHistory(guildID string, e models.HistoryEntry) error {
	entries := append(f.history[guildID], e)
	if len(entries) > models.HistoryLimit {
		entries = entries[len(entries)-models.HistoryLimit:]
	}
	f.history[guildID] = entries
	return nil
}

func (f *fakeStore) GetHistory(guildID string, limit int) ([]models.HistoryEntry, error) {
	entries := f.history[guildID]
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// fakePlatform records REST calls instead of making them.
type fakePlatform struct {
	bans         []string
	kicks        []string
	rolesRemoved []string
	rolesAdded   []string
	embeds       []string // channel IDs embeds were sent to

	guildRoles []*discordgo.Role

	banErr     error
	kickErr    error
	roleAddErr error
	roleRemErr error
}

func (f *fakePlatform) GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error) {
	return member(userID), nil
}

func (f *fakePlatform) GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	return f.guildRoles, nil
}

func (f *fakePlatform) GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	if f.roleAddErr != nil {
		return f.roleAddErr
	}
	f.rolesAdded = append(f.rolesAdded, roleID)
	return nil
}

func (f *fakePlatform) GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	if f.roleRemErr != nil {
		return f.roleRemErr
	}
	f.rolesRemoved = append(f.rolesRemoved, roleID)
	return nil
}

func (f *fakePlatform) GuildBanCreateWithReason(guildID, userID, reason string, days int, options ...discordgo.RequestOption) error {
	if f.banErr != nil {
		return f.banErr
	}
	f.bans = append(f.bans, userID)
	return nil
}

func (f *fakePlatform) GuildMemberDeleteWithReason(guildID, userID, reason string, options ...discordgo.RequestOption) error {
	if f.kickErr != nil {
		return f.kickErr
	}
	f.kicks = append(f.kicks, userID)
	return nil
}

func (f *fakePlatform) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.embeds = append(f.embeds, channelID)
	return &discordgo.Message{}, nil
}

func member(userID string, roleIDs ...string) *discordgo.Member {
	return &discordgo.Member{
		User:  &discordgo.User{ID: userID, Username: "actor"},
		Roles: roleIDs,
	}
}

func TestGateExempt(t *testing.T) {
	store := newFakeStore()
	store.whitelist["g1"+"u1"] = true
	store.whitelist["g1"+"r9"] = true
	gate := NewGate(store)

	cases := []struct {
		name    string
		actorID string
		roles   []string
		want    bool
	}{
		{"direct user match", "u1", nil, true},
		{"role match", "u2", []string{"r1", "r9"}, true},
		{"no match", "u2", []string{"r1", "r2"}, false},
		{"empty whitelist scope", "u3", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := gate.Exempt("g1", tc.actorID, tc.roles)
			if err != nil {
				t.Fatalf("Exempt error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Exempt = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGateExemptError(t *testing.T) {
	store := newFakeStore()
	store.whitelistErr = errors.New("db down")
	gate := NewGate(store)

	if _, err := gate.Exempt("g1", "u1", nil); err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestEvaluatorLimit(t *testing.T) {
	store := newFakeStore()
	store.thresholds["g1"+string(models.ActionBan)] = models.Threshold{Action: models.ActionBan, Count: 2, WindowHours: 1}
	ev := NewEvaluator(store, zap.NewNop())

	// Explicit configuration wins.
	th, ok := ev.Limit("g1", models.ActionBan)
	if !ok || th.Count != 2 {
		t.Fatalf("Limit = %+v, %v; want explicit count 2", th, ok)
	}

	// Unconfigured action falls back to built-in default.
	th, ok = ev.Limit("g1", models.ActionKick)
	def, _ := models.DefaultThreshold(models.ActionKick)
	if !ok || th != def {
		t.Fatalf("Limit fallback = %+v, want default %+v", th, def)
	}

	// Unknown action types never trigger.
	if _, ok := ev.Limit("g1", "mass_ping"); ok {
		t.Fatal("unknown action reported as known")
	}
}

func TestEvaluatorStoreErrorFallsBack(t *testing.T) {
	store := newFakeStore()
	store.thresholdErr = errors.New("db down")
	ev := NewEvaluator(store, zap.NewNop())

	th, ok := ev.Limit("g1", models.ActionBan)
	def, _ := models.DefaultThreshold(models.ActionBan)
	if !ok || th != def {
		t.Fatalf("Limit on store error = %+v, %v; want default %+v", th, ok, def)
	}
}

func TestEvaluatorExceeded(t *testing.T) {
	ev := NewEvaluator(newFakeStore(), zap.NewNop())

	// Default ban threshold is 3.
	if ok, _ := ev.Exceeded("g1", models.ActionBan, 2); ok {
		t.Fatal("count below limit reported as exceeded")
	}
	if ok, _ := ev.Exceeded("g1", models.ActionBan, 3); !ok {
		t.Fatal("count at limit not reported as exceeded")
	}
	if ok, _ := ev.Exceeded("g1", models.ActionBan, 4); !ok {
		t.Fatal("count above limit not reported as exceeded")
	}
}

func TestExecutorBanAndKick(t *testing.T) {
	store := newFakeStore()
	platform := &fakePlatform{}
	x := NewExecutor(platform, store, zap.NewNop())

	if !x.Apply("g1", member("u1"), models.PunishmentBan, "r") {
		t.Fatal("ban not applied")
	}
	if !x.Apply("g1", member("u2"), models.PunishmentKick, "r") {
		t.Fatal("kick not applied")
	}
	if len(platform.bans) != 1 || platform.bans[0] != "u1" {
		t.Fatalf("bans = %v", platform.bans)
	}
	if len(platform.kicks) != 1 || platform.kicks[0] != "u2" {
		t.Fatalf("kicks = %v", platform.kicks)
	}
}

func TestExecutorSwallowsPlatformErrors(t *testing.T) {
	store := newFakeStore()
	platform := &fakePlatform{banErr: errors.New("missing permissions")}
	x := NewExecutor(platform, store, zap.NewNop())

	if x.Apply("g1", member("u1"), models.PunishmentBan, "r") {
		t.Fatal("failed ban reported as applied")
	}
}

func TestExecutorJail(t *testing.T) {
	store := newFakeStore()
	store.jailRoles["g1"] = "jail"
	platform := &fakePlatform{
		guildRoles: []*discordgo.Role{{ID: "jail"}, {ID: "r1"}, {ID: "r2"}},
	}
	x := NewExecutor(platform, store, zap.NewNop())

	if !x.Apply("g1", member("u1", "r1", "r2"), models.PunishmentJail, "r") {
		t.Fatal("jail not applied")
	}
	if len(platform.rolesRemoved) != 2 {
		t.Fatalf("rolesRemoved = %v, want r1 and r2", platform.rolesRemoved)
	}
	if len(platform.rolesAdded) != 1 || platform.rolesAdded[0] != "jail" {
		t.Fatalf("rolesAdded = %v, want [jail]", platform.rolesAdded)
	}
}

func TestExecutorJailKeepsExistingJailRole(t *testing.T) {
	store := newFakeStore()
	store.jailRoles["g1"] = "jail"
	platform := &fakePlatform{guildRoles: []*discordgo.Role{{ID: "jail"}}}
	x := NewExecutor(platform, store, zap.NewNop())

	if !x.Apply("g1", member("u1", "jail", "r1"), models.PunishmentJail, "r") {
		t.Fatal("jail not applied")
	}
	for _, removed := range platform.rolesRemoved {
		if removed == "jail" {
			t.Fatal("jail role was stripped from the actor")
		}
	}
}

func TestExecutorJailFailsWithoutRole(t *testing.T) {
	store := newFakeStore()
	platform := &fakePlatform{guildRoles: []*discordgo.Role{{ID: "r1"}}}
	x := NewExecutor(platform, store, zap.NewNop())

	// No jail role configured.
	if x.Apply("g1", member("u1"), models.PunishmentJail, "r") {
		t.Fatal("jail applied without a configured role")
	}

	// Configured but deleted from the guild.
	store.jailRoles["g1"] = "gone"
	if x.Apply("g1", member("u1"), models.PunishmentJail, "r") {
		t.Fatal("jail applied with a deleted role")
	}
}

func TestEngineTriggersAtThreshold(t *testing.T) {
	store := newFakeStore()
	store.punishment["g1"] = models.PunishmentBan
	platform := &fakePlatform{}
	engine := NewEngine(platform, store, zap.NewNop())

	evt := Event{GuildID: "g1", Action: models.ActionBan, Actor: member("u1"), TargetID: "t1"}

	// Default ban threshold is 3: the first two events must not punish.
	engine.HandleEvent(evt)
	engine.HandleEvent(evt)
	if len(platform.bans) != 0 {
		t.Fatalf("punished before threshold, bans = %v", platform.bans)
	}

	engine.HandleEvent(evt)
	if len(platform.bans) != 1 {
		t.Fatalf("bans = %v, want exactly one", platform.bans)
	}

	entries := store.history["g1"]
	if len(entries) != 1 {
		t.Fatalf("history length = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Action != models.ActionBan || e.ActorID != "u1" || e.Punishment != models.PunishmentBan {
		t.Fatalf("history entry = %+v", e)
	}
	if e.Details["count"] != "3/3" {
		t.Fatalf("history count detail = %q, want 3/3", e.Details["count"])
	}
}

func TestEngineWhitelistShortCircuits(t *testing.T) {
	store := newFakeStore()
	store.whitelist["g1"+"u1"] = true
	store.punishment["g1"] = models.PunishmentBan
	platform := &fakePlatform{}
	engine := NewEngine(platform, store, zap.NewNop())

	evt := Event{GuildID: "g1", Action: models.ActionBan, Actor: member("u1")}
	for i := 0; i < 10; i++ {
		engine.HandleEvent(evt)
	}

	if len(platform.bans) != 0 {
		t.Fatalf("whitelisted actor was punished, bans = %v", platform.bans)
	}
	if len(store.history["g1"]) != 0 {
		t.Fatalf("history recorded for a whitelisted actor: %+v", store.history["g1"])
	}
	// The window still counts; only evaluation is short-circuited.
	if got := engine.Tracker().GetStats().TotalEvents; got != 10 {
		t.Fatalf("tracked events = %d, want 10", got)
	}
}

func TestEngineUnknownActionIgnored(t *testing.T) {
	store := newFakeStore()
	platform := &fakePlatform{}
	engine := NewEngine(platform, store, zap.NewNop())

	evt := Event{GuildID: "g1", Action: "mass_ping", Actor: member("u1")}
	for i := 0; i < 10; i++ {
		engine.HandleEvent(evt)
	}

	if got := engine.Tracker().GetStats().TotalEvents; got != 0 {
		t.Fatalf("unknown action was tracked, count = %d", got)
	}
}

func TestEngineStoreErrorDropsEvent(t *testing.T) {
	store := newFakeStore()
	store.whitelistErr = errors.New("db down")
	platform := &fakePlatform{}
	engine := NewEngine(platform, store, zap.NewNop())

	evt := Event{GuildID: "g1", Action: models.ActionBan, Actor: member("u1")}
	for i := 0; i < 5; i++ {
		engine.HandleEvent(evt)
	}

	if len(platform.bans) != 0 {
		t.Fatal("punished despite store failure")
	}
	if len(store.history["g1"]) != 0 {
		t.Fatal("history recorded despite store failure")
	}
}

func TestEngineFailedPunishmentSkipsHistory(t *testing.T) {
	store := newFakeStore()
	store.punishment["g1"] = models.PunishmentBan
	platform := &fakePlatform{banErr: errors.New("missing permissions")}
	engine := NewEngine(platform, store, zap.NewNop())

	evt := Event{GuildID: "g1", Action: models.ActionBan, Actor: member("u1")}
	for i := 0; i < 3; i++ {
		engine.HandleEvent(evt)
	}

	if len(store.history["g1"]) != 0 {
		t.Fatalf("history recorded for a failed punishment: %+v", store.history["g1"])
	}
}

func TestEngineNotifiesLogChannel(t *testing.T) {
	store := newFakeStore()
	store.punishment["g1"] = models.PunishmentKick
	store.channels["g1"+LogCategory] = "chan9"
	platform := &fakePlatform{}
	engine := NewEngine(platform, store, zap.NewNop())

	evt := Event{GuildID: "g1", Action: models.ActionKick, Actor: member("u1")}
	// Default kick threshold is 5.
	for i := 0; i < 5; i++ {
		engine.HandleEvent(evt)
	}

	if len(platform.embeds) != 1 || platform.embeds[0] != "chan9" {
		t.Fatalf("embeds = %v, want one send to chan9", platform.embeds)
	}
}

func TestEngineSeparateActorsTrackedIndependently(t *testing.T) {
	store := newFakeStore()
	store.punishment["g1"] = models.PunishmentBan
	platform := &fakePlatform{}
	engine := NewEngine(platform, store, zap.NewNop())

	for i := 0; i < 2; i++ {
		for actor := 0; actor < 3; actor++ {
			engine.HandleEvent(Event{
				GuildID: "g1",
				Action:  models.ActionBan,
				Actor:   member(fmt.Sprintf("u%d", actor)),
			})
		}
	}

	// Each actor sits at 2 of 3, nobody crosses the line.
	if len(platform.bans) != 0 {
		t.Fatalf("bans = %v, want none", platform.bans)
	}
}
