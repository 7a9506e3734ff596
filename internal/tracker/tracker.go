// Package tracker maintains per-(guild, actor, action) sliding windows of
// action timestamps. State is in-process only: a restart resets all counts,
// which trades missed detections for never double counting across restarts.
package tracker

import (
	"sync"
	"time"

	"discord-antinuke-bot/internal/models"
)

// Key identifies one tracked window.
type Key struct {
	GuildID string
	ActorID string
	Action  models.ActionType
}

// window is an ordered deque of event times. Expired entries are pruned from
// the front on every access, so eviction is amortized O(1) per event.
// dead marks a window Cleanup has removed from the map; a Record that raced
// the removal must not append to it or the event would be lost.
type window struct {
	mu   sync.Mutex
	hits []time.Time
	dead bool
}

func (w *window) prune(cutoff time.Time) {
	idx := 0
	for _, hit := range w.hits {
		if hit.After(cutoff) {
			break
		}
		idx++
	}
	if idx == 0 {
		return
	}
	n := copy(w.hits, w.hits[idx:])
	w.hits = w.hits[:n]
}

// Tracker is safe for concurrent use. Locking is per key, so bursts from
// different actors or guilds never contend.
type Tracker struct {
	windows sync.Map // Key -> *window
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{}
}

func (t *Tracker) getWindow(key Key) *window {
	if val, ok := t.windows.Load(key); ok {
		return val.(*window)
	}
	val, _ := t.windows.LoadOrStore(key, &window{})
	return val.(*window)
}

// Record prunes entries older than the trailing span, appends the current
// event, and returns the resulting count. Call exactly once per observed
// real-world action.
func (t *Tracker) Record(key Key, span time.Duration) int {
	now := time.Now()
	for {
		w := t.getWindow(key)
		w.mu.Lock()
		if w.dead {
			// Cleanup removed this window between the map load and the
			// lock. Retry against a fresh one.
			w.mu.Unlock()
			continue
		}
		w.prune(now.Add(-span))
		w.hits = append(w.hits, now)
		n := len(w.hits)
		w.mu.Unlock()
		return n
	}
}

// Peek returns the current count without recording an event. Used to report
// "N/limit" without double counting.
func (t *Tracker) Peek(key Key, span time.Duration) int {
	val, ok := t.windows.Load(key)
	if !ok {
		return 0
	}
	w := val.(*window)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dead {
		return 0
	}
	w.prune(time.Now().Add(-span))
	return len(w.hits)
}

// Reset clears a single window.
func (t *Tracker) Reset(key Key) {
	t.windows.Delete(key)
}

// ResetGuild clears every window belonging to a guild.
func (t *Tracker) ResetGuild(guildID string) {
	t.windows.Range(func(k, _ interface{}) bool {
		if k.(Key).GuildID == guildID {
			t.windows.Delete(k)
		}
		return true
	})
}

// Cleanup drops windows whose newest entry is older than maxIdle and returns
// how many were removed. Run periodically to bound memory.
func (t *Tracker) Cleanup(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	removed := 0

	t.windows.Range(func(k, val interface{}) bool {
		w := val.(*window)
		w.mu.Lock()
		if len(w.hits) == 0 || w.hits[len(w.hits)-1].Before(cutoff) {
			// Tombstone and delete under the same lock so a Record holding
			// this pointer retries instead of appending to a removed window.
			w.dead = true
			w.hits = nil
			t.windows.Delete(k)
			removed++
		}
		w.mu.Unlock()
		return true
	})
	return removed
}

// Stats reports tracker occupancy.
type Stats struct {
	ActiveWindows int
	TotalEvents   int
}

// GetStats returns current occupancy.
func (t *Tracker) GetStats() Stats {
	stats := Stats{}
	t.windows.Range(func(_, val interface{}) bool {
		w := val.(*window)
		w.mu.Lock()
		stats.ActiveWindows++
		stats.TotalEvents += len(w.hits)
		w.mu.Unlock()
		return true
	})
	return stats
}
