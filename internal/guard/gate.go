package guard

// Gate decides whether an actor is exempt from rate tracking and punishment.
// Membership is a pure function of the persisted whitelist and the actor's
// current role set; past role membership is never cached.
type Gate struct {
	store Store
}

// NewGate creates a whitelist gate backed by the given store.
func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// Exempt reports whether the actor is whitelisted, either directly by user ID
// or through any role they currently hold. A guild with no whitelist
// configured exempts nobody.
func (g *Gate) Exempt(guildID, actorID string, roleIDs []string) (bool, error) {
	ok, err := g.store.IsWhitelisted(guildID, actorID)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	for _, roleID := range roleIDs {
		ok, err := g.store.IsWhitelisted(guildID, roleID)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
