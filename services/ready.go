package services

import "sync"

// ReadyCoordinator tracks per-game ready flags for the pre-round ready phase.
// Flags are scoped to the upcoming round only: every exercise (re)selection
// resets them, so stale readiness from a previous round can never trigger a
// countdown.
type ReadyCoordinator struct {
	mu       sync.Mutex
	registry *ConnectionRegistry
	ready    map[string]map[string]bool // game_id -> player_id -> ready
}

func NewReadyCoordinator(registry *ConnectionRegistry) *ReadyCoordinator {
	return &ReadyCoordinator{
		registry: registry,
		ready:    make(map[string]map[string]bool),
	}
}

// SetReady records a player's ready flag and reports whether the game is now
// fully ready. Both-ready requires exactly two distinct connected players for
// the game and a true flag for each — a lone player toggling ready twice never
// counts as two.
func (rc *ReadyCoordinator) SetReady(gameID, playerID string, isReady bool) bool {
	rc.mu.Lock()
	if rc.ready[gameID] == nil {
		rc.ready[gameID] = make(map[string]bool)
	}
	rc.ready[gameID][playerID] = isReady
	flags := rc.ready[gameID]

	connected := rc.registry.ConnectedPlayers(gameID)
	if len(connected) != 2 || connected[0] == connected[1] {
		rc.mu.Unlock()
		return false
	}

	bothReady := flags[connected[0]] && flags[connected[1]]
	rc.mu.Unlock()
	return bothReady
}

// Reset clears all ready flags for a game.
func (rc *ReadyCoordinator) Reset(gameID string) {
	rc.mu.Lock()
	delete(rc.ready, gameID)
	rc.mu.Unlock()
}

// IsReady reports a single player's current flag.
func (rc *ReadyCoordinator) IsReady(gameID, playerID string) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.ready[gameID][playerID]
}
