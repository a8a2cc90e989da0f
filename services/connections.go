package services

import (
	"log"
	"sync"
)

// Outbound is the send side of one player's realtime channel. The websocket
// layer adapts its connections to this; tests substitute recorders. Sends are
// expected to be non-blocking (buffer-and-drop, not backpressure to the caller).
type Outbound interface {
	Send(message any) error
}

// ConnectionRegistry indexes live per-game, per-player channels. It is pure
// bookkeeping: it does not own connection lifecycle, it only tracks who is
// reachable. All delivery is best-effort — a broken channel is logged and
// skipped so one player's bad connection never affects the other's.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	games map[string]map[string]Outbound // game_id -> player_id -> channel
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		games: make(map[string]map[string]Outbound),
	}
}

// Connect registers a player's channel for a game. A reconnect simply
// overwrites the previous registration — last one wins.
func (r *ConnectionRegistry) Connect(ch Outbound, gameID, playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.games[gameID] == nil {
		r.games[gameID] = make(map[string]Outbound)
	}
	r.games[gameID][playerID] = ch
}

// Disconnect removes a registration. The game entry itself is pruned once its
// last player leaves so the map never accumulates empty games.
func (r *ConnectionRegistry) Disconnect(gameID, playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	players, ok := r.games[gameID]
	if !ok {
		return
	}
	delete(players, playerID)
	if len(players) == 0 {
		delete(r.games, gameID)
	}
}

// SendToPlayer delivers a message to one player in a game.
func (r *ConnectionRegistry) SendToPlayer(message any, gameID, playerID string) {
	r.mu.RLock()
	ch, ok := r.games[gameID][playerID]
	r.mu.RUnlock()

	if !ok {
		return
	}
	if err := ch.Send(message); err != nil {
		log.Printf("[Registry] Failed to send to player %s in game %s: %v", playerID, gameID, err)
	}
}

// Broadcast delivers a message to every registered player in a game, optionally
// excluding one (pass "" to exclude nobody).
func (r *ConnectionRegistry) Broadcast(message any, gameID, excludePlayer string) {
	r.mu.RLock()
	players := make(map[string]Outbound, len(r.games[gameID]))
	for pid, ch := range r.games[gameID] {
		players[pid] = ch
	}
	r.mu.RUnlock()

	for pid, ch := range players {
		if pid == excludePlayer {
			continue
		}
		if err := ch.Send(message); err != nil {
			log.Printf("[Registry] Failed to broadcast to player %s in game %s: %v", pid, gameID, err)
		}
	}
}

// ConnectedPlayers returns a snapshot of the player ids registered for a game.
func (r *ConnectionRegistry) ConnectedPlayers(gameID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.games[gameID]))
	for pid := range r.games[gameID] {
		ids = append(ids, pid)
	}
	return ids
}

// GameCount reports how many games currently have at least one registration.
func (r *ConnectionRegistry) GameCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
