package services

import (
	"log"
	"sync"
)

// MatchNotifier tracks matchmaking-scope channels, one per waiting player.
// These are separate from the per-game registry because match-found events
// must reach players before any game exists for them to connect to.
type MatchNotifier struct {
	mu       sync.RWMutex
	channels map[string]Outbound // player_id -> channel
}

func NewMatchNotifier() *MatchNotifier {
	return &MatchNotifier{
		channels: make(map[string]Outbound),
	}
}

// Register attaches a player's matchmaking channel. Reconnects overwrite.
func (n *MatchNotifier) Register(playerID string, ch Outbound) {
	n.mu.Lock()
	n.channels[playerID] = ch
	n.mu.Unlock()
}

// Unregister detaches a player's matchmaking channel.
func (n *MatchNotifier) Unregister(playerID string) {
	n.mu.Lock()
	delete(n.channels, playerID)
	n.mu.Unlock()
}

// IsRegistered reports whether a player currently has a matchmaking channel.
// The queue polls this before attempting a match so MATCH_FOUND is not fired
// into the void while the client is still connecting.
func (n *MatchNotifier) IsRegistered(playerID string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.channels[playerID]
	return ok
}

// NotifyMatchFound pushes a MATCH_FOUND event to one player. Best-effort: a
// missing or broken channel is logged and dropped, never retried here — the
// queue's register-then-match polling is the only retry mechanism for this
// race.
func (n *MatchNotifier) NotifyMatchFound(playerID string, info MatchFoundPayload) {
	n.mu.RLock()
	ch, ok := n.channels[playerID]
	n.mu.RUnlock()

	if !ok {
		log.Printf("[Matchmaking] Player %s has no matchmaking channel, match notification dropped", playerID)
		return
	}
	if err := ch.Send(Envelope{Type: EventMatchFound, Payload: info}); err != nil {
		log.Printf("[Matchmaking] Failed to notify player %s of match: %v", playerID, err)
	}
}

// MatchFoundPayload is the MATCH_FOUND event body.
type MatchFoundPayload struct {
	GameID       string  `json:"game_id"`
	PlayerID     string  `json:"player_id"`
	OpponentID   string  `json:"opponent_id"`
	OpponentName string  `json:"opponent_name"`
	ExerciseID   *string `json:"exercise_id,omitempty"`
}
