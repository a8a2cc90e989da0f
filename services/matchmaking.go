package services

import (
	"log"
	"sync"
	"time"
)

// QueuedPlayer is one entry in the matchmaking queue. The skill fields (level,
// XP, win rate) are accepted and carried for API compatibility but matching is
// strict FIFO and never reads them.
type QueuedPlayer struct {
	PlayerID         string
	Level            int
	ExperiencePoints int64
	WinRate          float64
	ExerciseID       *string // preferred exercise for the match
	QueuedAt         time.Time
}

// QueueStatus is the queue-status response shape.
type QueueStatus struct {
	InQueue       bool `json:"in_queue"`
	QueuePosition int  `json:"queue_position"`
	EstimatedWait int  `json:"estimated_wait"` // seconds
}

// MatchResult describes a completed pairing.
type MatchResult struct {
	GameID    string
	PlayerAID string
	PlayerBID string
}

// MatchmakingQueue is the in-memory waiting list. Pairing is strict
// first-come-first-served: the two longest-waiting players are matched.
//
// Two locks, by design: mu guards queue membership, matchingMu serializes
// pairing decisions. A match decision spans several steps (read candidates,
// persist the session, dequeue both players) and must not interleave with
// another decision, while plain enqueue/dequeue must not stall behind a slow
// persistence call. Acquisition order when both are needed is matchingMu
// first, then mu — never the reverse.
type MatchmakingQueue struct {
	mu         sync.Mutex // queue mutation lock
	matchingMu sync.Mutex // pairing decision lock
	order      []string
	players    map[string]*QueuedPlayer

	store    MatchStore
	notifier *MatchNotifier

	// QueueTimeout is how long a player may wait before the cleanup sweep
	// drops them. SocketPollInterval/SocketPollMax bound the wait for the
	// player's matchmaking channel before a match attempt proceeds anyway.
	QueueTimeout       time.Duration
	SocketPollInterval time.Duration
	SocketPollMax      time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

func NewMatchmakingQueue(store MatchStore, notifier *MatchNotifier) *MatchmakingQueue {
	return &MatchmakingQueue{
		order:              make([]string, 0),
		players:            make(map[string]*QueuedPlayer),
		store:              store,
		notifier:           notifier,
		QueueTimeout:       5 * time.Minute,
		SocketPollInterval: 100 * time.Millisecond,
		SocketPollMax:      3 * time.Second,
		done:               make(chan struct{}),
	}
}

// AddPlayer enqueues a player at the tail. Returns false when the player is
// already queued (idempotent rejoin, not an error). On success it schedules an
// asynchronous match attempt, deferred until the player's matchmaking channel
// registers or SocketPollMax elapses.
func (q *MatchmakingQueue) AddPlayer(p QueuedPlayer) bool {
	q.mu.Lock()
	if _, exists := q.players[p.PlayerID]; exists {
		q.mu.Unlock()
		log.Printf("[Matchmaking] Player %s already in queue, rejoin ignored", p.PlayerID)
		return false
	}
	if p.QueuedAt.IsZero() {
		p.QueuedAt = time.Now()
	}
	entry := p
	q.players[p.PlayerID] = &entry
	q.order = append(q.order, p.PlayerID)
	size := len(q.order)
	q.mu.Unlock()

	log.Printf("[Matchmaking] Player %s joined queue (size: %d)", p.PlayerID, size)

	go q.waitForSocketThenMatch(p.PlayerID)
	return true
}

// RemovePlayer dequeues a player. Returns false when absent. Used for explicit
// leave, for the two players consumed by a match, and by the staleness sweep.
func (q *MatchmakingQueue) RemovePlayer(playerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(playerID)
}

func (q *MatchmakingQueue) removeLocked(playerID string) bool {
	if _, exists := q.players[playerID]; !exists {
		return false
	}
	delete(q.players, playerID)
	for i, id := range q.order {
		if id == playerID {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	log.Printf("[Matchmaking] Player %s removed from queue", playerID)
	return true
}

// Status reports a player's FIFO position (1-indexed) and a wait estimate:
// first in line waits ~30s for an opponent to arrive, second is about to be
// matched, deeper positions drain at roughly one pair per 30s.
func (q *MatchmakingQueue) Status(playerID string) QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	position := -1
	for i, id := range q.order {
		if id == playerID {
			position = i
			break
		}
	}
	if position < 0 {
		return QueueStatus{}
	}

	var wait int
	switch position {
	case 0:
		wait = 30
	case 1:
		wait = 5
	default:
		wait = (position / 2) * 30
		if wait < 10 {
			wait = 10
		}
	}

	return QueueStatus{
		InQueue:       true,
		QueuePosition: position + 1,
		EstimatedWait: wait,
	}
}

// Len reports the current queue size.
func (q *MatchmakingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Close stops the queue's background tasks.
func (q *MatchmakingQueue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

// waitForSocketThenMatch polls for the player's matchmaking channel before
// trying a match, so MATCH_FOUND is not sent before the client can receive
// it. If the channel never shows up within SocketPollMax the attempt proceeds
// anyway — a missed notification beats a stuck queue.
func (q *MatchmakingQueue) waitForSocketThenMatch(playerID string) {
	deadline := time.Now().Add(q.SocketPollMax)
	for {
		if q.notifier.IsRegistered(playerID) {
			break
		}
		if time.Now().After(deadline) {
			log.Printf("[Matchmaking] Player %s channel not registered after %v, matching anyway", playerID, q.SocketPollMax)
			break
		}
		select {
		case <-q.done:
			return
		case <-time.After(q.SocketPollInterval):
		}
	}
	q.TryMatch(playerID)
}

// TryMatch attempts one FIFO pairing. It is normally scheduled by AddPlayer
// but safe to call at any time; the playerID only gates the attempt (an
// already-dequeued player makes it a no-op), the pairing itself always takes
// the two earliest-queued players. Returns nil when no match was made.
func (q *MatchmakingQueue) TryMatch(playerID string) *MatchResult {
	q.matchingMu.Lock()
	defer q.matchingMu.Unlock()

	q.mu.Lock()
	if _, stillQueued := q.players[playerID]; !stillQueued {
		q.mu.Unlock()
		return nil
	}
	if len(q.order) < 2 {
		q.mu.Unlock()
		log.Printf("[Matchmaking] Not enough players for a match (queue size: %d)", len(q.order))
		return nil
	}
	first := *q.players[q.order[0]]
	second := *q.players[q.order[1]]
	q.mu.Unlock()

	exerciseID := first.ExerciseID
	if exerciseID == nil {
		exerciseID = second.ExerciseID
	}

	// Session creation is transactional with dequeueing: if it fails, both
	// players stay queued for the next attempt.
	gameID, err := q.store.CreateMatch(first.PlayerID, second.PlayerID, exerciseID)
	if err != nil {
		log.Printf("[Matchmaking] Failed to create match for %s vs %s: %v", first.PlayerID, second.PlayerID, err)
		return nil
	}

	q.RemovePlayer(first.PlayerID)
	q.RemovePlayer(second.PlayerID)

	log.Printf("[Matchmaking] Match %s created: %s vs %s", gameID, first.PlayerID, second.PlayerID)

	q.notifier.NotifyMatchFound(first.PlayerID, MatchFoundPayload{
		GameID:       gameID,
		PlayerID:     first.PlayerID,
		OpponentID:   second.PlayerID,
		OpponentName: q.username(second.PlayerID),
		ExerciseID:   exerciseID,
	})
	q.notifier.NotifyMatchFound(second.PlayerID, MatchFoundPayload{
		GameID:       gameID,
		PlayerID:     second.PlayerID,
		OpponentID:   first.PlayerID,
		OpponentName: q.username(first.PlayerID),
		ExerciseID:   exerciseID,
	})

	return &MatchResult{GameID: gameID, PlayerAID: first.PlayerID, PlayerBID: second.PlayerID}
}

func (q *MatchmakingQueue) username(playerID string) string {
	user, err := q.store.GetUser(playerID)
	if err != nil {
		return "Opponent"
	}
	return user.Username
}

// CleanupStalePlayers drops everyone who has waited longer than QueueTimeout.
// Driven by the periodic scheduler; this is the only unconditional cleanup
// path.
func (q *MatchmakingQueue) CleanupStalePlayers() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	var stale []string
	for id, p := range q.players {
		if now.Sub(p.QueuedAt) > q.QueueTimeout {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		q.removeLocked(id)
		log.Printf("[Matchmaking] Removed stale player %s from queue", id)
	}
	return len(stale)
}
