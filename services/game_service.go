package services

import (
	"fmt"
	"log"
	"time"

	"fitness-battle-system/models"
)

const (
	readyPhaseSeconds = 10
	countdownSeconds  = 5
)

// GameService drives the per-match round state machine
// (waiting → active → round_end → active … → finished) and broadcasts every
// transition through the connection registry. Within one call broadcasts are
// ordered (event first, then the GAME_STATE snapshot); independent games have
// no ordering relationship.
type GameService struct {
	Store    MatchStore
	Registry *ConnectionRegistry
	Ready    *ReadyCoordinator
	Advisor  Advisor
}

func NewGameService(store MatchStore, registry *ConnectionRegistry, ready *ReadyCoordinator, advisor Advisor) *GameService {
	return &GameService{
		Store:    store,
		Registry: registry,
		Ready:    ready,
		Advisor:  advisor,
	}
}

// PlayerState is one seat in a GAME_STATE snapshot.
type PlayerState struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
}

// GameStatePayload is the full game snapshot broadcast after every transition.
type GameStatePayload struct {
	GameID       string      `json:"gameId"`
	PlayerA      PlayerState `json:"playerA"`
	PlayerB      PlayerState `json:"playerB"`
	CurrentRound int         `json:"currentRound"`
	Status       string      `json:"status"`
	ExerciseID   *string     `json:"exerciseId,omitempty"`
}

// RoundEndPayload carries the round verdict plus the advisory narrative and
// next-round strategy.
type RoundEndPayload struct {
	GameID           string   `json:"gameId"`
	WinnerID         string   `json:"winnerId,omitempty"`
	LoserID          string   `json:"loserId,omitempty"`
	PlayerAScore     int      `json:"playerAScore"`
	PlayerBScore     int      `json:"playerBScore"`
	PlayerARoundsWon int      `json:"playerARoundsWon"`
	PlayerBRoundsWon int      `json:"playerBRoundsWon"`
	CurrentRound     int      `json:"currentRound"`
	GameOver         bool     `json:"gameOver"`
	MatchWinnerID    string   `json:"matchWinnerId,omitempty"`
	Narrative        string   `json:"narrative"`
	Strategy         Strategy `json:"strategy"`
}

// TimedPhasePayload synchronizes a client-side countdown off a single server
// timestamp, avoiding any clock-sync assumptions beyond it.
type TimedPhasePayload struct {
	GameID     string `json:"gameId"`
	ServerTime int64  `json:"serverTime"` // unix millis
	Duration   int    `json:"duration"`   // seconds
}

// GameState builds the current snapshot for a match, used for the initial
// push when a player connects.
func (s *GameService) GameState(gameID string) (*GameStatePayload, error) {
	session, err := s.Store.GetMatch(gameID)
	if err != nil {
		return nil, err
	}
	payload := statePayload(session)
	return &payload, nil
}

// HandleRepIncrement applies a player's reported rep count. The count is
// absolute — the reported value replaces the stored score, it is not a delta.
// Valid while the match is waiting or active; the first update flips a waiting
// match to active. A player id that holds neither seat is ignored.
func (s *GameService) HandleRepIncrement(gameID, playerID string, repCount int) error {
	session, err := s.Store.GetMatch(gameID)
	if err != nil {
		return err
	}

	if session.Status != models.GameStatusWaiting && session.Status != models.GameStatusActive {
		return nil
	}

	switch playerID {
	case session.PlayerAID:
		session.PlayerAScore = repCount
	case session.PlayerBID:
		session.PlayerBScore = repCount
	default:
		return nil // stale or malicious sender, drop it
	}

	if session.Status == models.GameStatusWaiting {
		session.Status = models.GameStatusActive
	}

	if err := s.Store.SaveMatch(session); err != nil {
		return fmt.Errorf("save rep update: %w", err)
	}

	s.Registry.Broadcast(Envelope{
		Type: EventRepIncrement,
		Payload: map[string]any{
			"playerId": playerID,
			"repCount": repCount,
		},
	}, gameID, playerID)

	s.broadcastState(session)
	return nil
}

// HandleRoundEnd scores the round: the higher scorer takes a round win, equal
// scores are a tie nobody wins. Two round wins end the match (best of three).
// Round-end on a finished match is a no-op.
func (s *GameService) HandleRoundEnd(gameID string) error {
	session, err := s.Store.GetMatch(gameID)
	if err != nil {
		return err
	}

	if session.Status == models.GameStatusFinished {
		log.Printf("[Game] Ignoring round end for finished match %s", gameID)
		return nil
	}

	var winnerID, loserID string
	winnerScore, loserScore := session.PlayerAScore, session.PlayerBScore
	switch {
	case session.PlayerAScore > session.PlayerBScore:
		winnerID, loserID = session.PlayerAID, session.PlayerBID
		session.PlayerARoundsWon++
	case session.PlayerBScore > session.PlayerAScore:
		winnerID, loserID = session.PlayerBID, session.PlayerAID
		winnerScore, loserScore = session.PlayerBScore, session.PlayerAScore
		session.PlayerBRoundsWon++
	}

	gameOver := false
	var matchWinnerID string
	if session.PlayerARoundsWon >= 2 {
		gameOver = true
		matchWinnerID = session.PlayerAID
	} else if session.PlayerBRoundsWon >= 2 {
		gameOver = true
		matchWinnerID = session.PlayerBID
	}

	if gameOver {
		session.Status = models.GameStatusFinished
	} else {
		session.Status = models.GameStatusRoundEnd
	}

	if err := s.Store.SaveMatch(session); err != nil {
		return fmt.Errorf("save round end: %w", err)
	}

	narrativeWinner := winnerID
	if narrativeWinner == "" {
		narrativeWinner = "Tie"
	}
	narrative := s.Advisor.GenerateNarrative(RoundResult{
		Winner:      narrativeWinner,
		Loser:       loserID,
		WinnerScore: winnerScore,
		LoserScore:  loserScore,
		Round:       session.CurrentRound,
	})

	available, err := s.Store.ListExerciseNames()
	if err != nil || len(available) == 0 {
		available = []string{"push-ups", "pull-ups", "planks", "squats"}
	}

	// Weakness is a rough blowout heuristic for now; battle history would
	// refine it.
	weakness := ""
	if loserID == session.PlayerBID && float64(winnerScore) > float64(loserScore)*1.3 {
		weakness = "endurance"
	}

	strategy := s.Advisor.RecommendStrategy(session.PlayerAScore, session.PlayerBScore, weakness, available)
	if float64(session.PlayerAScore) > float64(session.PlayerBScore)*1.5 ||
		float64(session.PlayerBScore) > float64(session.PlayerAScore)*1.5 {
		strategy.DifficultyModifier = "harder"
	}

	s.Registry.Broadcast(Envelope{
		Type: EventRoundEnd,
		Payload: RoundEndPayload{
			GameID:           gameID,
			WinnerID:         winnerID,
			LoserID:          loserID,
			PlayerAScore:     session.PlayerAScore,
			PlayerBScore:     session.PlayerBScore,
			PlayerARoundsWon: session.PlayerARoundsWon,
			PlayerBRoundsWon: session.PlayerBRoundsWon,
			CurrentRound:     session.CurrentRound,
			GameOver:         gameOver,
			MatchWinnerID:    matchWinnerID,
			Narrative:        narrative,
			Strategy:         strategy,
		},
	}, gameID, "")

	s.broadcastState(session)
	return nil
}

// StartNextRound advances a match out of round_end: round counter up, scores
// back to zero, new exercise applied, status active. A match that has never
// had an exercise selected instead resets in place without touching the round
// counter — the first "round start" is really the first exercise landing.
func (s *GameService) StartNextRound(gameID string, exerciseID *string) error {
	session, err := s.Store.GetMatch(gameID)
	if err != nil {
		return err
	}

	switch {
	case session.Status == models.GameStatusFinished:
		return nil
	case session.Status == models.GameStatusRoundEnd:
		session.CurrentRound++
		session.PlayerAScore = 0
		session.PlayerBScore = 0
		if exerciseID != nil {
			session.CurrentExerciseID = exerciseID
		}
		session.Status = models.GameStatusActive
	case session.CurrentExerciseID == nil:
		// First round: the match was created without an exercise, so this is
		// setup rather than advancement.
		session.PlayerAScore = 0
		session.PlayerBScore = 0
		session.CurrentExerciseID = exerciseID
	default:
		return nil
	}

	if exerciseID != nil {
		// Readiness is scoped to the upcoming round only.
		s.Ready.Reset(gameID)
	}

	if err := s.Store.SaveMatch(session); err != nil {
		return fmt.Errorf("save round start: %w", err)
	}

	s.Registry.Broadcast(Envelope{
		Type: EventRoundStart,
		Payload: map[string]any{
			"gameId":       gameID,
			"currentRound": session.CurrentRound,
			"exerciseId":   session.CurrentExerciseID,
		},
	}, gameID, "")

	s.broadcastState(session)
	return nil
}

// HandleExerciseSelected resolves the chosen exercise, pushes its form-check
// rules to both players, applies any pending round reset, and opens the ready
// phase with a server-stamped 10s window.
func (s *GameService) HandleExerciseSelected(gameID, exerciseID string) error {
	session, err := s.Store.GetMatch(gameID)
	if err != nil {
		return err
	}

	exercise, err := s.Store.GetExercise(exerciseID)
	if err != nil {
		return fmt.Errorf("exercise %s: %w", exerciseID, err)
	}

	rules := s.Advisor.GenerateFormRules(exercise.Name)
	s.Registry.Broadcast(Envelope{
		Type: EventFormRules,
		Payload: map[string]any{
			"exercise_id":   exerciseID,
			"exercise_name": exercise.Name,
			"form_rules":    rules,
		},
	}, gameID, "")

	if session.Status == models.GameStatusRoundEnd || session.CurrentExerciseID == nil {
		if err := s.StartNextRound(gameID, &exerciseID); err != nil {
			return err
		}
	} else {
		session.CurrentExerciseID = &exerciseID
		s.Ready.Reset(gameID)
		if err := s.Store.SaveMatch(session); err != nil {
			return fmt.Errorf("save exercise selection: %w", err)
		}
	}

	s.Registry.Broadcast(Envelope{
		Type: EventReadyPhaseStart,
		Payload: TimedPhasePayload{
			GameID:     gameID,
			ServerTime: time.Now().UnixMilli(),
			Duration:   readyPhaseSeconds,
		},
	}, gameID, "")

	return nil
}

// HandlePlayerReady records a ready flag, tells the opponent, and fires the
// synchronized 5s countdown once both connected players are ready.
func (s *GameService) HandlePlayerReady(gameID, playerID string, isReady bool) error {
	session, err := s.Store.GetMatch(gameID)
	if err != nil {
		return err
	}
	if !session.HasPlayer(playerID) {
		return nil
	}

	bothReady := s.Ready.SetReady(gameID, playerID, isReady)

	// The sender already knows its own state.
	s.Registry.Broadcast(Envelope{
		Type: EventPlayerReady,
		Payload: map[string]any{
			"playerId": playerID,
			"isReady":  isReady,
		},
	}, gameID, playerID)

	if bothReady {
		log.Printf("[Game] Both players ready in game %s, starting countdown", gameID)
		s.Registry.Broadcast(Envelope{
			Type: EventCountdownStart,
			Payload: TimedPhasePayload{
				GameID:     gameID,
				ServerTime: time.Now().UnixMilli(),
				Duration:   countdownSeconds,
			},
		}, gameID, "")
	}
	return nil
}

func (s *GameService) broadcastState(session *models.GameSession) {
	s.Registry.Broadcast(Envelope{
		Type:    EventGameState,
		Payload: statePayload(session),
	}, session.ID, "")
}

func statePayload(session *models.GameSession) GameStatePayload {
	return GameStatePayload{
		GameID:       session.ID,
		PlayerA:      PlayerState{ID: session.PlayerAID, Score: session.PlayerAScore},
		PlayerB:      PlayerState{ID: session.PlayerBID, Score: session.PlayerBScore},
		CurrentRound: session.CurrentRound,
		Status:       session.Status,
		ExerciseID:   session.CurrentExerciseID,
	}
}
