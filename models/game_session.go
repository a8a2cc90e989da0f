package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	GameStatusWaiting  = "waiting"
	GameStatusActive   = "active"
	GameStatusRoundEnd = "round_end"
	GameStatusFinished = "finished"
)

// GameSession records a battle between two players. It is created by matchmaking
// in the waiting state and mutated by the game service on every round event.
// Sessions are never deleted; finished ones stay as the archival match history.
//
// Status transitions: waiting → active → round_end → active (next round) or
// finished (terminal). Scores are per-round and reset on round start; rounds-won
// counters only ever go up.
type GameSession struct {
	ID                string  `gorm:"primaryKey;type:uuid" json:"id"`
	PlayerAID         string  `gorm:"index;not null" json:"player_a_id"`
	PlayerBID         string  `gorm:"index;not null" json:"player_b_id"`
	PlayerAScore      int     `gorm:"default:0" json:"player_a_score"`
	PlayerBScore      int     `gorm:"default:0" json:"player_b_score"`
	PlayerARoundsWon  int     `gorm:"default:0" json:"player_a_rounds_won"`
	PlayerBRoundsWon  int     `gorm:"default:0" json:"player_b_rounds_won"`
	CurrentRound      int     `gorm:"default:1" json:"current_round"`
	Status            string  `gorm:"default:waiting" json:"status"`
	CurrentExerciseID *string `gorm:"index" json:"current_exercise_id,omitempty"`

	Timestamps
}

func (g *GameSession) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// HasPlayer reports whether the given player holds one of the two seats.
func (g *GameSession) HasPlayer(playerID string) bool {
	return g.PlayerAID == playerID || g.PlayerBID == playerID
}

// OpponentOf returns the other seat's player id, or "" for a non-participant.
func (g *GameSession) OpponentOf(playerID string) string {
	switch playerID {
	case g.PlayerAID:
		return g.PlayerBID
	case g.PlayerBID:
		return g.PlayerAID
	}
	return ""
}
