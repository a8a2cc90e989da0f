package services

// Realtime message types. Every frame on the wire, both directions, is an
// Envelope of {type, payload}.
const (
	EventGameState       = "GAME_STATE"
	EventRepIncrement    = "REP_INCREMENT"
	EventRoundEnd        = "ROUND_END"
	EventRoundStart      = "ROUND_START"
	EventFormRules       = "FORM_RULES"
	EventReadyPhaseStart = "READY_PHASE_START"
	EventCountdownStart  = "COUNTDOWN_START"
	EventPlayerReady     = "PLAYER_READY"
	EventMatchFound      = "MATCH_FOUND"
	EventExerciseSelect  = "EXERCISE_SELECTED"
	EventPing            = "PING"
	EventPong            = "PONG"
	EventError           = "ERROR"
	EventEcho            = "ECHO"
)

// Envelope is the realtime wire format.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
