package handlers

import (
	"encoding/json"
	"log"
	"strings"

	"fitness-battle-system/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// WebSocketHandler owns the two realtime endpoints: the per-game battle socket
// and the matchmaking notification socket.
type WebSocketHandler struct {
	Games    *services.GameService
	Registry *services.ConnectionRegistry
	Notifier *services.MatchNotifier
	Store    services.MatchStore
}

func SetupWebSocketRoutes(app *fiber.App, h *WebSocketHandler) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/games/:game_id", websocket.New(h.handleGameSocket))
	app.Get("/ws/matchmaking/:player_id", websocket.New(h.handleMatchmakingSocket))
}

// inboundMessage defers payload decoding until the type is known.
type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// handleGameSocket serves one player's connection to a battle. Connection
// setup is rejected with a policy-violation close before any registration;
// after that, every per-message failure is answered in-band and the loop keeps
// serving.
func (h *WebSocketHandler) handleGameSocket(conn *websocket.Conn) {
	gameID := conn.Params("game_id")
	playerID := conn.Query("player_id")

	if playerID == "" {
		closeWithReason(conn, "player_id required in query params")
		return
	}

	session, err := h.Store.GetMatch(gameID)
	if err != nil {
		closeWithReason(conn, "Game not found")
		return
	}
	if !session.HasPlayer(playerID) {
		closeWithReason(conn, "Player not part of this game")
		return
	}

	client := newWSClient(conn)
	defer client.close()

	h.Registry.Connect(client, gameID, playerID)
	defer func() {
		h.Registry.Disconnect(gameID, playerID)
		log.Printf("[GameWS] Player %s disconnected from game %s", playerID, gameID)
	}()

	if state, err := h.Games.GameState(gameID); err == nil {
		client.Send(services.Envelope{Type: services.EventGameState, Payload: state})
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[GameWS] Read error for player %s in game %s: %v", playerID, gameID, err)
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			client.Send(services.Envelope{Type: services.EventError, Payload: "Invalid JSON"})
			continue
		}

		if err := h.dispatchGameMessage(client, gameID, playerID, msg); err != nil {
			log.Printf("[GameWS] Error handling %s from player %s: %v", msg.Type, playerID, err)
			client.Send(services.Envelope{Type: services.EventError, Payload: err.Error()})
		}
	}
}

func (h *WebSocketHandler) dispatchGameMessage(client *wsClient, gameID, playerID string, msg inboundMessage) error {
	switch msg.Type {
	case services.EventPing:
		client.Send(services.Envelope{Type: services.EventPong, Payload: map[string]any{}})
		return nil

	case services.EventRepIncrement:
		var p struct {
			RepCount int `json:"repCount"`
		}
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				return err
			}
		}
		return h.Games.HandleRepIncrement(gameID, playerID, p.RepCount)

	case services.EventRoundEnd:
		return h.Games.HandleRoundEnd(gameID)

	case services.EventRoundStart:
		var p struct {
			ExerciseID *string `json:"exerciseId"`
		}
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				return err
			}
		}
		return h.Games.StartNextRound(gameID, p.ExerciseID)

	case services.EventExerciseSelect:
		var p struct {
			ExerciseID string `json:"exerciseId"`
		}
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		if p.ExerciseID == "" {
			client.Send(services.Envelope{Type: services.EventError, Payload: "exerciseId required"})
			return nil
		}
		return h.Games.HandleExerciseSelected(gameID, p.ExerciseID)

	case services.EventPlayerReady:
		var p struct {
			IsReady bool `json:"isReady"`
		}
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		return h.Games.HandlePlayerReady(gameID, playerID, p.IsReady)

	default:
		// Unknown types are echoed back rather than dropped, which keeps
		// client protocol mistakes visible during development.
		client.Send(services.Envelope{
			Type:    services.EventEcho,
			Payload: map[string]any{"original": json.RawMessage(mustMarshal(msg))},
		})
		return nil
	}
}

// handleMatchmakingSocket keeps a waiting player reachable for MATCH_FOUND.
// The client has nothing meaningful to say here beyond keepalive pings.
func (h *WebSocketHandler) handleMatchmakingSocket(conn *websocket.Conn) {
	playerID := conn.Params("player_id")
	if playerID == "" {
		closeWithReason(conn, "player_id required")
		return
	}

	client := newWSClient(conn)
	defer client.close()

	h.Notifier.Register(playerID, client)
	defer func() {
		h.Notifier.Unregister(playerID)
		log.Printf("[MatchmakingWS] Player %s disconnected", playerID)
	}()

	log.Printf("[MatchmakingWS] Player %s connected", playerID)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if strings.TrimSpace(string(raw)) == services.EventPing {
			client.SendText(services.EventPong)
		}
	}
}

func closeWithReason(conn *websocket.Conn, reason string) {
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason))
	conn.Close()
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
