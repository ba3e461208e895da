package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/usecase"
)

const (
	ActionGameNew     = "game:new"
	ActionGameGet     = "game:get"
	ActionGameTurn    = "game:turn"
	ActionGameJump    = "game:jump"
	ActionGameRestart = "game:restart"
	ActionGameHint    = "game:hint"
	ActionGameBotTurn = "game:bot-turn"
	ActionError       = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RequestPayload - game_id may be omitted once the connection has created or loaded a game.
type RequestPayload struct {
	GameID string `json:"game_id,omitempty"`
	Mark   string `json:"mark,omitempty"`
	Cell   *int   `json:"cell,omitempty"`
	Step   *int   `json:"step,omitempty"`
}

type ResponsePayload struct {
	Game  *entity.Game  `json:"game,omitempty"`
	Hint  *usecase.Hint `json:"hint,omitempty"`
	Cell  *int          `json:"cell,omitempty"`
	Error string        `json:"error,omitempty"`
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
