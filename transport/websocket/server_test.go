package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/repository"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/service"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type response struct {
	Action  string
	Payload ResponsePayload
}

func dial(t *testing.T, botDelay time.Duration) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := usecase.NewGameManager(logger, repository.NewMemoryGameRepository(), service.NewBotService())

	srv := httptest.NewServer(New(logger, manager, botDelay).Handler(ctx))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()

	msg := Message{Action: action}
	if payload != nil {
		msg.Payload = mustMarshal(payload)
	}

	require.NoError(t, conn.WriteJSON(msg))
}

func receive(t *testing.T, conn *websocket.Conn) response {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))

	resp := response{Action: msg.Action}
	require.NoError(t, json.Unmarshal(msg.Payload, &resp.Payload))

	return resp
}

func cell(n int) *int { return &n }

func TestServer_GameFlow(t *testing.T) {
	conn := dial(t, 10*time.Millisecond)

	// Given: a new game with the human as X
	send(t, conn, ActionGameNew, RequestPayload{Mark: "X"})

	resp := receive(t, conn)
	require.Equal(t, ActionGameNew, resp.Action)
	require.NotNil(t, resp.Payload.Game)
	gameID := resp.Payload.Game.ID

	// When: the human takes a corner
	send(t, conn, ActionGameTurn, RequestPayload{Cell: cell(0)})

	// Then: the human move is confirmed before the adversary answers
	resp = receive(t, conn)
	require.Equal(t, ActionGameTurn, resp.Action)
	assert.Equal(t, entity.PlayerX, resp.Payload.Game.Board[0])
	assert.Equal(t, entity.PlayerO, resp.Payload.Game.Turn)

	// And: the adversary move is pushed after the delay
	resp = receive(t, conn)
	require.Equal(t, ActionGameBotTurn, resp.Action)
	require.NotNil(t, resp.Payload.Cell)
	assert.Equal(t, 4, *resp.Payload.Cell)
	assert.Equal(t, entity.PlayerX, resp.Payload.Game.Turn)

	// When: asking for a hint on the explicit game id
	send(t, conn, ActionGameHint, RequestPayload{GameID: gameID})

	resp = receive(t, conn)
	require.Equal(t, ActionGameHint, resp.Action)
	require.NotNil(t, resp.Payload.Hint)
	assert.Len(t, resp.Payload.Hint.Moves, 7)

	// When: loading the game
	send(t, conn, ActionGameGet, nil)

	resp = receive(t, conn)
	require.Equal(t, ActionGameGet, resp.Action)
	assert.Equal(t, 2, resp.Payload.Game.Step)

	// When: restarting
	send(t, conn, ActionGameRestart, nil)

	resp = receive(t, conn)
	require.Equal(t, ActionGameRestart, resp.Action)
	assert.Equal(t, []entity.Board{{}}, resp.Payload.Game.History)
}

func TestServer_JumpLetsTheBotAnswer(t *testing.T) {
	conn := dial(t, 0)

	send(t, conn, ActionGameNew, nil)
	receive(t, conn)

	send(t, conn, ActionGameTurn, RequestPayload{Cell: cell(8)})
	receive(t, conn)
	receive(t, conn)

	// When: jumping back to the position after the human move
	send(t, conn, ActionGameJump, RequestPayload{Step: cell(1)})

	// Then: the jump is confirmed and the adversary replays its answer
	resp := receive(t, conn)
	require.Equal(t, ActionGameJump, resp.Action)
	assert.Equal(t, 1, resp.Payload.Game.Step)

	resp = receive(t, conn)
	require.Equal(t, ActionGameBotTurn, resp.Action)
	assert.Equal(t, 4, *resp.Payload.Cell)
	assert.Len(t, resp.Payload.Game.History, 3)
}

func TestServer_Errors(t *testing.T) {
	conn := dial(t, time.Hour)

	t.Run("Unknown action", func(t *testing.T) {
		send(t, conn, "game:leave", nil)

		resp := receive(t, conn)
		assert.Equal(t, "game:leave", resp.Action)
		assert.Equal(t, "unknown action", resp.Payload.Error)
	})

	t.Run("Turn without a game", func(t *testing.T) {
		send(t, conn, ActionGameTurn, RequestPayload{Cell: cell(0)})

		resp := receive(t, conn)
		assert.Equal(t, errGameRequired.Error(), resp.Payload.Error)
	})

	t.Run("Unknown game", func(t *testing.T) {
		send(t, conn, ActionGameGet, RequestPayload{GameID: "missing"})

		resp := receive(t, conn)
		assert.Contains(t, resp.Payload.Error, "not found")
	})

	t.Run("Invalid mark", func(t *testing.T) {
		send(t, conn, ActionGameNew, RequestPayload{Mark: "Z"})

		resp := receive(t, conn)
		assert.Contains(t, resp.Payload.Error, "invalid mark")
	})

	t.Run("Turn out of order", func(t *testing.T) {
		// Given: a game where the human moved and the adversary is still waiting
		send(t, conn, ActionGameNew, nil)
		receive(t, conn)
		send(t, conn, ActionGameTurn, RequestPayload{Cell: cell(0)})
		receive(t, conn)

		// When: the human moves again
		send(t, conn, ActionGameTurn, RequestPayload{Cell: cell(1)})

		// Then: the move is rejected
		resp := receive(t, conn)
		assert.Equal(t, ActionGameTurn, resp.Action)
		assert.Contains(t, resp.Payload.Error, "not your turn")
	})

	t.Run("Malformed message", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))

		resp := receive(t, conn)
		assert.Equal(t, ActionError, resp.Action)
	})
}
