package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type gameUseCase interface {
	NewGame(ctx context.Context, humanMark entity.Mark) (*entity.Game, error)
	GetGame(ctx context.Context, id string) (*entity.Game, error)

	MakeTurn(ctx context.Context, id string, cell int) (*entity.Game, error)
	BotTurn(ctx context.Context, id string) (*entity.Game, int, error)
	JumpTo(ctx context.Context, id string, step int) (*entity.Game, error)
	Restart(ctx context.Context, id string) (*entity.Game, error)
	Hint(ctx context.Context, id string) (*usecase.Hint, error)
}

type handlerFunc func(ctx context.Context, client *client, msg *Message) error

type Server struct {
	logger      *slog.Logger
	gameUseCase gameUseCase
	botDelay    time.Duration

	upgrader websocket.Upgrader
	handlers map[string]handlerFunc
}

// New - botDelay is how long the adversary waits before answering a human move.
func New(logger *slog.Logger, gameUseCase gameUseCase, botDelay time.Duration) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		gameUseCase: gameUseCase,
		botDelay:    botDelay,

		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	server.handlers = map[string]handlerFunc{
		ActionGameNew:     server.handleNewGame,
		ActionGameGet:     server.handleGetGame,
		ActionGameTurn:    server.handleGameTurn,
		ActionGameJump:    server.handleGameJump,
		ActionGameRestart: server.handleGameRestart,
		ActionGameHint:    server.handleGameHint,
	}

	return server
}

// Handler - serves the websocket endpoint on /ws. Connections and scheduled adversary
// moves end when ctx is canceled.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx) //nolint: contextcheck // parent is already canceled
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := newClient(conn)

	go func() {
		defer cancel()

		if err := c.writeWithHeartbeat(ctx); err != nil {
			log.Debug("writer stopped", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	log.Info("WebSocket connection established", "remoteAddr", r.RemoteAddr)

	that.handleMessages(ctx, c)

	log.Info("WebSocket connection closed", "remoteAddr", r.RemoteAddr)
}

// handleMessages - processes messages from the client until the connection drops.
func (that *Server) handleMessages(ctx context.Context, c *client) {
	log := that.logger.With("method", "handleMessages")

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Debug("failed to unmarshal message", "error", err)
			c.sendError(ActionError, "invalid message")
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			c.sendError(message.Action, "unknown action")
			continue
		}

		if err = handler(ctx, c, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}
