package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/minimax"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/usecase"
)

type gameUseCase interface {
	NewGame(ctx context.Context, humanMark entity.Mark) (*entity.Game, error)
	GetGame(ctx context.Context, id string) (*entity.Game, error)
	DeleteGame(ctx context.Context, id string) error

	PlayTurn(ctx context.Context, id string, cell int) (*entity.Game, error)
	BotTurn(ctx context.Context, id string) (*entity.Game, int, error)
	JumpTo(ctx context.Context, id string, step int) (*entity.Game, error)
	Restart(ctx context.Context, id string) (*entity.Game, error)
	Hint(ctx context.Context, id string) (*usecase.Hint, error)
}

type handlers struct {
	logger      *slog.Logger
	gameUseCase gameUseCase
}

func newHandlers(logger *slog.Logger, gameUseCase gameUseCase) *handlers {
	return &handlers{
		logger:      logger.With("component", "rest"),
		gameUseCase: gameUseCase,
	}
}

type createGameRequest struct {
	Mark string `json:"mark"`
}

type turnRequest struct {
	Cell *int `json:"cell"`
}

type jumpRequest struct {
	Step *int `json:"step"`
}

type boardResponse struct {
	Board      string         `json:"board"`
	SideToMove entity.Mark    `json:"side_to_move"`
	LegalMoves []int          `json:"legal_moves"`
	Terminal   bool           `json:"terminal"`
	Outcome    entity.Outcome `json:"outcome"`
}

type bestMoveResponse struct {
	Board string              `json:"board"`
	Side  entity.Mark         `json:"side"`
	Move  int                 `json:"move"`
	Moves []minimax.MoveScore `json:"moves"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// describeBoard - Board State queries for ?board=XX_O_____.
func (that *handlers) describeBoard(w http.ResponseWriter, r *http.Request) {
	board, err := entity.ParseBoard(r.URL.Query().Get("board"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, boardResponse{
		Board:      board.String(),
		SideToMove: board.SideToMove(),
		LegalMoves: board.LegalMoves(),
		Terminal:   board.IsTerminal(),
		Outcome:    board.Outcome(),
	})
}

// bestMove - stateless search for ?board=...&side=X|O, side defaults to O.
func (that *handlers) bestMove(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	board, err := entity.ParseBoard(query.Get("board"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	side := entity.PlayerO
	if raw := query.Get("side"); raw != "" {
		if side, err = entity.ParseMark(raw); err != nil {
			that.writeError(w, err)
			return
		}
	}

	scores, err := minimax.Analyze(board, side)
	if err != nil {
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bestMoveResponse{
		Board: board.String(),
		Side:  side,
		Move:  minimax.Best(scores, side).Cell,
		Moves: scores,
	})
}

func (that *handlers) createGame(w http.ResponseWriter, r *http.Request) {
	req := createGameRequest{Mark: string(entity.PlayerX)}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}

	mark, err := entity.ParseMark(req.Mark)
	if err != nil {
		that.writeError(w, err)
		return
	}

	game, err := that.gameUseCase.NewGame(r.Context(), mark)
	if err != nil {
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, game)
}

func (that *handlers) getGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.gameUseCase.GetGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

func (that *handlers) deleteGame(w http.ResponseWriter, r *http.Request) {
	if err := that.gameUseCase.DeleteGame(r.Context(), chi.URLParam(r, "id")); err != nil {
		that.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) makeTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Cell == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "cell is required"})
		return
	}

	game, err := that.gameUseCase.PlayTurn(r.Context(), chi.URLParam(r, "id"), *req.Cell)
	if err != nil {
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

func (that *handlers) jumpTo(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Step == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "step is required"})
		return
	}

	game, err := that.gameUseCase.JumpTo(r.Context(), chi.URLParam(r, "id"), *req.Step)
	if err != nil {
		that.writeError(w, err)
		return
	}

	// a step where the adversary is to move is answered right away
	if game.IsBotTurn() {
		if game, _, err = that.gameUseCase.BotTurn(r.Context(), game.ID); err != nil {
			that.writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, game)
}

func (that *handlers) restart(w http.ResponseWriter, r *http.Request) {
	game, err := that.gameUseCase.Restart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

func (that *handlers) hint(w http.ResponseWriter, r *http.Request) {
	hint, err := that.gameUseCase.Hint(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, hint)
}

func (that *handlers) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "error", err)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrInvalidMove),
		errors.Is(err, apperror.ErrInvalidBoard),
		errors.Is(err, apperror.ErrInvalidMark),
		errors.Is(err, apperror.ErrInvalidStep):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrNoLegalMove):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
