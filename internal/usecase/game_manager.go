package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/minimax"
)

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type botService interface {
	MakeTurn(game *entity.Game) (int, error)
}

// Hint - search values of the human's legal moves and the move the search would pick.
type Hint struct {
	Side     entity.Mark         `json:"side"`
	BestMove int                 `json:"best_move"`
	Moves    []minimax.MoveScore `json:"moves"`
}

type GameManager struct {
	logger     *slog.Logger
	gameRepo   gameRepo
	botService botService

	newID func() string
	locks sync.Map
}

func NewGameManager(logger *slog.Logger, gameRepo gameRepo, botService botService) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		gameRepo:   gameRepo,
		botService: botService,

		newID: uuid.NewString,
	}
}

// NewGame - starts a session for the human's mark. When the human picked O the bot
// opens immediately.
func (that *GameManager) NewGame(ctx context.Context, humanMark entity.Mark) (*entity.Game, error) {
	if !humanMark.IsPlayer() {
		return nil, fmt.Errorf("%w: %q", apperror.ErrInvalidMark, humanMark)
	}

	game := entity.NewGame(that.newID(), humanMark)

	if game.IsBotTurn() {
		if _, err := that.botService.MakeTurn(game); err != nil {
			return nil, fmt.Errorf("bot failed to make first turn: %w", err)
		}
	}

	if err := that.updateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	that.logger.Info("game created", "gameID", game.ID, "humanMark", humanMark)

	return game, nil
}

func (that *GameManager) GetGame(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

func (that *GameManager) DeleteGame(ctx context.Context, id string) error {
	defer that.lock(id)()
	defer that.locks.Delete(id)

	if err := that.gameRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	that.logger.Info("game deleted", "gameID", id)

	return nil
}

// MakeTurn - applies the human move only. The adversary reply is left to the caller.
func (that *GameManager) MakeTurn(ctx context.Context, id string, cell int) (*entity.Game, error) {
	defer that.lock(id)()

	game, err := that.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}

	if err = game.MakeTurn(game.HumanMark, cell); err != nil {
		return game, fmt.Errorf("failed to make turn: %w", err)
	}

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	that.logFinished(game)

	return game, nil
}

// BotTurn - lets the adversary answer on the stored game.
func (that *GameManager) BotTurn(ctx context.Context, id string) (*entity.Game, int, error) {
	defer that.lock(id)()

	game, err := that.GetGame(ctx, id)
	if err != nil {
		return nil, -1, err
	}

	cell, err := that.botService.MakeTurn(game)
	if err != nil {
		return game, -1, fmt.Errorf("bot failed to make turn: %w", err)
	}

	if err = that.updateGame(ctx, game); err != nil {
		return nil, -1, err
	}

	that.logger.Debug("bot turn", "gameID", game.ID, "cell", cell)
	that.logFinished(game)

	return game, cell, nil
}

// PlayTurn - the human move followed by the adversary reply when the game goes on.
func (that *GameManager) PlayTurn(ctx context.Context, id string, cell int) (*entity.Game, error) {
	game, err := that.MakeTurn(ctx, id, cell)
	if err != nil {
		return game, err
	}

	if !game.IsBotTurn() {
		return game, nil
	}

	game, _, err = that.BotTurn(ctx, id)
	if err != nil {
		return game, err
	}

	return game, nil
}

func (that *GameManager) JumpTo(ctx context.Context, id string, step int) (*entity.Game, error) {
	defer that.lock(id)()

	game, err := that.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}

	if err = game.JumpTo(step); err != nil {
		return game, fmt.Errorf("failed to jump: %w", err)
	}

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	return game, nil
}

// Restart - clears the history. The bot opens again when it holds X.
func (that *GameManager) Restart(ctx context.Context, id string) (*entity.Game, error) {
	defer that.lock(id)()

	game, err := that.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}

	game.Restart()

	if game.IsBotTurn() {
		if _, err = that.botService.MakeTurn(game); err != nil {
			return nil, fmt.Errorf("bot failed to make first turn: %w", err)
		}
	}

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	return game, nil
}

// Hint - analyzes the current board for the human's mark.
func (that *GameManager) Hint(ctx context.Context, id string) (*Hint, error) {
	game, err := that.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}

	if !game.IsHumanTurn() {
		if game.IsFinished() {
			return nil, apperror.ErrGameFinished
		}
		return nil, apperror.ErrNotYourTurn
	}

	scores, err := minimax.Analyze(game.Current(), game.HumanMark)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze board: %w", err)
	}

	best := minimax.Best(scores, game.HumanMark)

	return &Hint{Side: game.HumanMark, BestMove: best.Cell, Moves: scores}, nil
}

// lock - serializes read-modify-write cycles on one game.
func (that *GameManager) lock(id string) func() {
	value, _ := that.locks.LoadOrStore(id, &sync.Mutex{})
	mu := value.(*sync.Mutex) //nolint: forcetypeassert // only mutexes are stored

	mu.Lock()

	return mu.Unlock
}

func (that *GameManager) updateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}

func (that *GameManager) logFinished(game *entity.Game) {
	if game.IsFinished() {
		that.logger.Info("game finished", "gameID", game.ID, "winner", game.Winner)
	}
}
