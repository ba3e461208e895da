package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/repository"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errRedisDown = errors.New("redis down")

type mockGameRepo struct {
	mock.Mock
}

func (that *mockGameRepo) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	args := that.Called(ctx, game)
	return args.Error(0)
}

func (that *mockGameRepo) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	args := that.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameRepo) DeleteByID(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

func newTestManager(repo gameRepo) *GameManager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	manager := NewGameManager(logger, repo, service.NewBotService())
	manager.newID = func() string { return "game-1" }

	return manager
}

func TestGameManager_NewGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Human as X waits for the first move", func(t *testing.T) {
		// Given: a manager over the memory repository
		repo := repository.NewMemoryGameRepository()
		manager := newTestManager(repo)

		// When: the human picks X
		game, err := manager.NewGame(ctx, entity.PlayerX)

		// Then: the game is stored on the empty board
		require.NoError(t, err)
		assert.Equal(t, "game-1", game.ID)
		assert.Equal(t, entity.Board{}, game.Board)
		assert.True(t, game.IsHumanTurn())

		stored, err := repo.GetByID(ctx, "game-1")
		require.NoError(t, err)
		assert.Equal(t, game.History, stored.History)
	})

	t.Run("Human as O lets the bot open", func(t *testing.T) {
		manager := newTestManager(repository.NewMemoryGameRepository())

		game, err := manager.NewGame(ctx, entity.PlayerO)

		require.NoError(t, err)
		assert.Len(t, game.History, 2)
		assert.Equal(t, entity.PlayerX, game.Board[0])
		assert.True(t, game.IsHumanTurn())
	})

	t.Run("Error on invalid mark", func(t *testing.T) {
		manager := newTestManager(repository.NewMemoryGameRepository())

		_, err := manager.NewGame(ctx, entity.EmptyCell)

		require.ErrorIs(t, err, apperror.ErrInvalidMark)
	})

	t.Run("Error when storage fails", func(t *testing.T) {
		// Given: a repository that cannot write
		repo := &mockGameRepo{}
		repo.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.Game")).Return(errRedisDown).Once()
		manager := newTestManager(repo)

		// When: creating a game
		game, err := manager.NewGame(ctx, entity.PlayerX)

		// Then: the storage error is returned
		require.ErrorIs(t, err, errRedisDown)
		assert.Nil(t, game)
		repo.AssertExpectations(t)
	})
}

func TestGameManager_PlayTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("Human move is answered by the bot", func(t *testing.T) {
		// Given: a new game with the human as X
		manager := newTestManager(repository.NewMemoryGameRepository())
		_, err := manager.NewGame(ctx, entity.PlayerX)
		require.NoError(t, err)

		// When: the human takes a corner
		game, err := manager.PlayTurn(ctx, "game-1", 0)

		// Then: the bot answers in the centre
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, game.Board[0])
		assert.Equal(t, entity.PlayerO, game.Board[4])
		assert.Equal(t, 2, game.Step)
		assert.True(t, game.IsHumanTurn())
	})

	t.Run("Bot never loses a whole game", func(t *testing.T) {
		// Given: a human who always plays the lowest free cell
		manager := newTestManager(repository.NewMemoryGameRepository())
		game, err := manager.NewGame(ctx, entity.PlayerX)
		require.NoError(t, err)

		// When: playing until the end
		for !game.IsFinished() {
			game, err = manager.PlayTurn(ctx, "game-1", game.Current().LegalMoves()[0])
			require.NoError(t, err)
		}

		// Then: X did not win
		assert.NotEqual(t, string(entity.PlayerX), game.Winner)
	})

	t.Run("Error on occupied cell", func(t *testing.T) {
		manager := newTestManager(repository.NewMemoryGameRepository())
		_, err := manager.NewGame(ctx, entity.PlayerX)
		require.NoError(t, err)
		_, err = manager.PlayTurn(ctx, "game-1", 0)
		require.NoError(t, err)

		_, err = manager.PlayTurn(ctx, "game-1", 4)

		require.ErrorIs(t, err, apperror.ErrInvalidMove)
	})

	t.Run("Error on unknown game", func(t *testing.T) {
		manager := newTestManager(repository.NewMemoryGameRepository())

		_, err := manager.PlayTurn(ctx, "missing", 0)

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestGameManager_TurnsSeparately(t *testing.T) {
	ctx := context.Background()

	// Given: a new game with the human as X
	manager := newTestManager(repository.NewMemoryGameRepository())
	_, err := manager.NewGame(ctx, entity.PlayerX)
	require.NoError(t, err)

	// When: the human moves without the bot reply
	game, err := manager.MakeTurn(ctx, "game-1", 4)
	require.NoError(t, err)
	require.True(t, game.IsBotTurn())

	// Then: a second human move is out of turn
	_, err = manager.MakeTurn(ctx, "game-1", 0)
	require.ErrorIs(t, err, apperror.ErrNotYourTurn)

	// And: the bot reply is applied on request
	game, cell, err := manager.BotTurn(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, 0, cell)
	assert.True(t, game.IsHumanTurn())

	// And: the bot refuses to move twice
	_, _, err = manager.BotTurn(ctx, "game-1")
	require.ErrorIs(t, err, apperror.ErrNotYourTurn)
}

func TestGameManager_JumpToAndRestart(t *testing.T) {
	ctx := context.Background()

	// Given: a game with two full rounds played
	manager := newTestManager(repository.NewMemoryGameRepository())
	_, err := manager.NewGame(ctx, entity.PlayerX)
	require.NoError(t, err)
	_, err = manager.PlayTurn(ctx, "game-1", 0)
	require.NoError(t, err)
	_, err = manager.PlayTurn(ctx, "game-1", 8)
	require.NoError(t, err)

	// When: jumping back to the start
	game, err := manager.JumpTo(ctx, "game-1", 0)

	// Then: the empty board is current and the history is kept
	require.NoError(t, err)
	assert.Equal(t, entity.Board{}, game.Board)
	assert.Len(t, game.History, 5)

	// When: jumping past the end
	_, err = manager.JumpTo(ctx, "game-1", 5)

	// Then: ErrInvalidStep is returned
	require.ErrorIs(t, err, apperror.ErrInvalidStep)

	// When: restarting
	game, err = manager.Restart(ctx, "game-1")

	// Then: only the empty board remains
	require.NoError(t, err)
	assert.Equal(t, []entity.Board{{}}, game.History)
}

func TestGameManager_Hint(t *testing.T) {
	ctx := context.Background()

	t.Run("Scores the human's moves", func(t *testing.T) {
		// Given: the human (O) to move after the bot opened in the corner
		manager := newTestManager(repository.NewMemoryGameRepository())
		_, err := manager.NewGame(ctx, entity.PlayerO)
		require.NoError(t, err)

		// When: asking for a hint
		hint, err := manager.Hint(ctx, "game-1")

		// Then: the centre is the only drawing reply
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerO, hint.Side)
		assert.Equal(t, 4, hint.BestMove)
		assert.Len(t, hint.Moves, 8)
	})

	t.Run("Error when the game is over", func(t *testing.T) {
		repo := &mockGameRepo{}
		finished := entity.NewGame("game-1", entity.PlayerX)
		finished.History = []entity.Board{{entity.PlayerX, entity.PlayerX, entity.PlayerX, entity.PlayerO, entity.PlayerO}}
		finished.UpdateGameState()
		repo.On("GetByID", mock.Anything, "game-1").Return(finished, nil).Once()
		manager := newTestManager(repo)

		_, err := manager.Hint(ctx, "game-1")

		require.ErrorIs(t, err, apperror.ErrGameFinished)
		repo.AssertExpectations(t)
	})
}

func TestGameManager_DeleteGame(t *testing.T) {
	ctx := context.Background()

	manager := newTestManager(repository.NewMemoryGameRepository())
	_, err := manager.NewGame(ctx, entity.PlayerX)
	require.NoError(t, err)

	require.NoError(t, manager.DeleteGame(ctx, "game-1"))

	_, err = manager.GetGame(ctx, "game-1")
	require.ErrorIs(t, err, apperror.ErrGameNotFound)
	require.ErrorIs(t, manager.DeleteGame(ctx, "game-1"), apperror.ErrGameNotFound)
}
