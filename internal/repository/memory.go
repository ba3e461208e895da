package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

type memGame struct {
	mu    sync.RWMutex
	games map[string][]byte
}

// NewMemoryGameRepository - process-local storage. Games are kept as JSON so callers
// never share a *entity.Game with the store.
func NewMemoryGameRepository() GameRepository {
	return &memGame{
		games: make(map[string][]byte),
	}
}

func (that *memGame) CreateOrUpdate(_ context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	that.mu.Lock()
	that.games[game.ID] = gameJSON
	that.mu.Unlock()

	return nil
}

func (that *memGame) GetByID(_ context.Context, id string) (*entity.Game, error) {
	that.mu.RLock()
	gameJSON, ok := that.games[id]
	that.mu.RUnlock()

	if !ok {
		return &entity.Game{}, ErrGameNotFound
	}

	var existingGame entity.Game
	if err := json.Unmarshal(gameJSON, &existingGame); err != nil {
		return &entity.Game{}, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

func (that *memGame) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[id]; !ok {
		return ErrGameNotFound
	}

	delete(that.games, id)

	return nil
}
