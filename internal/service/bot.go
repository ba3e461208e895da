package service

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/minimax"
)

var ErrNotBotTurn = errors.New("it's not the bot's turn")

type BotService interface {
	MakeTurn(game *entity.Game) (int, error)
}

type botService struct{}

func NewBotService() BotService {
	return &botService{}
}

// MakeTurn - plays the perfect move for the bot's mark and returns the chosen cell.
func (that *botService) MakeTurn(game *entity.Game) (int, error) {
	if game.IsFinished() {
		return -1, apperror.ErrGameFinished
	}

	if !game.IsBotTurn() {
		return -1, fmt.Errorf("%w: %w", apperror.ErrNotYourTurn, ErrNotBotTurn)
	}

	cell, err := minimax.BestMoveFor(game.Current(), game.BotMark)
	if err != nil {
		return -1, fmt.Errorf("failed to search best move: %w", err)
	}

	if err = game.MakeTurn(game.BotMark, cell); err != nil {
		return -1, fmt.Errorf("bot failed to make turn: %w", err)
	}

	return cell, nil
}
