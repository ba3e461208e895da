package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"

	PlayerTie = "-"
)

// Game - a single human against the adversary. History is the ordered list of board
// snapshots starting from the empty board, Step is the cursor into it.
type Game struct {
	ID        string    `json:"id"`
	Board     Board     `json:"board"`
	History   []Board   `json:"history"`
	Step      int       `json:"step"`
	Winner    string    `json:"winner"`
	Status    string    `json:"status"`
	Turn      Mark      `json:"player_turn"`
	HumanMark Mark      `json:"human_mark"`
	BotMark   Mark      `json:"bot_mark"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewGame(id string, humanMark Mark) *Game {
	now := time.Now().UTC()

	game := &Game{
		ID:        id,
		History:   []Board{{}},
		HumanMark: humanMark,
		BotMark:   humanMark.Opponent(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	game.UpdateGameState()

	return game
}

// Current - the board under the history cursor.
func (that *Game) Current() Board {
	if len(that.History) == 0 {
		return Board{}
	}

	return that.History[that.Step]
}

// UpdateGameState - derives board, status, winner and turn from the current snapshot.
func (that *Game) UpdateGameState() {
	board := that.Current()
	that.Board = board

	outcome := board.Outcome()
	switch outcome.Status {
	case OutcomeWin:
		that.Winner = string(outcome.Winner)
		that.Status = StatusFinished
		that.Turn = EmptyCell
	case OutcomeDraw:
		that.Winner = PlayerTie
		that.Status = StatusFinished
		that.Turn = EmptyCell
	default:
		that.Winner = ""
		that.Status = StatusOngoing
		that.Turn = board.SideToMove()
	}
}

// MakeTurn - plays cell for mark on the current board. Moving from an earlier step
// discards the snapshots after it.
func (that *Game) MakeTurn(mark Mark, cell int) error {
	board := that.Current()

	if board.IsTerminal() {
		return apperror.ErrGameFinished
	}

	if board.SideToMove() != mark {
		return fmt.Errorf("%w: %s to move", apperror.ErrNotYourTurn, board.SideToMove())
	}

	next, err := board.ApplyMove(cell)
	if err != nil {
		return err
	}

	that.History = append(that.History[:that.Step+1], next)
	that.Step = len(that.History) - 1
	that.UpdatedAt = time.Now().UTC()
	that.UpdateGameState()

	return nil
}

// JumpTo - moves the cursor without discarding any snapshot.
func (that *Game) JumpTo(step int) error {
	if step < 0 || step >= len(that.History) {
		return fmt.Errorf("%w: step %d not in [0, %d]", apperror.ErrInvalidStep, step, len(that.History)-1)
	}

	that.Step = step
	that.UpdatedAt = time.Now().UTC()
	that.UpdateGameState()

	return nil
}

// Restart - back to the empty board with the history cleared.
func (that *Game) Restart() {
	that.History = []Board{{}}
	that.Step = 0
	that.UpdatedAt = time.Now().UTC()
	that.UpdateGameState()
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsBotTurn() bool {
	return that.IsOngoing() && that.Current().SideToMove() == that.BotMark
}

func (that *Game) IsHumanTurn() bool {
	return that.IsOngoing() && that.Current().SideToMove() == that.HumanMark
}
