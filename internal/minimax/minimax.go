// Package minimax implements the exhaustive game-tree search used by the adversary.
//
// PlayerX is the maximizing side and PlayerO the minimizing side. The tree is small
// enough (at most 9! move sequences) that no pruning or caching is done.
package minimax

import (
	"fmt"
	"math"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

const WinScore = 10

// MoveScore - the search value of playing Cell.
type MoveScore struct {
	Cell  int `json:"cell"`
	Value int `json:"value"`
}

// Score - terminal evaluation from X's point of view.
func Score(board entity.Board) int {
	switch board.Winner() {
	case entity.PlayerX:
		return WinScore
	case entity.PlayerO:
		return -WinScore
	default:
		return 0
	}
}

// Value - minimax value of board. depth counts plies from the root and makes faster
// wins score higher and slower losses score less badly.
func Value(board entity.Board, depth int, maximizing bool) int {
	if board.IsTerminal() {
		switch s := Score(board); {
		case s > 0:
			return s - depth
		case s < 0:
			return s + depth
		default:
			return 0
		}
	}

	best := math.MaxInt
	if maximizing {
		best = math.MinInt
	}

	for _, move := range board.LegalMoves() {
		child, _ := board.ApplyMove(move) // legal by construction

		v := Value(child, depth+1, !maximizing)
		if maximizing && v > best || !maximizing && v < best {
			best = v
		}
	}

	return best
}

// BestMove - the adversary's move. The search always plays for PlayerO.
func BestMove(board entity.Board) (int, error) {
	return BestMoveFor(board, entity.PlayerO)
}

// BestMoveFor - the best move for side. Ties go to the lowest cell index.
func BestMoveFor(board entity.Board, side entity.Mark) (int, error) {
	scores, err := Analyze(board, side)
	if err != nil {
		return -1, err
	}

	return Best(scores, side).Cell, nil
}

// Best - the first score with the best value for side. scores must not be empty.
func Best(scores []MoveScore, side entity.Mark) MoveScore {
	best := scores[0]
	for _, score := range scores[1:] {
		if better(side, score.Value, best.Value) {
			best = score
		}
	}

	return best
}

// Analyze - the value of every legal move searched for side, in cell order.
func Analyze(board entity.Board, side entity.Mark) ([]MoveScore, error) {
	if !side.IsPlayer() {
		return nil, fmt.Errorf("%w: cannot search for %q", apperror.ErrInvalidMark, side)
	}

	if board.IsTerminal() {
		return nil, apperror.ErrNoLegalMove
	}

	// the opponent replies next, so X's search continues minimizing and O's maximizing
	replyMaximizing := side == entity.PlayerO

	moves := board.LegalMoves()
	scores := make([]MoveScore, 0, len(moves))
	for _, move := range moves {
		child, _ := board.ApplyMove(move) // legal by construction

		scores = append(scores, MoveScore{
			Cell:  move,
			Value: Value(child, 0, replyMaximizing),
		})
	}

	return scores, nil
}

func better(side entity.Mark, candidate, current int) bool {
	if side == entity.PlayerX {
		return candidate > current
	}

	return candidate < current
}
