package entity

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
)

// Mark - the symbol held by a cell. PlayerX always moves first.
type Mark string

const (
	EmptyCell Mark = ""
	PlayerX   Mark = "X"
	PlayerO   Mark = "O"
)

const BoardSize = 9

// WinCombos - rows top-to-bottom, columns left-to-right, then both diagonals.
// Winner reports the first fully owned line in this order.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

func (that Mark) Opponent() Mark {
	switch that {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return EmptyCell
	}
}

func (that Mark) IsPlayer() bool {
	return that == PlayerX || that == PlayerO
}

// ParseMark - accepts "X"/"O" in either case.
func ParseMark(s string) (Mark, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return PlayerX, nil
	case "O":
		return PlayerO, nil
	default:
		return EmptyCell, fmt.Errorf("%w: %q", apperror.ErrInvalidMark, s)
	}
}

// Board - 3x3 grid stored row-major. Board is a value: transitions return a copy.
type Board [BoardSize]Mark

// ParseBoard - reads the 9-cell text form, e.g. "XX_OO____" or "XX_|OO_|___".
func ParseBoard(s string) (Board, error) {
	var board Board

	idx := 0
	for _, r := range s {
		var mark Mark

		switch r {
		case 'X', 'x':
			mark = PlayerX
		case 'O', 'o':
			mark = PlayerO
		case '_', '.', '-', ' ':
			mark = EmptyCell
		case '|', '/', '\n', '\t', '\r':
			continue
		default:
			return Board{}, fmt.Errorf("%w: unexpected character %q", apperror.ErrInvalidBoard, r)
		}

		if idx >= BoardSize {
			return Board{}, fmt.Errorf("%w: more than %d cells", apperror.ErrInvalidBoard, BoardSize)
		}

		board[idx] = mark
		idx++
	}

	if idx != BoardSize {
		return Board{}, fmt.Errorf("%w: expected %d cells, got %d", apperror.ErrInvalidBoard, BoardSize, idx)
	}

	if err := board.Validate(); err != nil {
		return Board{}, err
	}

	return board, nil
}

func (that Board) String() string {
	var sb strings.Builder
	sb.Grow(BoardSize)

	for _, cell := range that {
		if cell == EmptyCell {
			sb.WriteByte('_')
			continue
		}
		sb.WriteString(string(cell))
	}

	return sb.String()
}

// Validate - checks that the board is reachable by alternating play from the empty board.
func (that Board) Validate() error {
	var xCount, oCount int

	for i, cell := range that {
		switch cell {
		case PlayerX:
			xCount++
		case PlayerO:
			oCount++
		case EmptyCell:
		default:
			return fmt.Errorf("%w: cell %d holds %q", apperror.ErrInvalidBoard, i, cell)
		}
	}

	if diff := xCount - oCount; diff != 0 && diff != 1 {
		return fmt.Errorf("%w: %d X marks against %d O marks", apperror.ErrInvalidBoard, xCount, oCount)
	}

	return nil
}

// LegalMoves - empty cells in ascending index order.
func (that Board) LegalMoves() []int {
	moves := make([]int, 0, BoardSize)
	for i, cell := range that {
		if cell == EmptyCell {
			moves = append(moves, i)
		}
	}

	return moves
}

// SideToMove - derived from the mark counts, X on a tie.
func (that Board) SideToMove() Mark {
	var xCount, oCount int
	for _, cell := range that {
		switch cell {
		case PlayerX:
			xCount++
		case PlayerO:
			oCount++
		}
	}

	if xCount > oCount {
		return PlayerO
	}

	return PlayerX
}

// ApplyMove - returns a new board with the side to move placed on cell.
// A finished board is not rejected here, callers check IsTerminal first.
func (that Board) ApplyMove(cell int) (Board, error) {
	if cell < 0 || cell >= BoardSize {
		return that, fmt.Errorf("%w: cell %d is out of range", apperror.ErrInvalidMove, cell)
	}

	if that[cell] != EmptyCell {
		return that, fmt.Errorf("%w: cell %d is already occupied", apperror.ErrInvalidMove, cell)
	}

	next := that
	next[cell] = that.SideToMove()

	return next, nil
}

func (that Board) Winner() Mark {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	return EmptyCell
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func (that Board) IsTerminal() bool {
	return that.Winner() != EmptyCell || that.IsFull()
}

func (that Board) Outcome() Outcome {
	if winner := that.Winner(); winner != EmptyCell {
		return Outcome{Status: OutcomeWin, Winner: winner}
	}

	if that.IsFull() {
		return Outcome{Status: OutcomeDraw}
	}

	return Outcome{Status: OutcomeInProgress}
}
