package apperror

import "errors"

var (
	ErrInvalidMove  = errors.New("invalid move")
	ErrNoLegalMove  = errors.New("no legal move: board is terminal")
	ErrInvalidBoard = errors.New("invalid board")
	ErrInvalidMark  = errors.New("invalid mark")
	ErrInvalidStep  = errors.New("invalid history step")

	ErrGameFinished = errors.New("game is already finished")
	ErrNotYourTurn  = errors.New("it's not your turn")
	ErrGameNotFound = errors.New("game not found")
)
