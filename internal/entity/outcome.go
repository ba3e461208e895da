package entity

type OutcomeStatus string

const (
	OutcomeInProgress OutcomeStatus = "in_progress"
	OutcomeWin        OutcomeStatus = "win"
	OutcomeDraw       OutcomeStatus = "draw"
)

// Outcome - result of a board. Winner is set only for OutcomeWin.
type Outcome struct {
	Status OutcomeStatus `json:"status"`
	Winner Mark          `json:"winner,omitempty"`
}

func (that Outcome) IsOver() bool {
	return that.Status != OutcomeInProgress
}

func (that Outcome) String() string {
	switch that.Status {
	case OutcomeWin:
		return "Winner: " + string(that.Winner)
	case OutcomeDraw:
		return "Draw"
	default:
		return "In progress"
	}
}
