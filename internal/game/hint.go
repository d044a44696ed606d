package game

// Labels shown on a revealed losing box.
const (
	MissLabel   = "miss"
	HigherLabel = "search higher"
	LowerLabel  = "search lower"
)

// HintStrategy produces the label for a revealed box that is not the winner.
// It is never asked about the winning index itself.
type HintStrategy interface {
	Hint(clicked, winning int) string
}

// NoHint labels every miss the same way.
type NoHint struct{}

func (NoHint) Hint(int, int) string { return MissLabel }

// DirectionalHint tells the player which side of the clicked box holds the winner.
type DirectionalHint struct{}

func (DirectionalHint) Hint(clicked, winning int) string {
	if clicked < winning {
		return HigherLabel
	}
	return LowerLabel
}

// Direction is the truthful comparison between a revealed box and the winner,
// independent of the label the active HintStrategy shows.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionHigher
	DirectionLower
)

func (d Direction) String() string {
	switch d {
	case DirectionHigher:
		return "higher"
	case DirectionLower:
		return "lower"
	default:
		return "none"
	}
}

func compare(clicked, winning int) Direction {
	switch {
	case clicked < winning:
		return DirectionHigher
	case clicked > winning:
		return DirectionLower
	default:
		return DirectionNone
	}
}
