package game

import (
	"math"

	"github.com/shopspring/decimal"
)

// unsetMin marks MinTries as undefined until the first completed round.
const unsetMin = math.MaxInt

// Statistics accumulates completed rounds for the lifetime of a widget.
type Statistics struct {
	PlayCount  int
	TotalTries int
	MinTries   int
	MaxTries   int
	// History holds completed try counts, most recent first.
	History []int
}

// NewStatistics returns empty statistics with MinTries unset.
func NewStatistics() Statistics {
	return Statistics{MinTries: unsetMin, History: []int{}}
}

func (s *Statistics) record(tries int) {
	s.PlayCount++
	s.TotalTries += tries
	if tries < s.MinTries {
		s.MinTries = tries
	}
	if tries > s.MaxTries {
		s.MaxTries = tries
	}
	s.History = append([]int{tries}, s.History...)
}

// HasMin reports whether at least one round has completed.
func (s Statistics) HasMin() bool {
	return s.MinTries != unsetMin
}

// DisplayMin returns MinTries, or 0 while it is still undefined.
func (s Statistics) DisplayMin() int {
	if !s.HasMin() {
		return 0
	}
	return s.MinTries
}

// Average is TotalTries / PlayCount, or zero before the first completion.
func (s Statistics) Average() decimal.Decimal {
	if s.PlayCount == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.TotalTries)).Div(decimal.NewFromInt(int64(s.PlayCount)))
}

// AverageText renders the average with two decimal places.
func (s Statistics) AverageText() string {
	return s.Average().StringFixed(2)
}

func (s Statistics) clone() Statistics {
	out := s
	out.History = append([]int(nil), s.History...)
	if out.History == nil {
		out.History = []int{}
	}
	return out
}
