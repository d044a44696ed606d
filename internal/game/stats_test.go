package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/boxhunt/internal/game"
)

func TestStatistics_Empty(t *testing.T) {
	s := game.NewStatistics()
	assert.False(t, s.HasMin())
	assert.Equal(t, 0, s.DisplayMin())
	assert.True(t, s.Average().IsZero())
	assert.Equal(t, "0.00", s.AverageText())
	assert.Empty(t, s.History)
}

func TestStatistics_AverageText(t *testing.T) {
	tests := []struct {
		name  string
		plays int
		total int
		want  string
	}{
		{name: "whole number", plays: 2, total: 8, want: "4.00"},
		{name: "one third", plays: 3, total: 10, want: "3.33"},
		{name: "two thirds rounds up", plays: 3, total: 5, want: "1.67"},
		{name: "half", plays: 4, total: 2, want: "0.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := game.Statistics{PlayCount: tt.plays, TotalTries: tt.total}
			assert.Equal(t, tt.want, s.AverageText())
		})
	}
}

func TestHints(t *testing.T) {
	assert.Equal(t, game.MissLabel, game.NoHint{}.Hint(1, 5))
	assert.Equal(t, game.MissLabel, game.NoHint{}.Hint(9, 5))
	assert.Equal(t, game.HigherLabel, game.DirectionalHint{}.Hint(1, 5))
	assert.Equal(t, game.LowerLabel, game.DirectionalHint{}.Hint(9, 5))
}
