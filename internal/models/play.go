package models

import "time"

// Play is one finalized round, appended to the play log.
type Play struct {
	ID           int64     `json:"id"`
	WidgetID     string    `json:"widget_id"`
	Variant      string    `json:"variant"`
	BoxCount     int       `json:"box_count"`
	WinningIndex int       `json:"winning_index"`
	Tries        int       `json:"tries"`
	AutoSearch   string    `json:"auto_search,omitempty"` // "linear", "binary" or "" for manual play
	CompletedAt  time.Time `json:"completed_at"`
}

type PlayFilter struct {
	WidgetID string
	Variant  string
	Limit    int
	Offset   int
}

// PlaySummary aggregates the play log. It is computed by the database and is
// independent of the in-memory statistics a widget keeps.
type PlaySummary struct {
	Plays      int     `json:"plays"`
	TotalTries int     `json:"total_tries"`
	MinTries   int     `json:"min_tries"`
	MaxTries   int     `json:"max_tries"`
	AvgTries   float64 `json:"avg_tries"`
}
