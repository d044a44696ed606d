package worker

import (
	"context"
	"errors"

	"github.com/vytor/boxhunt/internal/logger"
	"github.com/vytor/boxhunt/internal/search"
)

// AutoSearchJob executes a registered auto-search run to completion.
type AutoSearchJob struct {
	Search   *search.Run
	WidgetID string
}

func (j *AutoSearchJob) Name() string { return "auto_search_" + string(j.Search.Kind()) }

func (j *AutoSearchJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"widget_id":  j.WidgetID,
		"generation": j.Search.Generation(),
	})
	log.Debug("executing auto-search")
	err := j.Search.Execute(logger.NewContext(ctx, log))
	if errors.Is(err, context.Canceled) || errors.Is(err, search.ErrExecuted) {
		// Reset, teardown and explicit stops all end up here. A run stopped
		// while still queued was already released by the canceller.
		return nil
	}
	return err
}

// Discard releases a run that was queued but never picked up.
func (j *AutoSearchJob) Discard() {
	j.Search.Discard()
}
