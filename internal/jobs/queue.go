package jobs

import "github.com/vytor/boxhunt/internal/search"

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	// EnqueueAutoSearch schedules run for execution. On error the run was not
	// queued and the caller still owns it.
	EnqueueAutoSearch(widgetID string, run *search.Run) error
}
