package jobs

import (
	"github.com/vytor/boxhunt/internal/search"
	"github.com/vytor/boxhunt/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	autoSearchPool *worker.Pool
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(autoSearchPool *worker.Pool) JobQueue {
	return &WorkerQueue{autoSearchPool: autoSearchPool}
}

func (q *WorkerQueue) EnqueueAutoSearch(widgetID string, run *search.Run) error {
	return q.autoSearchPool.Submit(&worker.AutoSearchJob{
		Search:   run,
		WidgetID: widgetID,
	})
}
