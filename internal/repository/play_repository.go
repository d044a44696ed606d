package repository

import (
	"context"

	"github.com/vytor/boxhunt/internal/models"
)

// PlayRepository handles play log data access
type PlayRepository interface {
	Insert(ctx context.Context, play models.Play) (int64, error)
	List(ctx context.Context, filter models.PlayFilter) ([]models.Play, error)
	Count(ctx context.Context, filter models.PlayFilter) (int, error)
	Summary(ctx context.Context, filter models.PlayFilter) (*models.PlaySummary, error)
	DeleteByWidget(ctx context.Context, widgetID string) (int64, error)
}
