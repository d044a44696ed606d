package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/boxhunt/internal/logger"
	"github.com/vytor/boxhunt/internal/models"
	"github.com/vytor/boxhunt/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

const defaultPlayLimit = 50

type playRepository struct {
	db *sql.DB
}

// NewPlayRepository creates a new PlayRepository implementation
func NewPlayRepository(db *sql.DB) repository.PlayRepository {
	return &playRepository{db: db}
}

func applyPlayFilter(q squirrel.SelectBuilder, filter models.PlayFilter) squirrel.SelectBuilder {
	if filter.WidgetID != "" {
		q = q.Where(squirrel.Eq{"widget_id": filter.WidgetID})
	}
	if filter.Variant != "" {
		q = q.Where(squirrel.Eq{"variant": filter.Variant})
	}
	return q
}

func (r *playRepository) Insert(ctx context.Context, p models.Play) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("play_repo")
	log.Debug("inserting play: widget_id=%s, tries=%d", p.WidgetID, p.Tries)

	if p.CompletedAt.IsZero() {
		p.CompletedAt = time.Now().UTC()
	}

	query, args, err := sqlBuilder.
		Insert("plays").
		Columns("widget_id", "variant", "box_count", "winning_index", "tries", "auto_search", "completed_at").
		Values(p.WidgetID, p.Variant, p.BoxCount, p.WinningIndex, p.Tries, p.AutoSearch, p.CompletedAt).
		ToSql()
	if err != nil {
		log.Error("failed to build insert query: %v", err)
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to insert play: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get play id: %v", err)
		return 0, err
	}
	log.Debug("play inserted: id=%d", id)
	return id, nil
}

func (r *playRepository) List(ctx context.Context, filter models.PlayFilter) ([]models.Play, error) {
	log := logger.FromContext(ctx).WithPrefix("play_repo")
	log.Debug("listing plays: widget_id=%s, variant=%s, limit=%d, offset=%d", filter.WidgetID, filter.Variant, filter.Limit, filter.Offset)

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPlayLimit
	}
	q := sqlBuilder.
		Select("id", "widget_id", "variant", "box_count", "winning_index", "tries", "auto_search", "completed_at").
		From("plays")
	q = applyPlayFilter(q, filter).
		OrderBy("id DESC").
		Limit(uint64(limit))
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		log.Error("failed to build list query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query plays: %v", err)
		return nil, err
	}
	defer rows.Close()

	plays := []models.Play{}
	for rows.Next() {
		var p models.Play
		if err := rows.Scan(&p.ID, &p.WidgetID, &p.Variant, &p.BoxCount, &p.WinningIndex, &p.Tries, &p.AutoSearch, &p.CompletedAt); err != nil {
			log.Error("failed to scan play row: %v", err)
			return nil, err
		}
		plays = append(plays, p)
	}
	log.Debug("found %d plays", len(plays))
	return plays, rows.Err()
}

func (r *playRepository) Count(ctx context.Context, filter models.PlayFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("play_repo")

	query, args, err := applyPlayFilter(sqlBuilder.Select("COUNT(*)").From("plays"), filter).ToSql()
	if err != nil {
		log.Error("failed to build count query: %v", err)
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		log.Error("failed to count plays: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *playRepository) Summary(ctx context.Context, filter models.PlayFilter) (*models.PlaySummary, error) {
	log := logger.FromContext(ctx).WithPrefix("play_repo")
	log.Debug("summarizing plays: widget_id=%s", filter.WidgetID)

	query, args, err := applyPlayFilter(sqlBuilder.
		Select(
			"COUNT(*)",
			"COALESCE(SUM(tries), 0)",
			"COALESCE(MIN(tries), 0)",
			"COALESCE(MAX(tries), 0)",
			"COALESCE(AVG(tries), 0)",
		).
		From("plays"), filter).
		ToSql()
	if err != nil {
		log.Error("failed to build summary query: %v", err)
		return nil, err
	}

	var s models.PlaySummary
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&s.Plays, &s.TotalTries, &s.MinTries, &s.MaxTries, &s.AvgTries)
	if err != nil {
		log.Error("failed to summarize plays: %v", err)
		return nil, err
	}
	return &s, nil
}

func (r *playRepository) DeleteByWidget(ctx context.Context, widgetID string) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("play_repo")
	log.Debug("deleting plays: widget_id=%s", widgetID)

	var deleted int64
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		query, args, err := sqlBuilder.Delete("plays").Where(squirrel.Eq{"widget_id": widgetID}).ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		log.Error("failed to delete plays: %v", err)
		return 0, err
	}
	log.Debug("deleted %d plays", deleted)
	return deleted, nil
}
