package services

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/vytor/boxhunt/internal/errors"
	"github.com/vytor/boxhunt/internal/game"
	"github.com/vytor/boxhunt/internal/jobs"
	"github.com/vytor/boxhunt/internal/logger"
	"github.com/vytor/boxhunt/internal/models"
	"github.com/vytor/boxhunt/internal/repository"
	"github.com/vytor/boxhunt/internal/search"
	"github.com/vytor/boxhunt/internal/widget"
	"github.com/vytor/boxhunt/internal/worker"
)

// WidgetService handles widget lifecycle and play
type WidgetService interface {
	CreateWidget(ctx context.Context, variant string, boxCount int) (*widget.State, error)
	ListWidgets(ctx context.Context) []widget.State
	GetWidget(ctx context.Context, id string) (*widget.State, error)
	DeleteWidget(ctx context.Context, id string) error
	Reveal(ctx context.Context, id string, index int) (*RevealResponse, error)
	Reset(ctx context.Context, id string) (*widget.State, error)
	Resize(ctx context.Context, id string, boxCount int) (*widget.State, error)
	StartAutoSearch(ctx context.Context, id string) (*widget.State, error)
	CancelAutoSearch(ctx context.Context, id string) (bool, error)
	GetStats(ctx context.Context, id string) (*widget.StatsView, error)
	ListPlays(ctx context.Context, id string, limit, offset int) (*PlaysPage, error)
	Subscribe(ctx context.Context, id string, buffer int) (<-chan widget.Event, func(), error)
	Shutdown()
}

// RevealResponse carries the reveal and the board it produced.
type RevealResponse struct {
	Reveal game.RevealResult `json:"reveal"`
	State  widget.State      `json:"state"`
}

type PlaysPage struct {
	Plays   []models.Play       `json:"plays"`
	Total   int                 `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
	Summary *models.PlaySummary `json:"summary"`
}

// WidgetServiceConfig tunes a WidgetService. Zero values fall back to defaults.
type WidgetServiceConfig struct {
	Presets     widget.Presets
	MaxBoxCount int
	Clock       clockwork.Clock
	// Picker forces winning boxes. Tests only.
	Picker game.Picker
}

type widgetService struct {
	playRepo repository.PlayRepository
	jobQueue jobs.JobQueue
	registry *widget.Registry
	cfg      WidgetServiceConfig
}

// NewWidgetService creates a new WidgetService
func NewWidgetService(playRepo repository.PlayRepository, jobQueue jobs.JobQueue, cfg WidgetServiceConfig) WidgetService {
	if cfg.Presets == nil {
		cfg.Presets = widget.DefaultPresets()
	}
	if cfg.MaxBoxCount <= 0 {
		cfg.MaxBoxCount = 1000
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &widgetService{
		playRepo: playRepo,
		jobQueue: jobQueue,
		registry: widget.NewRegistry(),
		cfg:      cfg,
	}
}

func (s *widgetService) CreateWidget(ctx context.Context, variant string, boxCount int) (*widget.State, error) {
	log := logger.FromContext(ctx)
	log.Debug("creating widget: variant=%s, box_count=%d", variant, boxCount)

	v, err := widget.ParseVariant(variant)
	if err != nil {
		return nil, errors.NewValidationError("variant", "must be one of classic, linear, binary")
	}
	preset, err := s.cfg.Presets.Lookup(v)
	if err != nil {
		return nil, errors.NewValidationError("variant", err.Error())
	}
	if boxCount != 0 {
		if err := s.checkBoxCount(boxCount); err != nil {
			return nil, err
		}
		preset.BoxCount = boxCount
	}

	w, err := widget.New(preset,
		widget.WithClock(s.cfg.Clock),
		widget.WithPicker(s.cfg.Picker),
		widget.WithRecorder(playRecorder{repo: s.playRepo}),
		widget.WithLogger(logger.Default()),
	)
	if err != nil {
		return nil, mapWidgetError(err)
	}
	s.registry.Add(w)
	log.Info("created widget %s", w)

	st := w.State()
	return &st, nil
}

func (s *widgetService) ListWidgets(ctx context.Context) []widget.State {
	widgets := s.registry.List()
	out := make([]widget.State, 0, len(widgets))
	for _, w := range widgets {
		out = append(out, w.State())
	}
	return out
}

func (s *widgetService) GetWidget(ctx context.Context, id string) (*widget.State, error) {
	w, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	st := w.State()
	return &st, nil
}

func (s *widgetService) DeleteWidget(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)
	if !s.registry.Remove(id) {
		return errors.NewNotFoundError("widget", id)
	}
	if _, err := s.playRepo.DeleteByWidget(ctx, id); err != nil {
		log.Warn("failed to delete play log for widget %s: %v", id, err)
	}
	log.Info("deleted widget %s", id)
	return nil
}

func (s *widgetService) Reveal(ctx context.Context, id string, index int) (*RevealResponse, error) {
	w, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	res, err := w.Reveal(ctx, index)
	if err != nil {
		return nil, mapWidgetError(err)
	}
	return &RevealResponse{Reveal: res, State: w.State()}, nil
}

func (s *widgetService) Reset(ctx context.Context, id string) (*widget.State, error) {
	w, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := w.Reset(); err != nil {
		return nil, mapWidgetError(err)
	}
	st := w.State()
	return &st, nil
}

// Resize also clears the widget's play log, matching the cleared statistics.
// The widget clears it through its recorder while locked.
func (s *widgetService) Resize(ctx context.Context, id string, boxCount int) (*widget.State, error) {
	log := logger.FromContext(ctx)
	w, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := s.checkBoxCount(boxCount); err != nil {
		return nil, err
	}
	if err := w.Resize(ctx, boxCount); err != nil {
		log.Error("failed to resize widget %s: %v", id, err)
		return nil, mapWidgetError(err)
	}
	st := w.State()
	return &st, nil
}

func (s *widgetService) StartAutoSearch(ctx context.Context, id string) (*widget.State, error) {
	log := logger.FromContext(ctx)
	w, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	run, err := w.StartAutoSearch()
	if err != nil {
		return nil, mapWidgetError(err)
	}
	if err := s.jobQueue.EnqueueAutoSearch(id, run); err != nil {
		run.Discard()
		log.Warn("failed to enqueue auto-search: %v", err)
		return nil, mapWidgetError(err)
	}
	log.Info("queued %s auto-search for widget %s", run.Kind(), id)

	st := w.State()
	return &st, nil
}

func (s *widgetService) CancelAutoSearch(ctx context.Context, id string) (bool, error) {
	w, err := s.lookup(id)
	if err != nil {
		return false, err
	}
	return w.CancelAutoSearch(), nil
}

func (s *widgetService) GetStats(ctx context.Context, id string) (*widget.StatsView, error) {
	w, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	stats := w.Stats()
	return &stats, nil
}

func (s *widgetService) ListPlays(ctx context.Context, id string, limit, offset int) (*PlaysPage, error) {
	log := logger.FromContext(ctx)
	if _, err := s.lookup(id); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	filter := models.PlayFilter{WidgetID: id, Limit: limit, Offset: offset}

	plays, err := s.playRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list plays: %v", err)
		return nil, errors.NewInternalError(err)
	}
	total, err := s.playRepo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count plays: %v", err)
		return nil, errors.NewInternalError(err)
	}
	summary, err := s.playRepo.Summary(ctx, filter)
	if err != nil {
		log.Error("failed to summarize plays: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return &PlaysPage{Plays: plays, Total: total, Limit: limit, Offset: offset, Summary: summary}, nil
}

func (s *widgetService) Subscribe(ctx context.Context, id string, buffer int) (<-chan widget.Event, func(), error) {
	w, err := s.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := w.Events().Subscribe(buffer)
	return ch, cancel, nil
}

// Shutdown tears down every widget, cancelling runs in flight.
func (s *widgetService) Shutdown() {
	s.registry.CloseAll()
}

func (s *widgetService) lookup(id string) (*widget.Widget, error) {
	w := s.registry.Get(id)
	if w == nil {
		return nil, errors.NewNotFoundError("widget", id)
	}
	return w, nil
}

func (s *widgetService) checkBoxCount(n int) error {
	if n <= 0 || n > s.cfg.MaxBoxCount {
		return errors.NewInvalidBoxCountError(fmt.Errorf("%w: %d not in [1, %d]", game.ErrInvalidBoxCount, n, s.cfg.MaxBoxCount))
	}
	return nil
}

// mapWidgetError translates domain errors into AppErrors.
func mapWidgetError(err error) error {
	switch {
	case stderrors.Is(err, game.ErrInvalidBoxCount):
		return errors.NewInvalidBoxCountError(err)
	case stderrors.Is(err, game.ErrIndexOutOfRange):
		return errors.NewIndexOutOfRangeError(err)
	case stderrors.Is(err, game.ErrDoubleFinalize):
		return errors.NewDoubleFinalizeError(err)
	case stderrors.Is(err, search.ErrAlreadyRunning):
		return errors.NewAutoSearchRunningError(err)
	case stderrors.Is(err, widget.ErrAutoSearchUnsupported):
		return errors.NewBadRequestError("this widget has no auto-search")
	case stderrors.Is(err, widget.ErrClosed):
		return errors.NewNotFoundError("widget", "closed")
	case stderrors.Is(err, worker.ErrQueueFull), stderrors.Is(err, worker.ErrPoolStopped):
		return errors.NewUnavailableError("auto-search capacity exhausted, try again", err)
	}
	return errors.NewInternalError(err)
}

// playRecorder appends finalized rounds to the play log and clears it on resize.
type playRecorder struct {
	repo repository.PlayRepository
}

func (r playRecorder) RecordPlay(ctx context.Context, play models.Play) error {
	id, err := r.repo.Insert(ctx, play)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Debug("recorded play %d for widget %s", id, play.WidgetID)
	return nil
}

func (r playRecorder) ClearPlays(ctx context.Context, widgetID string) (int64, error) {
	return r.repo.DeleteByWidget(ctx, widgetID)
}
