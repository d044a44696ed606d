package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/vytor/boxhunt/internal/game"
	"github.com/vytor/boxhunt/internal/logger"
	"github.com/vytor/boxhunt/internal/models"
	"github.com/vytor/boxhunt/internal/search"
)

var (
	// ErrAutoSearchUnsupported is returned when the variant has no auto-search.
	ErrAutoSearchUnsupported = errors.New("variant has no auto-search")
	// ErrClosed is returned by operations on a torn down widget.
	ErrClosed = errors.New("widget closed")
)

// Recorder keeps the play log. Both methods are called with the widget locked,
// so a cleared log never receives a row from the round it replaced.
type Recorder interface {
	RecordPlay(ctx context.Context, play models.Play) error
	ClearPlays(ctx context.Context, widgetID string) (int64, error)
}

type Option func(*options)

type options struct {
	clock    clockwork.Clock
	picker   game.Picker
	recorder Recorder
	log      *logger.Logger
}

// WithClock sets the clock used for step delays and timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithPicker forces the winning box selection. Tests only.
func WithPicker(p game.Picker) Option {
	return func(o *options) { o.picker = p }
}

func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// Widget is one playable board: a session, its hint, its auto-search and
// the subscribers watching it.
type Widget struct {
	id        string
	preset    Preset
	createdAt time.Time

	session  *game.Session
	runner   *search.Runner
	clock    clockwork.Clock
	recorder Recorder
	events   *Broker
	log      *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// mu serializes mutations so a win is finalized before any reset can replace its round.
	mu     sync.Mutex
	closed bool
}

// New builds a widget from preset and sets up its first round.
func New(preset Preset, opts ...Option) (*Widget, error) {
	o := options{clock: clockwork.NewRealClock(), log: logger.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	session, err := game.NewSession(preset.BoxCount, game.WithHint(preset.Hint), game.WithPicker(o.picker))
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	// Runs outlive the request that started them.
	ctx, cancel := context.WithCancel(context.Background())
	w := &Widget{
		id:        id,
		preset:    preset,
		createdAt: o.clock.Now().UTC(),
		session:   session,
		runner:    search.NewRunner(o.clock),
		clock:     o.clock,
		recorder:  o.recorder,
		events:    NewBroker(),
		log:       o.log.WithPrefix("widget").WithFields(map[string]any{"widget_id": id, "variant": preset.Variant}),
		ctx:       ctx,
		cancel:    cancel,
	}
	w.log.Debug("created with %d boxes", preset.BoxCount)
	return w, nil
}

func (w *Widget) ID() string           { return w.id }
func (w *Widget) Variant() Variant     { return w.preset.Variant }
func (w *Widget) CreatedAt() time.Time { return w.createdAt }
func (w *Widget) Events() *Broker      { return w.events }

// Reveal opens a box by hand.
func (w *Widget) Reveal(ctx context.Context, index int) (game.RevealResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return game.RevealResult{}, ErrClosed
	}
	res, err := w.session.Reveal(index)
	if err != nil {
		return res, err
	}
	w.afterRevealLocked(ctx, res, search.KindNone)
	return res, nil
}

// afterRevealLocked publishes the reveal and finalizes a win. Noops and
// misses pass through.
func (w *Widget) afterRevealLocked(ctx context.Context, res game.RevealResult, auto search.Kind) {
	w.publish(Event{Type: EventReveal, Generation: res.Generation, Reveal: &res})
	if res.Outcome != game.OutcomeWin {
		return
	}
	if err := w.session.EndSession(); err != nil {
		w.log.Error("failed to finalize round %d: %v", res.Generation, err)
		return
	}
	w.roundFinalizedLocked(ctx, models.Play{
		WidgetID:     w.id,
		Variant:      string(w.preset.Variant),
		BoxCount:     w.session.BoxCount(),
		WinningIndex: res.Index,
		Tries:        res.TryCount,
		AutoSearch:   string(auto),
		CompletedAt:  w.clock.Now().UTC(),
	})
}

func (w *Widget) roundFinalizedLocked(ctx context.Context, play models.Play) {
	stats := NewStatsView(w.session.Stats())
	w.publish(Event{Type: EventRoundFinalized, Stats: &stats})
	w.log.Info("round won in %d tries", play.Tries)
	if w.recorder == nil {
		return
	}
	if err := w.recorder.RecordPlay(ctx, play); err != nil {
		w.log.Warn("failed to record play: %v", err)
	}
}

// Reset cancels any run in flight and starts a new round with the same box count.
func (w *Widget) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.runner.Cancel()
	if err := w.session.Setup(w.session.BoxCount()); err != nil {
		return err
	}
	w.publish(Event{Type: EventReset, BoxCount: w.session.BoxCount()})
	return nil
}

// Resize cancels any run in flight, clears the statistics and the play log
// and starts a round of boxCount boxes.
func (w *Widget) Resize(ctx context.Context, boxCount int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if err := w.session.Resize(boxCount); err != nil {
		return err
	}
	w.runner.Cancel()
	w.log.Info("resized to %d boxes", boxCount)
	w.publish(Event{Type: EventResize, BoxCount: boxCount})

	if w.recorder == nil {
		return nil
	}
	deleted, err := w.recorder.ClearPlays(ctx, w.id)
	if err != nil {
		return fmt.Errorf("clear play log: %w", err)
	}
	w.log.Debug("cleared %d plays", deleted)
	return nil
}

// StartAutoSearch registers a run of the variant's strategy against the
// current round. The caller executes it, or discards it if it cannot.
func (w *Widget) StartAutoSearch() (*search.Run, error) {
	if w.preset.Search == search.KindNone {
		return nil, ErrAutoSearchUnsupported
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}
	strategy, err := search.New(w.preset.Search, w.session.BoxCount())
	if err != nil {
		return nil, err
	}
	t := &target{w: w}
	run, err := w.runner.Start(w.ctx, t, strategy, search.RunConfig{
		Delay:   w.preset.Delay,
		Observe: w.observe,
	})
	if err != nil {
		return nil, err
	}
	// Set before anyone can execute the run.
	t.run = run
	w.publish(Event{Type: EventAutoSearchStarted, Generation: run.Generation(), Strategy: run.Kind()})
	go w.watch(run)
	return run, nil
}

// CancelAutoSearch stops the run in flight and reports whether there was one.
// Once it returns, the run reveals nothing more.
func (w *Widget) CancelAutoSearch() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runner.Cancel()
}

// AutoSearchRunning reports whether a run is registered.
func (w *Widget) AutoSearchRunning() bool {
	return w.runner.Active() != nil
}

func (w *Widget) observe(ev search.Event) {
	w.publish(Event{Type: EventAutoSearchStep, Generation: ev.Reveal.Generation, Step: &ev, Strategy: ev.Strategy})
}

func (w *Widget) watch(run *search.Run) {
	<-run.Done()
	ev := Event{Type: EventAutoSearchFinished, Generation: run.Generation(), Strategy: run.Kind()}
	if err := run.Err(); err != nil {
		ev.Error = err.Error()
	}
	w.publish(ev)
}

// Close tears the widget down: the run in flight is cancelled and every
// subscription ends. Close is idempotent.
func (w *Widget) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.runner.Cancel()
	w.mu.Unlock()

	w.cancel()
	w.publish(Event{Type: EventClosed})
	w.events.Close()
	w.log.Debug("closed")
}

func (w *Widget) publish(ev Event) {
	ev.WidgetID = w.id
	if ev.Generation == 0 {
		ev.Generation = w.session.Generation()
	}
	ev.At = w.clock.Now().UTC()
	w.events.Publish(ev)
}

// target adapts the widget to search.Target so automated wins are finalized
// and recorded exactly like manual ones.
type target struct {
	w   *Widget
	run *search.Run
}

func (t *target) BoxCount() int      { return t.w.session.BoxCount() }
func (t *target) Generation() uint64 { return t.w.session.Generation() }
func (t *target) Ended() bool        { return t.w.session.Ended() }

// RevealAt checks the run under the widget lock, so a cancel or Close that
// returned before it can never be followed by a reveal.
func (t *target) RevealAt(gen uint64, index int) (game.RevealResult, error) {
	w := t.w
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return game.RevealResult{}, ErrClosed
	}
	if !t.run.Alive() {
		return game.RevealResult{}, context.Canceled
	}
	res, err := w.session.RevealAt(gen, index)
	if err != nil {
		return res, err
	}
	w.afterRevealLocked(w.ctx, res, t.run.Kind())
	return res, nil
}

func (t *target) Exclude(gen uint64, from, to int) ([]int, error) {
	return t.w.session.Exclude(gen, from, to)
}

// StatsView is the statistics panel: max, min, average and history.
type StatsView struct {
	PlayCount  int    `json:"play_count"`
	TotalTries int    `json:"total_tries"`
	MinTries   int    `json:"min_tries"`
	MaxTries   int    `json:"max_tries"`
	Average    string `json:"average"`
	History    []int  `json:"history"`
}

func NewStatsView(s game.Statistics) StatsView {
	return StatsView{
		PlayCount:  s.PlayCount,
		TotalTries: s.TotalTries,
		MinTries:   s.DisplayMin(),
		MaxTries:   s.MaxTries,
		Average:    s.AverageText(),
		History:    s.History,
	}
}

// State is everything a display needs to render the widget.
type State struct {
	ID                string      `json:"id"`
	Variant           Variant     `json:"variant"`
	CreatedAt         time.Time   `json:"created_at"`
	Board             game.Board  `json:"board"`
	Stats             StatsView   `json:"stats"`
	AutoSearch        search.Kind `json:"auto_search,omitempty"`
	AutoSearchRunning bool        `json:"auto_search_running"`
	// ResetEnabled and AutoSearchEnabled drive the trigger buttons.
	ResetEnabled      bool `json:"reset_enabled"`
	AutoSearchEnabled bool `json:"auto_search_enabled"`
}

func (w *Widget) State() State {
	board := w.session.Snapshot()
	running := w.AutoSearchRunning()
	return State{
		ID:                w.id,
		Variant:           w.preset.Variant,
		CreatedAt:         w.createdAt,
		Board:             board,
		Stats:             NewStatsView(w.session.Stats()),
		AutoSearch:        w.preset.Search,
		AutoSearchRunning: running,
		ResetEnabled:      board.Ended,
		AutoSearchEnabled: w.preset.Search != search.KindNone && !running && !board.Ended,
	}
}

func (w *Widget) Stats() StatsView {
	return NewStatsView(w.session.Stats())
}

func (w *Widget) String() string {
	return fmt.Sprintf("%s(%s)", w.preset.Variant, w.id)
}
