package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/vytor/boxhunt/internal/game"
	"github.com/vytor/boxhunt/internal/logger"
)

// Delays between reveals used by the demo widgets.
const (
	DefaultLinearDelay = 300 * time.Millisecond
	DefaultBinaryDelay = time.Second
)

// RunConfig tunes a single run.
type RunConfig struct {
	Delay time.Duration
	// Observe, if set, is called synchronously for every event before it is queued.
	Observe func(Event)
}

// Runner enforces one active run per target and paces steps with its clock.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Runner struct {
	clock clockwork.Clock

	mu     sync.Mutex
	active *Run
}

func NewRunner(clock clockwork.Clock) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner{clock: clock}
}

// Start registers a run against t. The run does nothing until Execute is called,
// which lets the caller choose where it executes. It fails with ErrAlreadyRunning
// while a previous run has not finished.
func (r *Runner) Start(ctx context.Context, t Target, s Strategy, cfg RunConfig) (*Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return nil, ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	run := &Run{
		runner:   r,
		target:   t,
		strategy: s,
		cfg:      cfg,
		gen:      t.Generation(),
		ctx:      ctx,
		cancel:   cancel,
		events:   make(chan Event, max(s.MaxSteps(t.BoxCount()), 1)),
		done:     make(chan struct{}),
	}
	r.active = run
	return run, nil
}

// Active returns the run in flight, or nil.
func (r *Runner) Active() *Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Cancel stops the active run, if any, and reports whether there was one.
// A run that was never executed is released right away, so a new one can
// start without waiting for a worker to pick the old one up.
func (r *Runner) Cancel() bool {
	run := r.Active()
	if run == nil {
		return false
	}
	run.Discard()
	return true
}

func (r *Runner) release(run *Run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == run {
		r.active = nil
	}
}

// ErrExecuted is returned by Execute on a run that was already executed or discarded.
var ErrExecuted = errors.New("run already executed")

// Run is a single cancelable auto-search sequence.
type Run struct {
	runner   *Runner
	target   Target
	strategy Strategy
	cfg      RunConfig
	gen      uint64

	ctx    context.Context
	cancel context.CancelFunc
	events chan Event
	done   chan struct{}
	once   sync.Once

	steps int
	err   error
}

func (run *Run) Kind() Kind { return run.strategy.Kind() }

// Generation is the round the run was started against.
func (run *Run) Generation() uint64 { return run.gen }

// Events yields the steps lazily. The channel is closed when the run finishes.
func (run *Run) Events() <-chan Event { return run.events }

// Done is closed once the run has finished and released its target.
func (run *Run) Done() <-chan struct{} { return run.done }

// Cancel stops the run before its next reveal. Safe to call at any time.
func (run *Run) Cancel() { run.cancel() }

// Alive reports whether the run may still reveal. Targets that serialize
// reveals check it under their own lock, right before applying one.
func (run *Run) Alive() bool { return run.ctx.Err() == nil }

// Wait blocks until the run finishes or ctx is done.
func (run *Run) Wait(ctx context.Context) error {
	select {
	case <-run.done:
		return run.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the terminal error once Done is closed.
func (run *Run) Err() error {
	select {
	case <-run.done:
		return run.err
	default:
		return nil
	}
}

// Steps returns the number of events produced; meaningful after Done.
func (run *Run) Steps() int {
	select {
	case <-run.done:
		return run.steps
	default:
		return 0
	}
}

// Discard cancels the run and, if it was never executed, releases its target.
// On a run that is executing it only cancels.
func (run *Run) Discard() {
	run.cancel()
	_ = run.Execute(context.Background())
}

// Execute drives the run to completion. Cancelling ctx cancels the run.
// It returns nil when the winner was found or the round ended elsewhere,
// context.Canceled when cancelled, and game.ErrStaleSession when the round
// was replaced underneath it.
func (run *Run) Execute(ctx context.Context) error {
	first := false
	run.once.Do(func() { first = true })
	if !first {
		return ErrExecuted
	}

	stop := context.AfterFunc(ctx, run.cancel)
	defer stop()
	defer func() {
		run.cancel()
		close(run.events)
		run.runner.release(run)
		close(run.done)
	}()

	log := logger.FromContext(ctx).WithPrefix("auto-search").WithFields(map[string]any{
		"strategy":   run.strategy.Kind(),
		"generation": run.gen,
	})
	run.err = run.loop(log)
	switch {
	case run.err == nil:
		log.Debug("run finished after %d steps", run.steps)
	case errors.Is(run.err, context.Canceled):
		log.Debug("run cancelled after %d steps", run.steps)
	default:
		log.Warn("run stopped after %d steps: %v", run.steps, run.err)
	}
	return run.err
}

func (run *Run) loop(log *logger.Logger) error {
	for {
		// Checked immediately before every reveal.
		if err := run.ctx.Err(); err != nil {
			return err
		}
		if run.target.Ended() {
			log.Debug("round ended outside the run")
			return nil
		}

		ev, done, err := run.strategy.Step(liveTarget{Target: run.target, run: run}, run.gen)
		// A failed reveal leaves the event empty; generations start at 1.
		if err != nil && ev.Reveal.Generation == 0 {
			return err
		}
		run.steps++
		ev.Step = run.steps
		ev.Strategy = run.strategy.Kind()
		run.emit(ev, log)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-run.ctx.Done():
			return run.ctx.Err()
		case <-run.runner.clock.After(run.cfg.Delay):
		}
	}
}

func (run *Run) emit(ev Event, log *logger.Logger) {
	if run.cfg.Observe != nil {
		run.cfg.Observe(ev)
	}
	select {
	case run.events <- ev:
	default:
		log.Warn("event buffer full, dropping step %d", ev.Step)
	}
}

// liveTarget refuses reveals once the run is cancelled. Exclusions that
// follow an applied reveal still go through.
type liveTarget struct {
	Target
	run *Run
}

func (t liveTarget) RevealAt(gen uint64, index int) (game.RevealResult, error) {
	if err := t.run.ctx.Err(); err != nil {
		return game.RevealResult{}, err
	}
	return t.Target.RevealAt(gen, index)
}
