package search

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"github.com/vytor/boxhunt/internal/game"
)

var (
	// ErrAlreadyRunning rejects a second run on a target that already has one.
	ErrAlreadyRunning = errors.New("auto-search already running")
	// ErrExhausted means the candidate range emptied without a win. With truthful
	// directions this cannot happen, so it is reported as an internal error.
	ErrExhausted = errors.New("search range exhausted without finding the winner")
	// ErrUnknownKind is returned by ParseKind and New.
	ErrUnknownKind = errors.New("unknown search kind")
)

// Target is the board a strategy reveals boxes on. Every call is scoped to the
// generation captured when the run started, so a replaced round is never touched.
// *game.Session implements it.
type Target interface {
	BoxCount() int
	Generation() uint64
	Ended() bool
	RevealAt(gen uint64, index int) (game.RevealResult, error)
	Exclude(gen uint64, from, to int) ([]int, error)
}

// Event is one step of an auto-search run.
type Event struct {
	Step     int               `json:"step"`
	Strategy Kind              `json:"strategy"`
	Reveal   game.RevealResult `json:"reveal"`
	// Low and High bound the remaining candidates after this step.
	Low      int   `json:"low"`
	High     int   `json:"high"`
	Excluded []int `json:"excluded,omitempty"`
}

// Strategy decides which box to reveal next. Strategies keep per-run state and
// must not be shared between runs.
type Strategy interface {
	Kind() Kind
	// MaxSteps bounds the number of events produced for a board of n boxes.
	MaxSteps(n int) int
	// Step reveals the next box. done is true once the run has nothing left to do.
	Step(t Target, gen uint64) (ev Event, done bool, err error)
}

type Kind string

const (
	KindNone   Kind = ""
	KindLinear Kind = "linear"
	KindBinary Kind = "binary"
)

// ParseKind accepts the names used in configuration and requests.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindNone, KindLinear, KindBinary:
		return k, nil
	}
	return KindNone, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// New builds a fresh strategy of the given kind for a board of boxCount boxes.
func New(kind Kind, boxCount int) (Strategy, error) {
	switch kind {
	case KindLinear:
		return NewLinearScan(boxCount), nil
	case KindBinary:
		return NewBinarySearch(boxCount), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// LinearScan reveals boxes from left to right.
type LinearScan struct {
	next     int
	boxCount int
}

func NewLinearScan(boxCount int) *LinearScan {
	return &LinearScan{boxCount: boxCount}
}

func (l *LinearScan) Kind() Kind { return KindLinear }

func (l *LinearScan) MaxSteps(n int) int { return n }

func (l *LinearScan) Step(t Target, gen uint64) (Event, bool, error) {
	for l.next < l.boxCount {
		idx := l.next
		l.next++
		res, err := t.RevealAt(gen, idx)
		if err != nil {
			return Event{}, true, err
		}
		ev := Event{Reveal: res, Low: l.next, High: l.boxCount - 1}
		switch res.Outcome {
		case game.OutcomeWin:
			ev.Low, ev.High = idx, idx
			return ev, true, nil
		case game.OutcomeMiss:
			return ev, false, nil
		}
		// Noop: opened by hand earlier, or the round ended under us.
		if res.Direction == game.DirectionNone {
			return ev, true, nil
		}
	}
	return Event{}, true, ErrExhausted
}

// BinarySearch halves the candidate range using the direction of each miss.
type BinarySearch struct {
	low, high int
}

func NewBinarySearch(boxCount int) *BinarySearch {
	return &BinarySearch{low: 0, high: boxCount - 1}
}

func (b *BinarySearch) Kind() Kind { return KindBinary }

// MaxSteps is floor(log2(n)) + 1.
func (b *BinarySearch) MaxSteps(n int) int {
	if n <= 0 {
		return 0
	}
	return bits.Len(uint(n))
}

// Bounds returns the current candidate range.
func (b *BinarySearch) Bounds() (low, high int) { return b.low, b.high }

func (b *BinarySearch) Step(t Target, gen uint64) (Event, bool, error) {
	if b.low > b.high {
		return Event{}, true, ErrExhausted
	}
	mid := (b.low + b.high) / 2
	res, err := t.RevealAt(gen, mid)
	if err != nil {
		return Event{}, true, err
	}
	ev := Event{Reveal: res}

	var from, to int
	switch {
	case res.Outcome == game.OutcomeWin:
		ev.Low, ev.High = mid, mid
		return ev, true, nil
	case res.Direction == game.DirectionHigher:
		from, to = b.low, mid-1
		b.low = mid + 1
	case res.Direction == game.DirectionLower:
		from, to = mid+1, b.high
		b.high = mid - 1
	default:
		// The round ended outside this run.
		ev.Low, ev.High = b.low, b.high
		return ev, true, nil
	}
	ev.Low, ev.High = b.low, b.high

	excluded, err := t.Exclude(gen, from, to)
	if err != nil {
		return ev, true, err
	}
	ev.Excluded = excluded

	if b.low > b.high {
		return ev, true, ErrExhausted
	}
	return ev, false, nil
}
