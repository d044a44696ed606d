package game

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"
)

// Outcome is the result of a single reveal.
type Outcome int

const (
	OutcomeNoop Outcome = iota
	OutcomeMiss
	OutcomeWin
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMiss:
		return "miss"
	case OutcomeWin:
		return "win"
	default:
		return "noop"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "noop":
		*o = OutcomeNoop
	case "miss":
		*o = OutcomeMiss
	case "win":
		*o = OutcomeWin
	default:
		return fmt.Errorf("game: unknown outcome %q", b)
	}
	return nil
}

// RevealResult describes what a reveal did to the round.
type RevealResult struct {
	Index      int       `json:"index"`
	Outcome    Outcome   `json:"outcome"`
	Hint       string    `json:"hint,omitempty"`
	Direction  Direction `json:"-"`
	TryCount   int       `json:"try_count"`
	Generation uint64    `json:"generation"`
}

// Picker chooses the winning index for a new round. It must return a value in [0, boxCount).
type Picker func(boxCount int) int

func randomPicker(boxCount int) int {
	return rand.Intn(boxCount)
}

type Option func(*Session)

// WithHint sets the label strategy for misses. NoHint is the default.
func WithHint(h HintStrategy) Option {
	return func(s *Session) {
		if h != nil {
			s.hint = h
		}
	}
}

// WithPicker replaces the uniform random winner selection.
func WithPicker(p Picker) Option {
	return func(s *Session) {
		if p != nil {
			s.pick = p
		}
	}
}

type round struct {
	boxCount  int
	winning   int
	labels    []string
	excluded  []bool
	tries     int
	ended     bool
	finalized bool
}

// Session owns the current round and the statistics that outlive it.
// All methods are safe for concurrent use.
type Session struct {
	mu    sync.Mutex
	hint  HintStrategy
	pick  Picker
	gen   uint64
	cur   *round
	stats Statistics
}

// NewSession creates a session and sets up its first round.
func NewSession(boxCount int, opts ...Option) (*Session, error) {
	s := &Session{
		hint:  NoHint{},
		pick:  randomPicker,
		stats: NewStatistics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Setup(boxCount); err != nil {
		return nil, err
	}
	return s, nil
}

// Setup replaces the current round with a fresh one of boxCount boxes.
func (s *Session) Setup(boxCount int) error {
	if boxCount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBoxCount, boxCount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setupLocked(boxCount)
	return nil
}

func (s *Session) setupLocked(boxCount int) {
	winning := s.pick(boxCount)
	if winning < 0 || winning >= boxCount {
		panic(fmt.Sprintf("game: picker returned %d for %d boxes", winning, boxCount))
	}
	s.gen++
	s.cur = &round{
		boxCount: boxCount,
		winning:  winning,
		labels:   make([]string, boxCount),
		excluded: make([]bool, boxCount),
	}
}

// Resize clears all statistics and starts a round with the new box count.
func (s *Session) Resize(boxCount int) error {
	if boxCount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBoxCount, boxCount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = NewStatistics()
	s.setupLocked(boxCount)
	return nil
}

// Reveal opens a box in the current round.
func (s *Session) Reveal(index int) (RevealResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealLocked(index)
}

// RevealAt opens a box only if gen still identifies the current round.
func (s *Session) RevealAt(gen uint64, index int) (RevealResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return RevealResult{}, ErrStaleSession
	}
	return s.revealLocked(index)
}

func (s *Session) revealLocked(index int) (RevealResult, error) {
	r := s.cur
	if index < 0 || index >= r.boxCount {
		return RevealResult{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, r.boxCount)
	}
	res := RevealResult{Index: index, TryCount: r.tries, Generation: s.gen}
	if r.ended {
		return res, nil
	}
	if r.labels[index] != "" {
		// Already open: the direction is public through its hint.
		res.Direction = compare(index, r.winning)
		return res, nil
	}

	r.tries++
	r.excluded[index] = false
	res.TryCount = r.tries
	if index == r.winning {
		r.ended = true
		r.labels[index] = WinLabel
		res.Outcome = OutcomeWin
		return res, nil
	}

	res.Outcome = OutcomeMiss
	res.Hint = s.hint.Hint(index, r.winning)
	if res.Hint == "" {
		res.Hint = MissLabel
	}
	res.Direction = compare(index, r.winning)
	r.labels[index] = res.Hint
	return res, nil
}

// Exclude marks the hidden boxes in [from, to] as eliminated without consuming tries.
// It returns the indices that changed.
func (s *Session) Exclude(gen uint64, from, to int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil, ErrStaleSession
	}
	r := s.cur
	if r.ended {
		return nil, nil
	}
	from = max(from, 0)
	to = min(to, r.boxCount-1)
	var out []int
	for i := from; i <= to; i++ {
		if r.labels[i] != "" || r.excluded[i] {
			continue
		}
		r.excluded[i] = true
		out = append(out, i)
	}
	return out, nil
}

// EndSession folds the ended round into the statistics. It must be called once per win.
func (s *Session) EndSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.cur
	if !r.ended {
		return ErrNotEnded
	}
	if r.finalized {
		return ErrDoubleFinalize
	}
	r.finalized = true
	s.stats.record(r.tries)
	return nil
}

func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Session) BoxCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.boxCount
}

func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.ended
}

func (s *Session) TryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.tries
}

// Stats returns a copy of the accumulated statistics.
func (s *Session) Stats() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.clone()
}

// WinLabel is shown on the winning box.
const WinLabel = "WIN"

type BoxState string

const (
	BoxHidden   BoxState = "hidden"
	BoxMiss     BoxState = "miss"
	BoxWin      BoxState = "win"
	BoxExcluded BoxState = "excluded"
	// BoxDisabled is a box left unopened when the round ended.
	BoxDisabled BoxState = "disabled"
)

type Box struct {
	Index int      `json:"index"`
	State BoxState `json:"state"`
	Label string   `json:"label"`
}

// Board is a point-in-time view of the current round for display.
type Board struct {
	Generation uint64 `json:"generation"`
	BoxCount   int    `json:"box_count"`
	TryCount   int    `json:"try_count"`
	Ended      bool   `json:"ended"`
	Finalized  bool   `json:"finalized"`
	// WinningIndex is -1 until the round ends.
	WinningIndex int   `json:"winning_index"`
	Boxes        []Box `json:"boxes"`
}

// Snapshot renders the current round.
func (s *Session) Snapshot() Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.cur
	b := Board{
		Generation:   s.gen,
		BoxCount:     r.boxCount,
		TryCount:     r.tries,
		Ended:        r.ended,
		Finalized:    r.finalized,
		WinningIndex: -1,
		Boxes:        make([]Box, r.boxCount),
	}
	if r.ended {
		b.WinningIndex = r.winning
	}
	for i := range b.Boxes {
		box := Box{Index: i, State: BoxHidden, Label: strconv.Itoa(i + 1)}
		switch {
		case i == r.winning && r.ended:
			box.State, box.Label = BoxWin, r.labels[i]
		case r.labels[i] != "":
			box.State, box.Label = BoxMiss, r.labels[i]
		case r.excluded[i]:
			box.State = BoxExcluded
		case r.ended:
			box.State = BoxDisabled
		}
		b.Boxes[i] = box
	}
	return b
}
