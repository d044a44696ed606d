package search_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/boxhunt/internal/game"
	"github.com/vytor/boxhunt/internal/search"
)

func newSession(t *testing.T, boxCount, winner int, opts ...game.Option) *game.Session {
	t.Helper()
	opts = append(opts, game.WithPicker(func(int) int { return winner }))
	s, err := game.NewSession(boxCount, opts...)
	require.NoError(t, err)
	return s
}

// exhaust steps a strategy to completion and returns the revealed indices.
func exhaust(t *testing.T, s search.Strategy, sess *game.Session) []int {
	t.Helper()
	gen := sess.Generation()
	var mids []int
	for i := 0; i < 10_000; i++ {
		ev, done, err := s.Step(sess, gen)
		require.NoError(t, err)
		mids = append(mids, ev.Reveal.Index)
		if done {
			return mids
		}
	}
	t.Fatal("strategy did not terminate")
	return nil
}

func TestBinarySearch_SixteenBoxesWinnerZero(t *testing.T) {
	sess := newSession(t, 16, 0)

	mids := exhaust(t, search.NewBinarySearch(16), sess)

	assert.Equal(t, []int{7, 3, 1, 0}, mids)
	assert.True(t, sess.Ended())
	assert.Equal(t, 4, sess.TryCount())
}

func TestBinarySearch_StepBound(t *testing.T) {
	for n := 1; n <= 130; n++ {
		bound := int(math.Ceil(math.Log2(float64(n)))) + 1
		for w := 0; w < n; w++ {
			sess := newSession(t, n, w)
			mids := exhaust(t, search.NewBinarySearch(n), sess)
			require.True(t, sess.Ended(), "n=%d w=%d", n, w)
			require.LessOrEqual(t, len(mids), bound, "n=%d w=%d", n, w)
			require.LessOrEqual(t, len(mids), search.NewBinarySearch(n).MaxSteps(n))
			require.Equal(t, w, mids[len(mids)-1])
		}
	}
}

func TestBinarySearch_ExcludesEliminatedBoxes(t *testing.T) {
	sess := newSession(t, 10, 9, game.WithHint(game.DirectionalHint{}))
	gen := sess.Generation()
	bs := search.NewBinarySearch(10)

	ev, done, err := bs.Step(sess, gen)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 4, ev.Reveal.Index)
	assert.Equal(t, game.HigherLabel, ev.Reveal.Hint)
	assert.Equal(t, []int{0, 1, 2, 3}, ev.Excluded)
	assert.Equal(t, 5, ev.Low)
	assert.Equal(t, 9, ev.High)
	assert.Equal(t, 1, sess.TryCount(), "exclusion must not consume tries")

	board := sess.Snapshot()
	for i := 0; i < 4; i++ {
		assert.Equal(t, game.BoxExcluded, board.Boxes[i].State)
	}
	assert.Equal(t, game.BoxHidden, board.Boxes[5].State)
}

func TestBinarySearch_WorksWithoutDirectionalLabels(t *testing.T) {
	// Narrowing uses the reveal's direction, not the displayed label.
	sess := newSession(t, 100, 63)
	mids := exhaust(t, search.NewBinarySearch(100), sess)
	assert.Equal(t, 63, mids[len(mids)-1])
	assert.LessOrEqual(t, len(mids), 8)
}

func TestBinarySearch_UsesBoxesOpenedByHand(t *testing.T) {
	sess := newSession(t, 16, 12)
	_, err := sess.Reveal(7)
	require.NoError(t, err)

	mids := exhaust(t, search.NewBinarySearch(16), sess)

	assert.Equal(t, []int{7, 11, 13, 12}, mids)
	assert.Equal(t, 4, sess.TryCount(), "the box opened by hand is not counted twice")
}

func TestLinearScan_TakesWinnerPlusOneReveals(t *testing.T) {
	for _, n := range []int{1, 2, 10, 37} {
		for w := 0; w < n; w++ {
			sess := newSession(t, n, w)
			mids := exhaust(t, search.NewLinearScan(n), sess)
			require.Len(t, mids, w+1)
			require.Equal(t, w+1, sess.TryCount())
			require.True(t, sess.Ended())
		}
	}
}

func TestLinearScan_SkipsBoxesOpenedByHand(t *testing.T) {
	sess := newSession(t, 10, 5)
	for _, i := range []int{0, 1, 3} {
		_, err := sess.Reveal(i)
		require.NoError(t, err)
	}

	mids := exhaust(t, search.NewLinearScan(10), sess)

	assert.Equal(t, []int{2, 4, 5}, mids)
	assert.Equal(t, 6, sess.TryCount())
}

func TestStrategies_StopOnEndedRound(t *testing.T) {
	for _, kind := range []search.Kind{search.KindLinear, search.KindBinary} {
		t.Run(string(kind), func(t *testing.T) {
			sess := newSession(t, 8, 6)
			_, err := sess.Reveal(6)
			require.NoError(t, err)

			s, err := search.New(kind, 8)
			require.NoError(t, err)
			ev, done, err := s.Step(sess, sess.Generation())
			require.NoError(t, err)
			assert.True(t, done)
			assert.Equal(t, game.OutcomeNoop, ev.Reveal.Outcome)
			assert.Equal(t, 1, sess.TryCount())
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    search.Kind
		wantErr bool
	}{
		{in: "linear", want: search.KindLinear},
		{in: " Binary ", want: search.KindBinary},
		{in: "", want: search.KindNone},
		{in: "ternary", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := search.ParseKind(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, search.ErrUnknownKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := search.New(search.KindNone, 10)
	assert.ErrorIs(t, err, search.ErrUnknownKind)
}
