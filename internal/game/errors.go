package game

import "errors"

var (
	// ErrInvalidBoxCount is returned by Setup, Resize and NewSession for non-positive counts.
	ErrInvalidBoxCount = errors.New("box count must be a positive integer")
	// ErrIndexOutOfRange signals a caller bug: every valid index comes from a rendered box.
	ErrIndexOutOfRange = errors.New("box index out of range")
	// ErrNotEnded is returned by EndSession while the winning box is still hidden.
	ErrNotEnded = errors.New("round has not ended")
	// ErrDoubleFinalize is returned when EndSession is called twice for one round.
	ErrDoubleFinalize = errors.New("round already finalized")
	// ErrStaleSession is returned when a generation-scoped call targets a replaced round.
	ErrStaleSession = errors.New("round was replaced")
)
