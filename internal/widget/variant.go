package widget

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vytor/boxhunt/internal/game"
	"github.com/vytor/boxhunt/internal/search"
)

// ErrUnknownVariant is returned by ParseVariant and Presets.Lookup.
var ErrUnknownVariant = errors.New("unknown widget variant")

type Variant string

const (
	Classic Variant = "classic"
	Linear  Variant = "linear"
	Binary  Variant = "binary"
)

func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case Classic, Linear, Binary:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Preset is everything needed to build a widget of one variant.
type Preset struct {
	Variant  Variant
	BoxCount int
	Hint     game.HintStrategy
	Search   search.Kind
	Delay    time.Duration
}

// Presets maps each variant to its preset.
type Presets map[Variant]Preset

// NewPresets wires the three stock variants. Classic has no hint and no
// auto-search, linear demonstrates a left-to-right scan, binary pairs
// directional hints with a binary search.
func NewPresets(classicBoxes, linearBoxes, binaryBoxes int, linearDelay, binaryDelay time.Duration) Presets {
	return Presets{
		Classic: {Variant: Classic, BoxCount: classicBoxes, Hint: game.NoHint{}},
		Linear:  {Variant: Linear, BoxCount: linearBoxes, Hint: game.NoHint{}, Search: search.KindLinear, Delay: linearDelay},
		Binary:  {Variant: Binary, BoxCount: binaryBoxes, Hint: game.DirectionalHint{}, Search: search.KindBinary, Delay: binaryDelay},
	}
}

// DefaultPresets matches the stock configuration.
func DefaultPresets() Presets {
	return NewPresets(10, 10, 100, search.DefaultLinearDelay, search.DefaultBinaryDelay)
}

func (p Presets) Lookup(v Variant) (Preset, error) {
	preset, ok := p[v]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
	return preset, nil
}
