package widget_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/boxhunt/internal/widget"
)

func TestRegistry(t *testing.T) {
	clk := clockwork.NewFakeClock()
	reg := widget.NewRegistry()

	first := newWidget(t, preset(widget.Classic, 10), widget.WithClock(clk))
	clk.Advance(time.Second)
	second := newWidget(t, preset(widget.Binary, 100), widget.WithClock(clk))
	reg.Add(second)
	reg.Add(first)

	assert.Equal(t, 2, reg.Len())
	assert.Same(t, first, reg.Get(first.ID()))
	assert.Nil(t, reg.Get("missing"))

	list := reg.List()
	require.Len(t, list, 2)
	assert.Same(t, first, list[0])
	assert.Same(t, second, list[1])

	assert.True(t, reg.Remove(first.ID()))
	assert.False(t, reg.Remove(first.ID()))
	assert.Nil(t, reg.Get(first.ID()))
	assert.Equal(t, widget.ErrClosed, first.Reset())

	reg.CloseAll()
	assert.Equal(t, 0, reg.Len())
	assert.ErrorIs(t, second.Reset(), widget.ErrClosed)
}

func TestBroker(t *testing.T) {
	b := widget.NewBroker()
	fast, unsubFast := b.Subscribe(4)
	slow, unsubSlow := b.Subscribe(1)
	assert.Equal(t, 2, b.Subscribers())

	assert.Equal(t, 2, b.Publish(widget.Event{Type: widget.EventReset}))
	assert.Equal(t, 1, b.Publish(widget.Event{Type: widget.EventResize}), "full subscribers are skipped")

	assert.Equal(t, widget.EventReset, (<-fast).Type)
	assert.Equal(t, widget.EventResize, (<-fast).Type)
	assert.Equal(t, widget.EventReset, (<-slow).Type)

	unsubSlow()
	unsubSlow()
	_, ok := <-slow
	assert.False(t, ok)
	assert.Equal(t, 1, b.Subscribers())

	b.Close()
	_, ok = <-fast
	assert.False(t, ok)
	unsubFast()

	late, _ := b.Subscribe(1)
	_, ok = <-late
	assert.False(t, ok)
	assert.Equal(t, 0, b.Publish(widget.Event{Type: widget.EventReset}))
}
