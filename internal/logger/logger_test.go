package logger_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/boxhunt/internal/logger"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logger.Level
		ok   bool
	}{
		{in: "debug", want: logger.DEBUG, ok: true},
		{in: "INFO", want: logger.INFO, ok: true},
		{in: "warning", want: logger.WARN, ok: true},
		{in: " Error ", want: logger.ERROR, ok: true},
		{in: "verbose", want: logger.INFO, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := logger.LookupLevel(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, logger.ParseLevel(tt.in))
		})
	}
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevel(logger.WARN), logger.WithColors(false))

	log.Info("hidden")
	log.Warn("shown %d", 1)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "shown 1")
}

func TestLogger_FieldsAndPrefix(t *testing.T) {
	var buf bytes.Buffer
	root := logger.New(logger.WithOutput(&buf), logger.WithLevel(logger.DEBUG), logger.WithColors(false))

	child := root.WithPrefix("auto-search").WithFields(map[string]any{"widget": "w1", "boxes": 10})
	child.Debug("step")

	line := buf.String()
	assert.Contains(t, line, "[auto-search]")
	assert.Contains(t, line, "step boxes=10 widget=w1")

	buf.Reset()
	root.Debug("plain")
	assert.NotContains(t, buf.String(), "widget=")
}

func TestContext(t *testing.T) {
	l := logger.Discard()
	ctx := logger.NewContext(context.Background(), l)
	assert.Same(t, l, logger.FromContext(ctx))
	assert.Same(t, logger.Default(), logger.FromContext(context.Background()))
}
