package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"info":    LevelInfo,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestSetLevelSharedWithChildren(t *testing.T) {
	l := NewWithConfig(Config{Level: "error", Format: "json"})
	child := l.With(String("component", "test"))

	assert.Equal(t, LevelError, l.GetLevel())
	l.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, child.GetLevel())
}

func TestNopDiscards(t *testing.T) {
	l := NewNop()
	assert.NotPanics(t, func() {
		l.Info("ignored", Int("n", 1), Bool("ok", true))
		l.With(String("k", "v")).Warn("ignored")
	})
}

func TestProvideBuildsOnce(t *testing.T) {
	first := Provide(Config{Level: "warn"})
	assert.Same(t, first, Provide(Config{Level: "debug", Format: "console"}))
}
