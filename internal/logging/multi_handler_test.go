package logging

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	level   slog.Level
	fail    error
	handled []string
}

func (h *recordingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *recordingHandler) Handle(_ context.Context, record slog.Record) error {
	h.handled = append(h.handled, record.Message)
	return h.fail
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func TestMultiHandler_FanOut(t *testing.T) {
	ctx := context.Background()
	stdout := &recordingHandler{level: slog.LevelInfo}
	db := &recordingHandler{level: slog.LevelError}
	m := NewMultiHandler(stdout, db)

	assert.True(t, m.Enabled(ctx, slog.LevelInfo))
	assert.False(t, m.Enabled(ctx, slog.LevelDebug))

	info := slog.NewRecord(time.Now(), slog.LevelInfo, "routine", 0)
	require.NoError(t, m.Handle(ctx, info))
	assert.Equal(t, []string{"routine"}, stdout.handled)
	assert.Empty(t, db.handled, "below the sink's level")

	failure := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	require.NoError(t, m.Handle(ctx, failure))
	assert.Equal(t, []string{"routine", "boom"}, stdout.handled)
	assert.Equal(t, []string{"boom"}, db.handled)
}

func TestMultiHandler_FailingSinkDoesNotStopDelivery(t *testing.T) {
	ctx := context.Background()
	broken := &recordingHandler{level: slog.LevelInfo, fail: errors.New("sink down")}
	healthy := &recordingHandler{level: slog.LevelInfo}
	m := NewMultiHandler(broken, healthy)

	record := slog.NewRecord(time.Now(), slog.LevelError, "database unreachable", 0)
	err := m.Handle(ctx, record)

	assert.Error(t, err)
	assert.Equal(t, []string{"database unreachable"}, healthy.handled)
}
