package mylog

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTelegramFilter(t *testing.T) {
	ctx := context.Background()

	errRecord := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	assert.True(t, telegramFilter(ctx, errRecord))

	infoRecord := slog.NewRecord(time.Now(), slog.LevelInfo, "spoken", 0)
	assert.False(t, telegramFilter(ctx, infoRecord))

	infoRecord.AddAttrs(slog.Bool(TelegramKey, true))
	assert.True(t, telegramFilter(ctx, infoRecord))
}
