package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTrailingValueIsLoggedAsError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetCore(zap.New(core))
	t.Cleanup(func() { SetCore(zap.NewNop()) })

	Error("save failed", errors.New("boom"))
	Info("request done", "options", 3)

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "save failed", entries[0].Message)
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])

	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.EqualValues(t, 3, entries[1].ContextMap()["options"])
}
