//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"testing"

	"github.com/facebookincubator/go-belt/tool/logger"
	belt "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi/ffitest"
)

func TestLogLevelMapping(t *testing.T) {
	cases := []struct {
		av   LogLevel
		want logger.Level
	}{
		{LogPanic, logger.LevelError},
		{LogFatal, logger.LevelError},
		{LogError, logger.LevelError},
		{LogWarning, logger.LevelWarning},
		{LogInfo, logger.LevelInfo},
		{LogVerbose, logger.LevelDebug},
		{LogDebug, logger.LevelDebug},
		{LogTrace, logger.LevelTrace},
	}
	for _, tc := range cases {
		t.Run(tc.av.String(), func(t *testing.T) {
			require.Equal(t, tc.want, tc.av.Level())
		})
	}

	require.Equal(t, LogTrace, LogLevelOf(logger.LevelTrace))
	require.Equal(t, LogWarning, LogLevelOf(logger.LevelWarning))
	require.Equal(t, LogFatal, LogLevelOf(logger.LevelFatal))
	require.Equal(t, LogQuiet, LogLevelOf(logger.LevelUndefined))
	require.Equal(t, "quiet", LogQuiet.String())
}

func captureLogger() (logger.Logger, *logrustest.Hook) {
	base, hook := logrustest.NewNullLogger()
	base.SetLevel(logrus.TraceLevel)
	return belt.New(base).WithLevel(logger.LevelTrace), hook
}

func TestSetLoggerForwardsLibraryLines(t *testing.T) {
	lib := ffitest.New()
	l, hook := captureLogger()
	r := newRuntime()
	require.NoError(t, r.init(WithLibrary(lib), WithLogger(l)))
	require.Equal(t, int32(LogTrace), lib.LogLevel())

	lib.Log(int32(LogError), "marker: invalid marker byte 0xee\n")
	lib.Log(int32(LogDebug), "  \n")
	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	require.Equal(t, logrus.ErrorLevel, entry.Level)
	require.Contains(t, entry.Message, "invalid marker byte 0xee")

	require.NoError(t, r.setLogger(nil))
	lib.Log(int32(LogError), "dropped")
	require.Len(t, hook.AllEntries(), 1)
	require.Equal(t, defaultLogger, r.logger())
}

func TestSetLoggerBeforeInit(t *testing.T) {
	l, _ := captureLogger()
	require.ErrorIs(t, newRuntime().setLogger(l), averror.NotLoaded)
}

func TestObjectLoggerReceivesEvents(t *testing.T) {
	lib, with := newFake(t)
	l, hook := captureLogger()

	dec, err := FindDecoderByName("marker", with)
	require.NoError(t, err)
	ctx, err := NewCodecContext(dec, Decoding, with, WithLogger(l))
	require.NoError(t, err)
	defer ctx.Close()
	require.NoError(t, ctx.Open(nil, nil))

	var opened bool
	for _, e := range hook.AllEntries() {
		if e.Message == "opened" {
			opened = true
		}
	}
	require.True(t, opened)
	require.Zero(t, lib.Live()["dict"])
}
