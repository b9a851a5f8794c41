//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"errors"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
	"github.com/obinnaokechukwu/ffwrap/internal/shim"
)

// LogLevel represents FFmpeg log levels.
type LogLevel int32

// Log level constants matching FFmpeg's AV_LOG_* values.
const (
	LogQuiet   LogLevel = -8 // Print no output
	LogPanic   LogLevel = 0  // Something went really wrong, crash
	LogFatal   LogLevel = 8  // Something went wrong, exit now
	LogError   LogLevel = 16 // Something went wrong, recovery possible
	LogWarning LogLevel = 24 // Something unexpected but recovery possible
	LogInfo    LogLevel = 32 // Standard information
	LogVerbose LogLevel = 40 // Detailed information
	LogDebug   LogLevel = 48 // Stuff for debugging
	LogTrace   LogLevel = 56 // Extremely verbose debugging
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch {
	case l <= LogQuiet:
		return "quiet"
	case l <= LogPanic:
		return "panic"
	case l <= LogFatal:
		return "fatal"
	case l <= LogError:
		return "error"
	case l <= LogWarning:
		return "warning"
	case l <= LogInfo:
		return "info"
	case l <= LogVerbose:
		return "verbose"
	case l <= LogDebug:
		return "debug"
	default:
		return "trace"
	}
}

// Level maps l onto a go-belt level. FFmpeg's panic and fatal levels map to
// logger.LevelError so forwarding a message never aborts the process.
func (l LogLevel) Level() logger.Level {
	switch {
	case l <= LogError:
		return logger.LevelError
	case l <= LogWarning:
		return logger.LevelWarning
	case l <= LogInfo:
		return logger.LevelInfo
	case l <= LogDebug:
		return logger.LevelDebug
	default:
		return logger.LevelTrace
	}
}

// LogLevelOf returns the FFmpeg level that lets through what a logger at
// level lvl would print.
func LogLevelOf(lvl logger.Level) LogLevel {
	switch lvl {
	case logger.LevelTrace:
		return LogTrace
	case logger.LevelDebug:
		return LogDebug
	case logger.LevelInfo:
		return LogInfo
	case logger.LevelWarning:
		return LogWarning
	case logger.LevelError:
		return LogError
	case logger.LevelPanic, logger.LevelFatal:
		return LogFatal
	default:
		return LogQuiet
	}
}

// bridge forwards av_log lines to l.
func bridge(l logger.Logger) ffi.LogFunc {
	return func(level int32, msg string) {
		msg = strings.TrimSpace(msg)
		if msg == "" {
			return
		}
		l.Logf(LogLevel(level).Level(), "%s", msg)
	}
}

func (r *runtime) setLogger(l logger.Logger) error {
	lib := r.lib.Load()
	if lib == nil {
		return averror.New(averror.NotLoaded, "set_logger", "library not loaded")
	}
	if l == nil {
		r.log.Store(nil)
		if err := (*lib).SetLogCallback(nil); err != nil && !errors.Is(err, shim.ErrShimNotLoaded) {
			return averror.Wrap(averror.LibraryReported, "set_logger", err)
		}
		return nil
	}
	r.log.Store(&l)
	(*lib).SetLogLevel(int32(LogLevelOf(l.Level())))
	err := (*lib).SetLogCallback(bridge(l))
	switch {
	case errors.Is(err, shim.ErrShimNotLoaded):
		l.Debugf("ffwrap shim not loaded, FFmpeg log output is not forwarded")
		return nil
	case err != nil:
		return averror.Wrap(averror.LibraryReported, "set_logger", err)
	}
	return nil
}

// SetLogger routes FFmpeg's log output and the package's own events to l.
// The FFmpeg log level follows l.Level(). Passing nil stops forwarding.
//
// Forwarding av_log output needs the ffwrap shim library; without it only
// the package's own events reach l.
func SetLogger(l logger.Logger) error {
	if err := std.init(); err != nil {
		return err
	}
	return std.setLogger(l)
}

// SetLogLevel sets the FFmpeg log level directly.
func SetLogLevel(level LogLevel) error {
	lib, err := std.library()
	if err != nil {
		return err
	}
	lib.SetLogLevel(int32(level))
	return nil
}
