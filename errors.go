//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"github.com/obinnaokechukwu/ffwrap/averror"
)

// Error is the structured error every fallible operation reports.
type Error = averror.Error

// Slot receives the outcome of an operation instead of a returned error.
type Slot = averror.Slot

// Error code constants re-exported from averror.
const (
	AVERROR_EOF              = averror.CodeEOF
	AVERROR_EAGAIN           = averror.CodeAgain
	AVERROR_EINVAL           = averror.CodeInvalid
	AVERROR_ENOMEM           = averror.CodeNoMemory
	AVERROR_INVALIDDATA      = averror.CodeInvalidData
	AVERROR_OPTION_NOT_FOUND = averror.CodeOptionNotFound
)

// IsEOF reports whether err is AVERROR_EOF or io.EOF.
func IsEOF(err error) bool {
	return averror.IsEOF(err)
}

// IsAgain reports whether err is AVERROR(EAGAIN).
func IsAgain(err error) bool {
	return averror.IsAgain(err)
}

// ErrorCode returns the FFmpeg error code carried by err, or 0.
func ErrorCode(err error) int32 {
	return averror.CodeOf(err)
}
