//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"syscall"

	"github.com/obinnaokechukwu/ffwrap/averror"
)

// AVERROR codes returned by the bindings.
const (
	AVERROR_EOF         = averror.CodeEOF
	AVERROR_EAGAIN      = averror.CodeAgain
	AVERROR_EINVAL      = averror.CodeInvalid
	AVERROR_ENOMEM      = averror.CodeNoMemory
	AVERROR_INVALIDDATA = averror.CodeInvalidData

	AVERROR_FILTER_NOT_FOUND = averror.CodeFilterMissing

	// ENOSYS is returned by a binding whose symbol was not bound.
	ENOSYS int32 = -int32(syscall.ENOSYS)
)

// Err converts a negative code into a LibraryReported error carrying the
// library's message. It returns nil for code >= 0.
func Err(code int32, op string) error {
	if e := averror.FromCode(code, op, ErrorString(code)); e != nil {
		return e
	}
	return nil
}
