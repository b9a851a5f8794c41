// Package averror implements the error channel shared by every fallible
// ffwrap operation.
//
// Each operation takes a *Slot as its last argument. Passing nil selects the
// returning form: a failure comes back as a non-nil *Error. Passing a Slot
// selects the slot form: the outcome is written into the slot and the
// returned error is always nil. Both forms go through Result.Deliver, so they
// classify failures identically.
package averror

import "syscall"

// Domain classifies an Error.
type Domain int32

// Error domains.
const (
	DomainNone Domain = iota
	InvalidArgument
	OutOfRange
	AlreadyOpen
	NotOpen
	ResamplerInputChanged
	ResamplerOutputChanged
	ResamplerNotInitialized
	ResamplerInvalidParameters
	RescalerInvalidParameters
	RescalerInternalError
	DictionaryKeyNotFound
	DictionaryIndexOutOfRange
	LibraryReported
	NotLoaded
	OutOfMemory
)

var domainNames = map[Domain]string{
	DomainNone:                 "none",
	InvalidArgument:            "invalid argument",
	OutOfRange:                 "out of range",
	AlreadyOpen:                "already open",
	NotOpen:                    "not open",
	ResamplerInputChanged:      "resampler input changed",
	ResamplerOutputChanged:     "resampler output changed",
	ResamplerNotInitialized:    "resampler not initialized",
	ResamplerInvalidParameters: "resampler invalid parameters",
	RescalerInvalidParameters:  "rescaler invalid parameters",
	RescalerInternalError:      "rescaler internal error",
	DictionaryKeyNotFound:      "dictionary key not found",
	DictionaryIndexOutOfRange:  "dictionary index out of range",
	LibraryReported:            "library reported",
	NotLoaded:                  "not loaded",
	OutOfMemory:                "out of memory",
}

// String returns the domain name.
func (d Domain) String() string {
	if s, ok := domainNames[d]; ok {
		return s
	}
	return "unknown"
}

// Error lets a Domain act as a sentinel: errors.Is(err, averror.NotOpen).
func (d Domain) Error() string {
	return "ffwrap: " + d.String()
}

// Class returns the coarse class the domain belongs to. Index and offset
// failures are reported as OutOfRange but belong to the InvalidArgument class.
func (d Domain) Class() Domain {
	switch d {
	case OutOfRange, DictionaryIndexOutOfRange:
		return InvalidArgument
	default:
		return d
	}
}

// FFmpeg error codes (AVERROR values) the wrapper inspects.
const (
	CodeEOF            int32 = -541478725 // AVERROR_EOF
	CodeAgain          int32 = -int32(syscall.EAGAIN)
	CodeInvalid        int32 = -int32(syscall.EINVAL)
	CodeNoMemory       int32 = -int32(syscall.ENOMEM)
	CodeNotFound       int32 = -int32(syscall.ENOENT)
	CodeInvalidData    int32 = -1094995529 // AVERROR_INVALIDDATA
	CodeOptionNotFound int32 = -1414549496 // AVERROR_OPTION_NOT_FOUND
	CodeInputChanged   int32 = -1668179713 // AVERROR_INPUT_CHANGED
	CodeOutputChanged  int32 = -1668179714 // AVERROR_OUTPUT_CHANGED
	CodeDecoderMissing int32 = -1128613112 // AVERROR_DECODER_NOT_FOUND
	CodeEncoderMissing int32 = -1129203192 // AVERROR_ENCODER_NOT_FOUND
	CodeFilterMissing  int32 = -1279870712 // AVERROR_FILTER_NOT_FOUND
	CodeBug            int32 = -558323010  // AVERROR_BUG
	CodeUnknown        int32 = -1313558101 // AVERROR_UNKNOWN
)
