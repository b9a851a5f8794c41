//go:build !ios && !android && (amd64 || arm64)

package avcodec

// CodecID is an AVCodecID.
type CodecID int32

const (
	CodecIDNone CodecID = 0

	CodecIDMPEG1VIDEO CodecID = 1
	CodecIDMPEG2VIDEO CodecID = 2
	CodecIDH263       CodecID = 4
	CodecIDMJPEG      CodecID = 7
	CodecIDMPEG4      CodecID = 12
	CodecIDRAWVIDEO   CodecID = 13
	CodecIDH264       CodecID = 27
	CodecIDVP8        CodecID = 139
	CodecIDVP9        CodecID = 167
	CodecIDHEVC       CodecID = 173
	CodecIDAV1        CodecID = 226

	// Audio codec IDs start at 0x10000.
	CodecIDPCMS16LE CodecID = 0x10000
	CodecIDMP2      CodecID = 0x15000
	CodecIDMP3      CodecID = 0x15001
	CodecIDAAC      CodecID = 0x15002
	CodecIDAC3      CodecID = 0x15003
	CodecIDVorbis   CodecID = 0x15005
	CodecIDFLAC     CodecID = 0x1500C
	CodecIDOpus     CodecID = 0x1503C
)
