//go:build !ios && !android && (amd64 || arm64)

// Package avutil binds the parts of libavutil ffwrap uses: frames,
// dictionaries, error strings, channel layouts and logging.
//
// Functions return the library's raw int32 codes; negative values are
// AVERROR codes.
package avutil

import (
	"sync"
	"unsafe"

	"github.com/obinnaokechukwu/ffwrap/internal/bindings"
)

// Frame is an opaque AVFrame pointer.
type Frame = unsafe.Pointer

// Dictionary is an opaque AVDictionary pointer.
type Dictionary = unsafe.Pointer

// DictionaryEntry is an opaque AVDictionaryEntry pointer.
type DictionaryEntry = unsafe.Pointer

var (
	avutilVersion func() uint32

	avFrameAlloc        func() unsafe.Pointer
	avFrameFree         func(frame *unsafe.Pointer)
	avFrameRef          func(dst, src unsafe.Pointer) int32
	avFrameUnref        func(frame unsafe.Pointer)
	avFrameGetBuffer    func(frame unsafe.Pointer, align int32) int32
	avFrameIsWritable   func(frame unsafe.Pointer) int32
	avFrameMakeWritable func(frame unsafe.Pointer) int32

	avBufferIsWritable func(buf unsafe.Pointer) int32

	avMalloc func(size uintptr) unsafe.Pointer
	avFree   func(ptr unsafe.Pointer)

	avDictSet  func(pm *unsafe.Pointer, key, value string, flags int32) int32
	avDictGet  func(m unsafe.Pointer, key string, prev unsafe.Pointer, flags int32) unsafe.Pointer
	avDictFree func(pm *unsafe.Pointer)

	avStrerror func(errnum int32, errbuf unsafe.Pointer, size uintptr) int32

	avChannelLayoutDefault  func(chLayout unsafe.Pointer, nbChannels int32)
	avChannelLayoutFromMask func(chLayout unsafe.Pointer, mask uint64) int32

	avOptSet    func(obj unsafe.Pointer, name, val string, flags int32) int32
	avOptSetInt func(obj unsafe.Pointer, name string, val int64, flags int32) int32

	avLogSetLevel func(level int32)

	bindOnce sync.Once
	bindErr  error
)

// Bind registers the libavutil symbols. bindings.Load must have succeeded.
func Bind() error {
	bindOnce.Do(func() {
		if !bindings.Has(bindings.AVUtil) {
			bindErr = bindings.ErrNotLoaded
			return
		}
		lib := bindings.AVUtil
		bindings.Register(&avutilVersion, lib, "avutil_version")

		bindings.Register(&avFrameAlloc, lib, "av_frame_alloc")
		bindings.Register(&avFrameFree, lib, "av_frame_free")
		bindings.Register(&avFrameRef, lib, "av_frame_ref")
		bindings.Register(&avFrameUnref, lib, "av_frame_unref")
		bindings.Register(&avFrameGetBuffer, lib, "av_frame_get_buffer")
		bindings.Register(&avFrameIsWritable, lib, "av_frame_is_writable")
		bindings.Register(&avFrameMakeWritable, lib, "av_frame_make_writable")

		bindings.Register(&avBufferIsWritable, lib, "av_buffer_is_writable")

		bindings.Register(&avMalloc, lib, "av_malloc")
		bindings.Register(&avFree, lib, "av_free")

		bindings.Register(&avDictSet, lib, "av_dict_set")
		bindings.Register(&avDictGet, lib, "av_dict_get")
		bindings.Register(&avDictFree, lib, "av_dict_free")

		bindings.Register(&avStrerror, lib, "av_strerror")

		// FFmpeg 5.1+
		bindings.RegisterOptional(&avChannelLayoutDefault, lib, "av_channel_layout_default")
		bindings.RegisterOptional(&avChannelLayoutFromMask, lib, "av_channel_layout_from_mask")

		bindings.Register(&avOptSet, lib, "av_opt_set")
		bindings.Register(&avOptSetInt, lib, "av_opt_set_int")

		bindings.Register(&avLogSetLevel, lib, "av_log_set_level")
	})
	return bindErr
}

// Version returns the packed libavutil version, or 0 if not bound.
func Version() uint32 {
	if avutilVersion == nil {
		return 0
	}
	return avutilVersion()
}

// FrameAlloc allocates an empty AVFrame.
func FrameAlloc() Frame {
	if avFrameAlloc == nil {
		return nil
	}
	return avFrameAlloc()
}

// FrameFree frees the frame and nils the pointer. Safe on nil.
func FrameFree(frame *Frame) {
	if frame == nil || *frame == nil || avFrameFree == nil {
		return
	}
	avFrameFree(frame)
	*frame = nil
}

// FrameRef makes dst reference the buffers of src.
func FrameRef(dst, src Frame) int32 {
	if avFrameRef == nil {
		return ENOSYS
	}
	return avFrameRef(dst, src)
}

// FrameUnref drops the buffers referenced by frame.
func FrameUnref(frame Frame) {
	if frame == nil || avFrameUnref == nil {
		return
	}
	avFrameUnref(frame)
}

// FrameGetBuffer allocates buffers for the format and size already set on the
// frame.
func FrameGetBuffer(frame Frame, align int32) int32 {
	if avFrameGetBuffer == nil {
		return ENOSYS
	}
	return avFrameGetBuffer(frame, align)
}

// FrameIsWritable reports whether frame is the only reference to its buffers.
func FrameIsWritable(frame Frame) bool {
	if frame == nil || avFrameIsWritable == nil {
		return false
	}
	return avFrameIsWritable(frame) != 0
}

// FrameMakeWritable copies shared buffers so frame owns them.
func FrameMakeWritable(frame Frame) int32 {
	if avFrameMakeWritable == nil {
		return ENOSYS
	}
	return avFrameMakeWritable(frame)
}

// BufferIsWritable reports whether an AVBufferRef has a single reference.
func BufferIsWritable(buf unsafe.Pointer) bool {
	if buf == nil || avBufferIsWritable == nil {
		return false
	}
	return avBufferIsWritable(buf) != 0
}

// Malloc allocates memory with the library allocator.
func Malloc(size uintptr) unsafe.Pointer {
	if avMalloc == nil {
		return nil
	}
	return avMalloc(size)
}

// Free releases memory from Malloc.
func Free(ptr unsafe.Pointer) {
	if ptr == nil || avFree == nil {
		return
	}
	avFree(ptr)
}

// Dictionary flags.
const (
	DictMatchCase     = 1
	DictIgnoreSuffix  = 2
	DictDontOverwrite = 16
)

// DictSet stores key=value, allocating *dict if needed.
func DictSet(dict *Dictionary, key, value string, flags int32) int32 {
	if avDictSet == nil {
		return ENOSYS
	}
	return avDictSet(dict, key, value, flags)
}

// DictNext returns the entry after prev, or the first entry for a nil prev.
func DictNext(dict Dictionary, prev DictionaryEntry) DictionaryEntry {
	if dict == nil || avDictGet == nil {
		return nil
	}
	return avDictGet(dict, "", prev, DictIgnoreSuffix)
}

// DictEntryKV reads the key and value of an AVDictionaryEntry.
func DictEntryKV(e DictionaryEntry) (key, value string) {
	if e == nil {
		return "", ""
	}
	// struct AVDictionaryEntry { char *key; char *value; }
	k := *(*unsafe.Pointer)(e)
	v := *(*unsafe.Pointer)(unsafe.Add(e, unsafe.Sizeof(uintptr(0))))
	return GoString(k), GoString(v)
}

// DictFree frees the dictionary and nils the pointer.
func DictFree(dict *Dictionary) {
	if dict == nil || *dict == nil || avDictFree == nil {
		return
	}
	avDictFree(dict)
}

// ErrorString returns the library's text for an AVERROR code.
func ErrorString(errnum int32) string {
	if avStrerror == nil {
		return ""
	}
	buf := make([]byte, 256)
	avStrerror(errnum, unsafe.Pointer(&buf[0]), uintptr(len(buf)))
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

// ChannelLayoutDefault fills the AVChannelLayout at chLayout with the default
// layout for nbChannels.
func ChannelLayoutDefault(chLayout unsafe.Pointer, nbChannels int32) {
	if chLayout == nil || avChannelLayoutDefault == nil {
		return
	}
	avChannelLayoutDefault(chLayout, nbChannels)
}

// ChannelLayoutFromMask fills the AVChannelLayout at chLayout from a legacy
// AV_CH_* mask.
func ChannelLayoutFromMask(chLayout unsafe.Pointer, mask uint64) int32 {
	if chLayout == nil || avChannelLayoutFromMask == nil {
		return ENOSYS
	}
	return avChannelLayoutFromMask(chLayout, mask)
}

// OptSearchChildren makes option setters look into child objects too.
const OptSearchChildren = 1

// OptSet sets an AVOption from its string form.
func OptSet(obj unsafe.Pointer, name, value string, flags int32) int32 {
	if obj == nil || avOptSet == nil {
		return ENOSYS
	}
	return avOptSet(obj, name, value, flags)
}

// OptSetInt sets an integer AVOption.
func OptSetInt(obj unsafe.Pointer, name string, value int64, flags int32) int32 {
	if obj == nil || avOptSetInt == nil {
		return ENOSYS
	}
	return avOptSetInt(obj, name, value, flags)
}

// LogSetLevel sets the av_log threshold.
func LogSetLevel(level int32) {
	if avLogSetLevel == nil {
		return
	}
	avLogSetLevel(level)
}

// GoString copies a NUL-terminated C string.
func GoString(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}
