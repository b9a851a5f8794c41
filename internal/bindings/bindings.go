//go:build !ios && !android && (amd64 || arm64)

// Package bindings loads the FFmpeg shared libraries with purego and hands
// their handles to the per-library binding packages.
package bindings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

// ErrNotLoaded is returned when a binding is used before Load succeeded.
var ErrNotLoaded = errors.New("ffwrap: FFmpeg libraries not loaded; call ffwrap.Init() first")

// ErrLibraryNotFound is returned when a required FFmpeg library cannot be found.
var ErrLibraryNotFound = errors.New("ffwrap: FFmpeg library not found")

// Lib identifies one of the FFmpeg shared libraries.
type Lib int

const (
	AVUtil Lib = iota
	AVCodec
	AVFormat
	AVFilter
	SWResample
	SWScale
	numLibs
)

type libSpec struct {
	name     string
	versions []int
	required bool
}

// Dependency order matters: avutil first, then the libraries that link it.
var specs = [numLibs]libSpec{
	AVUtil:     {"avutil", []int{59, 58, 57, 56}, true},
	AVCodec:    {"avcodec", []int{61, 60, 59, 58}, true},
	AVFormat:   {"avformat", []int{61, 60, 59, 58}, true},
	AVFilter:   {"avfilter", []int{10, 9, 8, 7}, false},
	SWResample: {"swresample", []int{5, 4, 3}, false},
	SWScale:    {"swscale", []int{8, 7, 6, 5}, false},
}

func (l Lib) String() string {
	if l < 0 || l >= numLibs {
		return "unknown"
	}
	return specs[l].name
}

var (
	mu      sync.Mutex
	handles [numLibs]uintptr
	loaded  bool
	loadErr error
)

// IsLoaded reports whether the required libraries are loaded.
func IsLoaded() bool {
	mu.Lock()
	defer mu.Unlock()
	return loaded
}

// Load opens the FFmpeg libraries. Repeated calls return the first result.
// Optional libraries that are missing leave their handle at zero.
func Load() error {
	mu.Lock()
	defer mu.Unlock()
	if loaded || loadErr != nil {
		return loadErr
	}
	for l := Lib(0); l < numLibs; l++ {
		spec := specs[l]
		h, err := open(spec.name, spec.versions)
		if err != nil {
			if spec.required {
				closeAll()
				loadErr = fmt.Errorf("loading lib%s: %w", spec.name, err)
				return loadErr
			}
			continue
		}
		handles[l] = h
	}
	loaded = true
	return nil
}

// Unload closes every library handle. Bound functions must not be called
// afterwards.
func Unload() error {
	mu.Lock()
	defer mu.Unlock()
	if !loaded {
		return nil
	}
	err := closeAll()
	loaded = false
	return err
}

func closeAll() error {
	var errs []error
	for l := numLibs - 1; l >= 0; l-- {
		if handles[l] == 0 {
			continue
		}
		if err := purego.Dlclose(handles[l]); err != nil {
			errs = append(errs, fmt.Errorf("closing lib%s: %w", specs[l].name, err))
		}
		handles[l] = 0
	}
	return errors.Join(errs...)
}

// Handle returns the dlopen handle of l, or 0 if it is not loaded.
func Handle(l Lib) uintptr {
	mu.Lock()
	defer mu.Unlock()
	return handles[l]
}

// Has reports whether l was found.
func Has(l Lib) bool {
	return Handle(l) != 0
}

// Register binds a required symbol. It panics if the symbol is missing, like
// purego.RegisterLibFunc.
func Register(fptr any, l Lib, name string) {
	purego.RegisterLibFunc(fptr, Handle(l), name)
}

// RegisterOptional binds a symbol that only some FFmpeg versions export and
// reports whether it was found.
func RegisterOptional(fptr any, l Lib, name string) (ok bool) {
	h := Handle(l)
	if h == 0 {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	purego.RegisterLibFunc(fptr, h, name)
	return true
}

func open(name string, versions []int) (uintptr, error) {
	var candidates []string
	for _, dir := range SearchPaths() {
		for _, ver := range versions {
			candidates = append(candidates, filepath.Join(dir, LibraryName(name, ver)))
		}
		candidates = append(candidates, filepath.Join(dir, LibraryName(name, 0)))
	}
	// Bare names let the dynamic loader search on its own.
	for _, ver := range versions {
		candidates = append(candidates, LibraryName(name, ver))
	}
	candidates = append(candidates, LibraryName(name, 0))

	for _, path := range candidates {
		// RTLD_GLOBAL: the FFmpeg libraries resolve symbols from each other.
		if h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL); err == nil {
			return h, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

// FindLibrary returns the path of the first matching library file on disk.
func FindLibrary(name string, versions []int) (string, error) {
	for _, dir := range SearchPaths() {
		for _, ver := range append(append([]int{}, versions...), 0) {
			path := filepath.Join(dir, LibraryName(name, ver))
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

// SearchPaths returns the directories searched for FFmpeg libraries. The
// FFWRAP_LIB_DIR environment variable, when set, is searched first.
func SearchPaths() []string {
	var paths []string
	if dir := os.Getenv("FFWRAP_LIB_DIR"); dir != "" {
		paths = append(paths, dir)
	}

	switch runtime.GOOS {
	case "linux", "freebsd":
		if ld := os.Getenv("LD_LIBRARY_PATH"); ld != "" {
			paths = append(paths, filepath.SplitList(ld)...)
		}
		paths = append(paths,
			"/usr/lib/x86_64-linux-gnu",
			"/usr/lib/aarch64-linux-gnu",
			"/usr/local/lib",
			"/usr/lib",
			"/lib/x86_64-linux-gnu",
			"/lib",
		)
	case "darwin":
		if dyld := os.Getenv("DYLD_LIBRARY_PATH"); dyld != "" {
			paths = append(paths, filepath.SplitList(dyld)...)
		}
		paths = append(paths,
			"/opt/homebrew/lib",
			"/usr/local/lib",
			"/opt/homebrew/opt/ffmpeg/lib",
			"/usr/local/opt/ffmpeg/lib",
		)
	case "windows":
		if p := os.Getenv("PATH"); p != "" {
			paths = append(paths, filepath.SplitList(p)...)
		}
		if exe, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Dir(exe))
		}
		paths = append(paths, `C:\ffmpeg\bin`, `C:\Program Files\ffmpeg\bin`)
	}
	return paths
}

// LibraryName returns the platform file name of an FFmpeg library. A zero
// version yields the unversioned name.
//
//	linux:   LibraryName("avcodec", 60) == "libavcodec.so.60"
//	darwin:  LibraryName("avcodec", 60) == "libavcodec.60.dylib"
//	windows: LibraryName("avcodec", 60) == "avcodec-60.dll"
func LibraryName(name string, version int) string {
	switch runtime.GOOS {
	case "darwin":
		if version > 0 {
			return fmt.Sprintf("lib%s.%d.dylib", name, version)
		}
		return "lib" + name + ".dylib"
	case "windows":
		if version > 0 {
			return fmt.Sprintf("%s-%d.dll", name, version)
		}
		return name + ".dll"
	default:
		if version > 0 {
			return fmt.Sprintf("lib%s.so.%d", name, version)
		}
		return "lib" + name + ".so"
	}
}
