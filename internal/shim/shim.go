//go:build !ios && !android && (amd64 || arm64)

// Package shim binds the optional ffshim helper library.
//
// av_log hands its callback a va_list, which purego cannot receive. The
// shim installs a C callback that formats the line and forwards the plain
// string to a Go callback. Without the shim the wrapper works but FFmpeg's
// log lines are not forwarded.
//
// Build the shim with:
//
//	cd shim && make
package shim

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

// ErrShimNotLoaded is returned when a shim function is called without the
// shim.
var ErrShimNotLoaded = errors.New("ffwrap: shim library not loaded; FFmpeg log forwarding unavailable")

// ErrShimNotFound is returned when the shim library cannot be found.
var ErrShimNotFound = errors.New("ffwrap: shim library not found")

var (
	mu      sync.Mutex
	lib     uintptr
	path    string
	loadErr error

	shimLogSetCallback func(cb uintptr)
	shimLogSetLevel    func(level int32)
)

// Load looks for the shim and binds it. A missing shim is not an error;
// it is reported by LoadError and Status.
func Load() error {
	mu.Lock()
	defer mu.Unlock()
	if lib != 0 {
		return nil
	}

	p, err := findShimLibrary()
	if err != nil {
		loadErr = err
		return nil
	}
	h, err := purego.Dlopen(p, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		loadErr = fmt.Errorf("failed to load shim at %s: %w", p, err)
		return nil
	}

	registerOptional(&shimLogSetCallback, h, "ffshim_log_set_callback")
	registerOptional(&shimLogSetLevel, h, "ffshim_log_set_level")
	lib, path, loadErr = h, p, nil
	return nil
}

// Unload closes the shim. The log callback must have been cleared first.
func Unload() error {
	mu.Lock()
	defer mu.Unlock()
	if lib == 0 {
		return nil
	}
	err := purego.Dlclose(lib)
	lib, path = 0, ""
	shimLogSetCallback, shimLogSetLevel = nil, nil
	return err
}

// IsLoaded reports whether the shim is bound.
func IsLoaded() bool {
	mu.Lock()
	defer mu.Unlock()
	return lib != 0
}

// LoadError returns why the shim could not be loaded, or nil.
func LoadError() error {
	mu.Lock()
	defer mu.Unlock()
	return loadErr
}

// Status describes the shim for diagnostics.
func Status() string {
	mu.Lock()
	defer mu.Unlock()
	switch {
	case lib != 0:
		return "loaded from " + path
	case loadErr != nil:
		return "not loaded: " + loadErr.Error()
	default:
		return "not loaded (Load() not called)"
	}
}

func registerOptional(fptr any, handle uintptr, name string) {
	defer func() { _ = recover() }()
	purego.RegisterLibFunc(fptr, handle, name)
}

// SetLogCallback installs cb, a purego callback with the C signature
// void (*)(void *avcl, int level, const char *msg). A zero cb restores
// FFmpeg's default logger.
func SetLogCallback(cb uintptr) error {
	mu.Lock()
	defer mu.Unlock()
	if lib == 0 || shimLogSetCallback == nil {
		return ErrShimNotLoaded
	}
	shimLogSetCallback(cb)
	return nil
}

// SetLogLevel sets the level the shim forwards at.
func SetLogLevel(level int32) error {
	mu.Lock()
	defer mu.Unlock()
	if lib == 0 || shimLogSetLevel == nil {
		return ErrShimNotLoaded
	}
	shimLogSetLevel(level)
	return nil
}

// ExpectedLibraryName returns the shim filename for this platform.
func ExpectedLibraryName() string {
	switch runtime.GOOS {
	case "darwin":
		return "libffshim.dylib"
	case "windows":
		return "ffshim.dll"
	default:
		return "libffshim.so"
	}
}

func findShimLibrary() (string, error) {
	name := ExpectedLibraryName()
	if dir := os.Getenv("FFWRAP_SHIM_DIR"); dir != "" {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("%w: FFWRAP_SHIM_DIR=%s does not contain %s", ErrShimNotFound, dir, name)
	}

	var dirs []string
	env := "LD_LIBRARY_PATH"
	switch runtime.GOOS {
	case "darwin":
		env = "DYLD_LIBRARY_PATH"
	case "windows":
		env = "PATH"
	}
	if p := os.Getenv(env); p != "" {
		dirs = append(dirs, filepath.SplitList(p)...)
	}
	dirs = append(dirs, "/usr/local/lib", "/usr/lib", "/opt/homebrew/lib")
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if _, file, _, ok := runtime.Caller(0); ok {
		root := filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
		dirs = append(dirs, filepath.Join(root, "shim"))
	}
	for _, dir := range dirs {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: looked for %s in %d locations", ErrShimNotFound, name, len(dirs))
}
