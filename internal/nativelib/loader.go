//go:build !adana_sandbox

// Package nativelib implements the require(path) built-in's dynamic
// library facility: a loaded .so exposes Primitive-callable symbols
// with the signature func([]value.Primitive, value.Compiler)
// (value.Primitive, error). The loader caches by absolute path (a
// shared object cannot be safely reopened with plugin.Open) and
// dedups concurrent loads of the same path.
package nativelib

import (
	"fmt"
	"path/filepath"
	"plugin"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"adana/internal/value"
)

// Loader implements eval.NativeLoader against Go's plugin package.
type Loader struct {
	mu    sync.RWMutex
	cache map[string]*value.NativeLibrary
	group singleflight.Group
}

func New() *Loader {
	return &Loader{cache: make(map[string]*value.NativeLibrary)}
}

// Load opens (or returns the cached handle for) the shared object at
// path. Concurrent Load calls for the same path block on one
// plugin.Open rather than racing the runtime's one-shot plugin cache.
func (l *Loader) Load(path string) (*value.NativeLibrary, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("nativelib: %w", err)
	}

	l.mu.RLock()
	if lib, ok := l.cache[abs]; ok {
		l.mu.RUnlock()
		return lib, nil
	}
	l.mu.RUnlock()

	v, err, _ := l.group.Do(abs, func() (interface{}, error) {
		p, err := plugin.Open(abs)
		if err != nil {
			return nil, fmt.Errorf("cannot load native library %q: %w", abs, err)
		}
		lib := &value.NativeLibrary{
			ID:     uuid.NewString(),
			Path:   abs,
			Handle: &pluginHandle{path: abs, plugin: p},
		}
		l.mu.Lock()
		l.cache[abs] = lib
		l.mu.Unlock()
		return lib, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*value.NativeLibrary), nil
}

// pluginHandle adapts *plugin.Plugin to value.NativeHandle.
type pluginHandle struct {
	path   string
	plugin *plugin.Plugin
}

func (h *pluginHandle) Path() string { return h.path }

func (h *pluginHandle) Lookup(symbol string) (value.NativeSymbol, error) {
	sym, err := h.plugin.Lookup(symbol)
	if err != nil {
		return nil, fmt.Errorf("native library %q has no symbol %q: %w", h.path, symbol, err)
	}
	fn, ok := sym.(func([]value.Primitive, value.Compiler) (value.Primitive, error))
	if !ok {
		return nil, fmt.Errorf("symbol %q in %q does not match the native function signature", symbol, h.path)
	}
	return value.NativeSymbol(fn), nil
}
