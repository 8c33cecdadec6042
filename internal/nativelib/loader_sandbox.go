//go:build adana_sandbox

// Sandboxed builds (no cgo, or a deliberately locked-down deployment)
// cannot use Go's plugin package, which requires cgo and only links
// on linux/darwin. This loader satisfies the same interface with a
// textual error, matching require()'s contract of reporting a load
// failure as an error value rather than panicking.
package nativelib

import (
	"fmt"

	"adana/internal/value"
)

type Loader struct{}

func New() *Loader { return &Loader{} }

func (l *Loader) Load(path string) (*value.NativeLibrary, error) {
	return nil, fmt.Errorf("cannot use lib loading in this context")
}
