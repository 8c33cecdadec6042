//go:build adana_sandbox

package nativelib

import (
	"strings"
	"testing"
)

func TestSandboxLoaderAlwaysErrors(t *testing.T) {
	l := New()
	_, err := l.Load("anything.so")
	if err == nil {
		t.Fatalf("expected the sandboxed loader to refuse every load")
	}
	if !strings.Contains(err.Error(), "cannot use lib loading") {
		t.Fatalf("unexpected error message: %v", err)
	}
}
