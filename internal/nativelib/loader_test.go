//go:build !adana_sandbox

package nativelib

import (
	"strings"
	"testing"
)

func TestNewHasEmptyCache(t *testing.T) {
	l := New()
	if len(l.cache) != 0 {
		t.Fatalf("expected a fresh loader to have no cached libraries")
	}
}

func TestLoadNonexistentPathErrors(t *testing.T) {
	l := New()
	_, err := l.Load("/no/such/library.so")
	if err == nil {
		t.Fatalf("expected an error loading a nonexistent shared object")
	}
	if !strings.Contains(err.Error(), "cannot load native library") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestLoadFailureDoesNotPoisonTheCache(t *testing.T) {
	l := New()
	if _, err := l.Load("/no/such/library.so"); err == nil {
		t.Fatalf("expected the first load to fail")
	}
	if _, err := l.Load("/no/such/library.so"); err == nil {
		t.Fatalf("expected the second load to fail the same way, not return a bogus cached handle")
	}
	if len(l.cache) != 0 {
		t.Fatalf("a failed load must not populate the cache")
	}
}
