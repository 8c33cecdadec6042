package errors

import (
	"strings"
	"testing"
)

func TestParseErrorFormatsLocationAndSource(t *testing.T) {
	err := NewParseError("unexpected token", "script.adana", 3, 5).WithSource("x = )")
	got := err.Error()
	for _, want := range []string{
		"ParseError: unexpected token\n",
		"  at script.adana:3:5\n",
		"3 | x = )\n",
		"^\n",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected output to contain %q, got %q", want, got)
		}
	}
}

func TestStoreErrorHasNoLocation(t *testing.T) {
	err := NewStoreError("lock file is stale")
	got := err.Error()
	want := "StoreError: lock file is stale\n"
	if got != want {
		t.Fatalf("unexpected formatting: %q", got)
	}
}

func TestLockErrorHasNoLocation(t *testing.T) {
	err := NewLockError("could not acquire lock (pid exists: 42)")
	got := err.Error()
	want := "LockError: could not acquire lock (pid exists: 42)\n"
	if got != want {
		t.Fatalf("unexpected formatting: %q", got)
	}
}

func TestParseErrorWithoutFileStillShowsLineAndSource(t *testing.T) {
	err := NewParseError("unexpected token", "", 10, 0).WithSource("x = )")
	got := err.Error()
	for _, want := range []string{
		"ParseError: unexpected token\n",
		"  at line 10:0\n",
		"10 | x = )\n",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected output to contain %q, got %q", want, got)
		}
	}
}
