package shell

import (
	"bytes"
	"strings"
	"testing"

	"adana/internal/store"
)

func newTestShell(t *testing.T) (*Shell, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	db, err := store.Open(store.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	var out, errOut bytes.Buffer
	return New(db, &out, &errOut), &out, &errOut
}

func TestDispatchUnknownVerb(t *testing.T) {
	sh, _, errOut := newTestShell(t)
	if err := sh.Dispatch("frobnicate"); err != nil {
		t.Fatalf("unknown verbs should not be a Go error: %v", err)
	}
	if !strings.Contains(errOut.String(), "unknown command") {
		t.Fatalf("expected an unknown-command message, got %q", errOut.String())
	}
}

func TestDispatchBlankLineIsNoop(t *testing.T) {
	sh, out, errOut := newTestShell(t)
	if err := sh.Dispatch("   "); err != nil {
		t.Fatalf("blank line should not error: %v", err)
	}
	if out.Len() != 0 || errOut.Len() != 0 {
		t.Fatalf("blank line should produce no output")
	}
}

func TestPutGetDelRoundTrip(t *testing.T) {
	sh, out, _ := newTestShell(t)
	if err := sh.Dispatch("put hello world"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !strings.Contains(out.String(), "added \"hello world\"") {
		t.Fatalf("unexpected put output: %q", out.String())
	}
	key := hashKey("hello world")

	out.Reset()
	if err := sh.Dispatch("get " + key); err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.Contains(out.String(), "hello world") {
		t.Fatalf("expected get to find the value, got %q", out.String())
	}

	out.Reset()
	if err := sh.Dispatch("del " + key); err != nil {
		t.Fatalf("del: %v", err)
	}
	if !strings.Contains(out.String(), "removed") {
		t.Fatalf("unexpected del output: %q", out.String())
	}

	out.Reset()
	if err := sh.Dispatch("get " + key); err != nil {
		t.Fatalf("get after del: %v", err)
	}
	if !strings.Contains(out.String(), "not found") {
		t.Fatalf("expected value to be gone after del, got %q", out.String())
	}
}

func TestPutWithAliasesAndDeleteRemovesAllAliases(t *testing.T) {
	sh, _, _ := newTestShell(t)
	if err := sh.Dispatch("put -a one -a uno 1"); err != nil {
		t.Fatalf("put with aliases: %v", err)
	}

	if !sh.Db.Contains("one") || !sh.Db.Contains("uno") {
		t.Fatalf("both aliases should have been inserted")
	}

	if err := sh.Dispatch("del one"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if sh.Db.Contains("one") || sh.Db.Contains("uno") {
		t.Fatalf("deleting by one alias should remove every sibling alias sharing the value")
	}
}

func TestUseAndListCache(t *testing.T) {
	sh, out, _ := newTestShell(t)
	if err := sh.Dispatch("use scratch"); err != nil {
		t.Fatalf("use: %v", err)
	}
	if sh.Db.GetCurrentTree() != "scratch" {
		t.Fatalf("expected current tree to be scratch, got %s", sh.Db.GetCurrentTree())
	}

	out.Reset()
	if err := sh.Dispatch("listcache"); err != nil {
		t.Fatalf("listcache: %v", err)
	}
	if !strings.Contains(out.String(), "scratch") {
		t.Fatalf("expected scratch to be listed, got %q", out.String())
	}
}

func TestMergeCacheRefusesSelfMerge(t *testing.T) {
	sh, _, errOut := newTestShell(t)
	current := sh.Db.GetCurrentTree()
	if err := sh.Dispatch("merge " + current); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !strings.Contains(errOut.String(), "cannot merge") {
		t.Fatalf("expected a self-merge refusal, got %q", errOut.String())
	}
}

func TestDumpIncludesStoredValue(t *testing.T) {
	sh, out, _ := newTestShell(t)
	if err := sh.Dispatch("put roundtrip-value"); err != nil {
		t.Fatalf("put: %v", err)
	}

	out.Reset()
	if err := sh.Dispatch("dump"); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.Contains(out.String(), "roundtrip-value") {
		t.Fatalf("expected dump to include the stored value, got %q", out.String())
	}
}

func TestDeleteCacheClearsCurrentWhenUnnamed(t *testing.T) {
	sh, _, _ := newTestShell(t)
	if err := sh.Dispatch("put something"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := sh.Dispatch("delch"); err != nil {
		t.Fatalf("delch: %v", err)
	}
	if sh.Db.Len() != 0 {
		t.Fatalf("expected current tree to be cleared, still has %d entries", sh.Db.Len())
	}
}
