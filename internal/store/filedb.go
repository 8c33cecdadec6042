package store

import (
	"io"
	"os"
	"sync"

	"adana/internal/value"
)

var logWriter io.Writer = os.Stderr

// FileDb is the durable, single-writer-per-process store: an
// InMemoryDb guarded by a mutex, with every mutation posting an
// update event to a background writer goroutine.
type FileDb struct {
	mu     sync.Mutex
	inner  *InMemoryDb
	lock   *FileLock
	events chan notifyKind
	done   chan struct{}
}

// openFileDb starts the background writer and returns a ready FileDb.
func openFileDb(inner *InMemoryDb, lock *FileLock) *FileDb {
	db := &FileDb{inner: inner, lock: lock, events: make(chan notifyKind, 64), done: make(chan struct{})}
	startWriter(db.inner, &db.mu, db.lock, db.events, db.done)
	return db
}

func (db *FileDb) notify(kind notifyKind) {
	db.events <- kind
}

func (db *FileDb) Path() string { return db.lock.Path() }

func (db *FileDb) GetCurrentTree() string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.inner.currentTreeName()
}

func (db *FileDb) OpenTree(name string) bool {
	db.mu.Lock()
	changed := db.inner.OpenTree(name)
	db.mu.Unlock()
	if changed {
		db.notify(notifyUpdate)
	}
	return changed
}

func (db *FileDb) TreeNames() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.inner.TreeNames()
}

func (db *FileDb) DropTree(name string) bool {
	db.mu.Lock()
	ok := db.inner.DropTree(name)
	db.mu.Unlock()
	db.notify(notifyUpdate)
	return ok
}

func (db *FileDb) ClearTree(name string) bool {
	db.mu.Lock()
	ok := db.inner.ClearTree(name)
	db.mu.Unlock()
	db.notify(notifyUpdate)
	return ok
}

func (db *FileDb) MergeTrees(source, dest string) bool {
	db.mu.Lock()
	ok := db.inner.MergeTrees(source, dest)
	db.mu.Unlock()
	db.notify(notifyUpdate)
	return ok
}

func (db *FileDb) MergeCurrentTreeWith(source string) bool {
	db.mu.Lock()
	ok := db.inner.MergeCurrentTreeWith(source)
	db.mu.Unlock()
	db.notify(notifyUpdate)
	return ok
}

func (db *FileDb) ApplyBatch(b *Batch) bool {
	db.mu.Lock()
	ok := db.inner.ApplyBatch(b)
	db.mu.Unlock()
	db.notify(notifyUpdate)
	return ok
}

func (db *FileDb) ApplyTree(name string, consumer func(*Tree) (value.Primitive, bool)) (value.Primitive, bool) {
	db.mu.Lock()
	v, ok := db.inner.ApplyTree(name, consumer)
	db.mu.Unlock()
	db.notify(notifyUpdate)
	return v, ok
}

func (db *FileDb) Read(k string) (value.Primitive, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.inner.Read(k)
}

func (db *FileDb) Insert(k string, v value.Primitive) (value.Primitive, bool) {
	db.mu.Lock()
	old, existed := db.inner.Insert(k, v)
	db.mu.Unlock()
	db.notify(notifyUpdate)
	return old, existed
}

func (db *FileDb) Remove(k string) (value.Primitive, bool) {
	db.mu.Lock()
	old, existed := db.inner.Remove(k)
	db.mu.Unlock()
	db.notify(notifyUpdate)
	return old, existed
}

func (db *FileDb) Clear() {
	db.mu.Lock()
	db.inner.Clear()
	db.mu.Unlock()
	db.notify(notifyUpdate)
}

func (db *FileDb) Contains(k string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.inner.Contains(k)
}

func (db *FileDb) Len() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.inner.Len()
}

func (db *FileDb) Keys() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.inner.Keys()
}

func (db *FileDb) ListAll() []KV {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.inner.ListAll()
}

// Flush requests a full flush (persist plus data-file swap) without
// closing the store.
func (db *FileDb) Flush() {
	db.notify(notifyFullFlush)
}

// Close stops the writer goroutine with a final flush, waits for it
// to finish, then releases the lock and pid files so another process
// may open the same path.
func (db *FileDb) Close() error {
	db.notify(notifyStop)
	close(db.events)
	<-db.done
	return db.lock.CleanupAndFlush()
}
