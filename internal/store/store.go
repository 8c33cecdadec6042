package store

import (
	"fmt"
	"os"
	"path/filepath"

	adanaerrors "adana/internal/errors"
	"adana/internal/value"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// openGroup collapses concurrent in-process Open calls for the same
// path onto a single opener, so goroutines inside one process don't
// race each other through the lock/pid file protocol.
var openGroup singleflight.Group

const dataDirName = "adana/db"
const dataFileName = "adana.db"

// defaultPath resolves an OS-appropriate data directory (falling back
// to the home directory), with adana/db/adana.db appended, creating
// the directory if needed.
func defaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir, err = os.UserHomeDir()
		if err != nil {
			return "", err
		}
	}
	dbDir := filepath.Join(dir, dataDirName)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dbDir, dataFileName), nil
}

// Config selects how Open behaves: a plain file, a deliberate
// in-memory store, or a file with an in-memory fallback when the
// lock can't be acquired or the file can't be read.
type Config struct {
	// Path is the data file location. Empty means "use the default
	// per-OS data directory" unless InMemory is set.
	Path string
	// InMemory bypasses the file entirely: an ephemeral store with no
	// backing file at all.
	InMemory bool
	// FallBackInMemory controls what happens when the lock cannot be
	// acquired (another live process holds it, or the lock files cannot
	// be created): true opens a read-capable, non-persistent in-memory
	// copy instead of failing outright. A data file that fails to
	// deserialize does not trigger it; it opens as an empty store.
	FallBackInMemory bool
}

// DefaultConfig is a file-based store at the default path, falling
// back to in-memory on a lock conflict.
func DefaultConfig() Config {
	path, _ := defaultPath()
	return Config{Path: path, FallBackInMemory: true}
}

// Db is either a live FileDb (this process holds the write lock) or
// a plain InMemoryDb (either a deliberate :memory: store, or a
// fallback snapshot that cannot be written back to disk).
type Db struct {
	file      *FileDb
	mem       *InMemoryDb
	sessionID string
}

func (d *Db) IsFileBased() bool { return d.file != nil }

// SessionID identifies one in-memory store instance (deliberate
// :memory: or a lock-failure fallback): since none of
// these persist, a caller reconnecting later gets a fresh id and can
// tell it isn't looking at the same data. File-based stores are
// identified by their path instead, so SessionID is empty for them.
func (d *Db) SessionID() string {
	if d.file != nil {
		return ""
	}
	return d.sessionID
}

func newInMemoryDb() *Db {
	return &Db{mem: NewInMemoryDb(), sessionID: uuid.NewString()}
}

func inMemoryFallback(cause error) (*Db, error) {
	fmt.Fprintf(logWriter, "warning: %v; opening a temporary store instead\n", cause)
	return newInMemoryDb(), nil
}

// Open runs the full opening protocol end to end: plain in-memory
// mode, then lock acquisition, then deserialize-or-empty, then (on a
// held lock, if configured) a read-only in-memory fallback built from
// the data file's current bytes.
func Open(cfg Config) (*Db, error) {
	if cfg.InMemory {
		return newInMemoryDb(), nil
	}
	if cfg.Path == "" {
		return nil, adanaerrors.NewStoreError("not in memory but path is empty")
	}

	v, err, _ := openGroup.Do(cfg.Path, func() (interface{}, error) {
		return openLocked(cfg)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Db), nil
}

func openLocked(cfg Config) (*Db, error) {
	lock, err := OpenFileLock(cfg.Path)
	if err != nil {
		lockErr, isLockErr := err.(*LockError)
		if !cfg.FallBackInMemory {
			return nil, err
		}
		if isLockErr && lockErr.Kind == ErrPIDExists {
			data, rerr := ReadDataFile(cfg.Path)
			if rerr != nil {
				return inMemoryFallback(rerr)
			}
			return &Db{mem: decodeDb(data), sessionID: uuid.NewString()}, nil
		}
		return inMemoryFallback(err)
	}

	data, err := lock.Read()
	if err != nil {
		if !cfg.FallBackInMemory {
			return nil, err
		}
		return inMemoryFallback(err)
	}

	inner := decodeDb(data)
	return &Db{file: openFileDb(inner, lock)}, nil
}

// Close is a no-op for an in-memory store and releases the file lock
// for a file-based one.
func (d *Db) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}

func (d *Db) Flush() {
	if d.file != nil {
		d.file.Flush()
	}
}

func (d *Db) Path() string {
	if d.file != nil {
		return d.file.Path()
	}
	return ""
}

func (d *Db) GetCurrentTree() string {
	if d.file != nil {
		return d.file.GetCurrentTree()
	}
	return d.mem.currentTreeName()
}

func (d *Db) OpenTree(name string) bool {
	if d.file != nil {
		return d.file.OpenTree(name)
	}
	return d.mem.OpenTree(name)
}

func (d *Db) TreeNames() []string {
	if d.file != nil {
		return d.file.TreeNames()
	}
	return d.mem.TreeNames()
}

func (d *Db) DropTree(name string) bool {
	if d.file != nil {
		return d.file.DropTree(name)
	}
	return d.mem.DropTree(name)
}

func (d *Db) ClearTree(name string) bool {
	if d.file != nil {
		return d.file.ClearTree(name)
	}
	return d.mem.ClearTree(name)
}

func (d *Db) MergeTrees(source, dest string) bool {
	if d.file != nil {
		return d.file.MergeTrees(source, dest)
	}
	return d.mem.MergeTrees(source, dest)
}

func (d *Db) MergeCurrentTreeWith(source string) bool {
	if d.file != nil {
		return d.file.MergeCurrentTreeWith(source)
	}
	return d.mem.MergeCurrentTreeWith(source)
}

func (d *Db) ApplyBatch(b *Batch) bool {
	if d.file != nil {
		return d.file.ApplyBatch(b)
	}
	return d.mem.ApplyBatch(b)
}

func (d *Db) ApplyTree(name string, consumer func(*Tree) (value.Primitive, bool)) (value.Primitive, bool) {
	if d.file != nil {
		return d.file.ApplyTree(name, consumer)
	}
	return d.mem.ApplyTree(name, consumer)
}

func (d *Db) Read(k string) (value.Primitive, bool) {
	if d.file != nil {
		return d.file.Read(k)
	}
	return d.mem.Read(k)
}

func (d *Db) Insert(k string, v value.Primitive) (value.Primitive, bool) {
	if d.file != nil {
		return d.file.Insert(k, v)
	}
	return d.mem.Insert(k, v)
}

func (d *Db) Remove(k string) (value.Primitive, bool) {
	if d.file != nil {
		return d.file.Remove(k)
	}
	return d.mem.Remove(k)
}

func (d *Db) Clear() {
	if d.file != nil {
		d.file.Clear()
		return
	}
	d.mem.Clear()
}

func (d *Db) Contains(k string) bool {
	if d.file != nil {
		return d.file.Contains(k)
	}
	return d.mem.Contains(k)
}

func (d *Db) Len() int {
	if d.file != nil {
		return d.file.Len()
	}
	return d.mem.Len()
}

func (d *Db) Keys() []string {
	if d.file != nil {
		return d.file.Keys()
	}
	return d.mem.Keys()
}

func (d *Db) ListAll() []KV {
	if d.file != nil {
		return d.file.ListAll()
	}
	return d.mem.ListAll()
}
