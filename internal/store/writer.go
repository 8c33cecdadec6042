package store

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// notifyKind is the writer thread's event vocabulary: Update
// (serialize and persist), FullFlush (serialize, persist, and swap
// the data file), Stop.
type notifyKind int

const (
	notifyUpdate notifyKind = iota
	notifyFullFlush
	notifyStop
)

// startWriter spawns the single background writer goroutine that
// consumes events off a FIFO channel, one goroutine and one channel
// with no fan-out. It acquires the mutex only to snapshot-and-encode,
// releasing it before the (possibly slow) disk write.
func startWriter(db *InMemoryDb, mu locker, lock *FileLock, events <-chan notifyKind, done chan<- struct{}) {
	go func() {
		defer close(done)
		for ev := range events {
			switch ev {
			case notifyUpdate:
				flushSnapshot(db, mu, lock)
			case notifyFullFlush:
				flushSnapshot(db, mu, lock)
				if err := lock.Flush(); err != nil {
					fmt.Fprintf(logWriter, "store: could not swap data file: %v\n", err)
				}
			case notifyStop:
				flushSnapshot(db, mu, lock)
				return
			}
		}
	}()
}

// locker is the subset of sync.Mutex used here, so tests can supply a
// fake without pulling in a real mutex.
type locker interface {
	Lock()
	Unlock()
}

func flushSnapshot(db *InMemoryDb, mu locker, lock *FileLock) {
	mu.Lock()
	bytes, err := encodeDb(db)
	mu.Unlock()
	if err != nil {
		fmt.Fprintf(logWriter, "store: could not encode db: %v\n", err)
		return
	}
	if err := lock.Write(bytes); err != nil {
		fmt.Fprintf(logWriter, "store: could not write lock file: %v\n", err)
		return
	}
	fmt.Fprintf(logWriter, "store: flushed %s to %s\n", humanize.Bytes(uint64(len(bytes))), lock.Path())
}
