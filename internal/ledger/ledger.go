// Package ledger persists the set of signal identities that have already
// been emitted, so a restart never re-notifies an old signal.
package ledger

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Ledger is the durable identity set consulted by the emission gate.
// Append must be idempotent under duplicate identities.
type Ledger interface {
	Contains(id string) bool
	Append(id string) error
}

// FileLedger stores one identity per line in a plain text file. The file
// is read once at construction; appends are flushed per write. Entries
// are never evicted.
type FileLedger struct {
	mu   sync.Mutex
	path string
	file *os.File
	seen map[string]struct{}
}

// NewFileLedger opens or creates the ledger file at path and loads every
// existing identity. An existing file that cannot be read is a startup
// error: running with a silently empty ledger would re-send history.
func NewFileLedger(path string) (*FileLedger, error) {
	seen := make(map[string]struct{})

	existing, err := os.Open(path)
	if err == nil {
		scanner := bufio.NewScanner(existing)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				seen[line] = struct{}{}
			}
		}
		scanErr := scanner.Err()
		existing.Close()
		if scanErr != nil {
			return nil, fmt.Errorf("error reading ledger %s: %w", path, scanErr)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("error opening ledger %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error opening ledger %s for append: %w", path, err)
	}

	return &FileLedger{path: path, file: file, seen: seen}, nil
}

// Contains reports whether id has been recorded.
func (l *FileLedger) Contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[id]
	return ok
}

// Append records id durably. Appending an identity already present is a
// no-op. A write failure leaves the in-memory set updated so the current
// process still suppresses the duplicate.
func (l *FileLedger) Append(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[id]; ok {
		return nil
	}
	l.seen[id] = struct{}{}

	if _, err := fmt.Fprintln(l.file, id); err != nil {
		return fmt.Errorf("error appending to ledger %s: %w", l.path, err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("error syncing ledger %s: %w", l.path, err)
	}
	return nil
}

// Len returns the number of recorded identities.
func (l *FileLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

// Close releases the underlying file handle.
func (l *FileLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
