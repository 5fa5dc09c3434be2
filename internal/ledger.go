package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/jmoiron/sqlx"
)

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS processed_media (
    canonical_name TEXT NOT NULL,
    previous_name TEXT NOT NULL,
    final_path TEXT NOT NULL DEFAULT '',
    recorded_at INTEGER NOT NULL,
    PRIMARY KEY (canonical_name, previous_name)
);

CREATE INDEX IF NOT EXISTS idx_processed_previous ON processed_media(previous_name);
`

var ErrLedgerLocked = errors.New("ledger is in use by another run")

// LedgerError wraps a failed ledger read or write.
type LedgerError struct {
	Op  string
	Err error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *LedgerError) Unwrap() error { return e.Err }

// LedgerEntry is one processed file: the name it was given and the name it had.
type LedgerEntry struct {
	CanonicalName string `db:"canonical_name"`
	PreviousName  string `db:"previous_name"`
	FinalPath     string `db:"final_path"`
	RecordedAt    int64  `db:"recorded_at"` // unix seconds
}

// Ledger remembers which files have been processed so reruns skip them.
// Entries are keyed by basename and are never removed.
type Ledger struct {
	db     *sqlx.DB
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// OpenLedger opens the ledger at path. An exclusive open holds a lock file
// next to the database for as long as the ledger is open, so a second run
// fails with ErrLedgerLocked. A shared open only excludes exclusive ones.
func OpenLedger(path string, exclusive bool, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return nil, fmt.Errorf("ledger path is empty")
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	lock := flock.New(path + ".lock")
	if err := ensureParent(path); err != nil {
		return nil, err
	}
	var locked bool
	if exclusive {
		locked, err = lock.TryLock()
	} else {
		locked, err = lock.TryRLock()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock ledger: %w", err)
	}
	if !locked {
		return nil, ErrLedgerLocked
	}

	db, err := openSqlite(path)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	if _, err := db.Exec(ledgerSchema); err != nil {
		db.Close()
		lock.Unlock()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}

	logger.Debug("ledger opened", "path", path, "driver", driverID)
	return &Ledger{db: db, path: path, lock: lock, logger: logger}, nil
}

// Path returns the database file.
func (l *Ledger) Path() string {
	return l.path
}

// HasBeenProcessed reports whether name is a name the engine gave a file or
// confirmed in place. Previous names are not matched: cameras reuse them, so
// another file with the same name is still unsorted.
func (l *Ledger) HasBeenProcessed(name string) (bool, error) {
	var n int
	err := l.db.Get(&n, `SELECT COUNT(*) FROM processed_media WHERE canonical_name = ?`, name)
	if err != nil {
		return false, &LedgerError{Op: "lookup", Err: err}
	}
	return n > 0, nil
}

// HasPair reports whether exactly this rename was recorded.
func (l *Ledger) HasPair(canonicalName, previousName string) (bool, error) {
	var n int
	err := l.db.Get(&n, `SELECT COUNT(*) FROM processed_media WHERE canonical_name = ? AND previous_name = ?`, canonicalName, previousName)
	if err != nil {
		return false, &LedgerError{Op: "lookup", Err: err}
	}
	return n > 0, nil
}

// Record upserts a processed file.
func (l *Ledger) Record(canonicalName, previousName, finalPath string) error {
	entry := LedgerEntry{
		CanonicalName: canonicalName,
		PreviousName:  previousName,
		FinalPath:     finalPath,
		RecordedAt:    time.Now().Unix(),
	}
	_, err := l.db.NamedExec(`
		INSERT INTO processed_media (canonical_name, previous_name, final_path, recorded_at)
		VALUES (:canonical_name, :previous_name, :final_path, :recorded_at)
		ON CONFLICT(canonical_name, previous_name) DO UPDATE SET
			final_path = excluded.final_path,
			recorded_at = excluded.recorded_at`, entry)
	if err != nil {
		return &LedgerError{Op: "record", Err: err}
	}
	return nil
}

// Lookup returns every entry in which name appears.
func (l *Ledger) Lookup(name string) ([]LedgerEntry, error) {
	var entries []LedgerEntry
	err := l.db.Select(&entries, `
		SELECT canonical_name, previous_name, final_path, recorded_at
		FROM processed_media
		WHERE canonical_name = ? OR previous_name = ?
		ORDER BY recorded_at`, name, name)
	if err != nil {
		return nil, &LedgerError{Op: "lookup", Err: err}
	}
	return entries, nil
}

// Count returns the number of entries.
func (l *Ledger) Count() (int, error) {
	var n int
	if err := l.db.Get(&n, `SELECT COUNT(*) FROM processed_media`); err != nil {
		return 0, &LedgerError{Op: "count", Err: err}
	}
	return n, nil
}

// Close closes the database and releases the lock.
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	if uerr := l.lock.Unlock(); uerr != nil && err == nil {
		err = uerr
	}
	return err
}
