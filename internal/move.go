package internal

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// swapped in tests to simulate EXDEV and friends
var renameFunc = os.Rename

// CrossDeviceError marks a rename that failed because source and destination
// are on different filesystems. Files are never copied and deleted instead.
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("cannot move %q to %q across filesystems: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// rename wraps os.Rename and turns EXDEV into a CrossDeviceError.
func rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// MoveOutcome describes what a move changed.
type MoveOutcome int

const (
	OutcomeUnchanged MoveOutcome = iota
	OutcomeMoved
	OutcomeRenamed
	OutcomeMovedRenamed
)

func (o MoveOutcome) String() string {
	switch o {
	case OutcomeMoved:
		return "Moved"
	case OutcomeRenamed:
		return "Renamed"
	case OutcomeMovedRenamed:
		return "Moved and Renamed"
	default:
		return "Unchanged"
	}
}

func outcomeOf(src, dst string) MoveOutcome {
	switch {
	case src == dst:
		return OutcomeUnchanged
	case filepath.Base(src) == filepath.Base(dst):
		return OutcomeMoved
	case filepath.Dir(src) != filepath.Dir(dst):
		return OutcomeMovedRenamed
	default:
		return OutcomeRenamed
	}
}

// MoveResult is the outcome of a single move.
type MoveResult struct {
	Path      string // where the file ended up
	Outcome   MoveOutcome
	Duplicate string // file with identical content found at the requested destination
}

// Mover relocates files without ever overwriting another file.
type Mover struct {
	dryRun bool
	logger *slog.Logger
}

func NewMover(dryRun bool, logger *slog.Logger) *Mover {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mover{dryRun: dryRun, logger: logger}
}

// Move renames src to dst, creating missing directories. If dst is taken a
// " (n)" suffix is added before the extension.
func (m *Mover) Move(src, dst string) (MoveResult, error) {
	src, dst = filepath.Clean(src), filepath.Clean(dst)
	if src == dst {
		return MoveResult{Path: src, Outcome: OutcomeUnchanged}, nil
	}

	final, err := UniquePath(src, dst)
	if err != nil {
		return MoveResult{Path: src}, err
	}

	res := MoveResult{Path: final, Outcome: outcomeOf(src, final)}
	if final != dst && sameContent(src, dst) {
		res.Duplicate = dst
		m.logger.Warn("identical file already at destination", "path", src, "existing", dst)
	}
	if res.Outcome == OutcomeUnchanged {
		return res, nil
	}

	if m.dryRun {
		m.logger.Info("[dry-run] "+res.Outcome.String(), "from", src, "to", final)
		return res, nil
	}

	if err := os.MkdirAll(filepath.Dir(final), 0755); err != nil {
		return MoveResult{Path: src}, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(final), err)
	}
	if err := rename(src, final); err != nil {
		return MoveResult{Path: src}, fmt.Errorf("failed to move %s to %s: %w", src, final, err)
	}

	m.logger.Info(res.Outcome.String(), "from", src, "to", final)
	return res, nil
}

// UniquePath returns dst if it is free, otherwise the first free
// "name (n).ext" variant. A candidate equal to src counts as free, so a file
// that already carries a suffix keeps it instead of gaining another one.
func UniquePath(src, dst string) (string, error) {
	if src == dst {
		return dst, nil
	}
	free, err := pathFree(dst)
	if err != nil || free {
		return dst, err
	}

	ext := filepath.Ext(dst)
	base := strings.TrimSuffix(dst, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if candidate == src {
			return candidate, nil
		}
		free, err := pathFree(candidate)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}
}

func pathFree(path string) (bool, error) {
	_, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return false, nil
}

// fileHash computes the xxhash64 of a file's content.
func fileHash(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

func sameContent(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil || !bi.Mode().IsRegular() || ai.Size() != bi.Size() {
		return false
	}

	ah, err := fileHash(a)
	if err != nil {
		return false
	}
	bh, err := fileHash(b)
	if err != nil {
		return false
	}
	return ah == bh
}
