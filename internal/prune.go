package internal

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// PruneEmptyDirs removes every directory under root that holds nothing,
// deepest first, so chains of empty directories disappear in one pass.
// root itself and the directories the filter skips are left alone. In dry
// run nothing is removed but the result lists what would be.
func PruneEmptyDirs(root string, filter *PathFilter, dryRun bool, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var dirs []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() || path == root {
			return nil
		}
		if filter.SkipDir(d.Name()) || filter.excluded(root, path) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	removed := make(map[string]bool)
	var pruned []string
	for i := len(dirs) - 1; i >= 0; i-- {
		dir := dirs[i]
		if !isEmptyDir(dir, removed) {
			continue
		}
		if dryRun {
			logger.Info("[dry-run] would remove empty directory", "path", dir)
		} else {
			if err := os.Remove(dir); err != nil {
				logger.Warn("failed to remove empty directory", "path", dir, "err", err)
				continue
			}
			logger.Info("removed empty directory", "path", dir)
		}
		removed[dir] = true
		pruned = append(pruned, dir)
	}
	return pruned, nil
}

// isEmptyDir reports whether dir has no entries other than directories
// already removed.
func isEmptyDir(dir string, removed map[string]bool) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() || !removed[filepath.Join(dir, e.Name())] {
			return false
		}
	}
	return true
}
