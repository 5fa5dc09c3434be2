package internal

import "log/slog"

// needsTitle reports whether the old stem carries a name worth keeping: the
// new name came from metadata, and the old stem is not just a date.
func needsTitle(res Resolution, oldStem string) bool {
	if res.FromFilename() || oldStem == "" {
		return false
	}
	return !looksLikeTimestamp(oldStem)
}

// BackfillTitle stores oldStem in the Title tag of the moved file when the
// rename would otherwise lose it. It returns true if the tag was written.
func BackfillTitle(tags TagStore, res Resolution, oldStem, newPath string, dryRun bool, logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.Default()
	}
	if tags == nil || !needsTitle(res, oldStem) {
		return false
	}
	if dryRun {
		logger.Info("[dry-run] would set Title", "path", newPath, "title", oldStem)
		return false
	}
	if !tags.SetTag(newPath, TagTitle, oldStem) {
		logger.Warn("failed to set Title", "path", newPath, "title", oldStem)
		return false
	}
	logger.Info("set Title", "path", newPath, "title", oldStem)
	return true
}
