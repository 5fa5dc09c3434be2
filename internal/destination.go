package internal

import (
	"path/filepath"
	"regexp"
)

var yearDirPattern = regexp.MustCompile(`^\d{4}`)

// ArchiveDir returns the <year>/<month> directory for a file found while
// scanning scanRoot. Scanning from inside an already sorted tree reuses the
// existing levels instead of nesting new ones:
//
//	<root>       -> <root>/<year>/<month>
//	<root>/2019  -> <root>/2019/<month>   (scan root named after the year)
//	<root>/2019/05 -> <root>/2019/05      (scan root named after the month)
//	<root>/2018  -> <root>/<year>/<month> (any other year-like scan root)
func ArchiveDir(scanRoot, year, month string) string {
	base := filepath.Base(scanRoot)
	switch {
	case base == year:
		return filepath.Join(scanRoot, month)
	case base == month:
		return scanRoot
	case yearDirPattern.MatchString(base):
		return filepath.Join(filepath.Dir(scanRoot), year, month)
	default:
		return filepath.Join(scanRoot, year, month)
	}
}

// BuildDestination returns the canonical path of f. The second return value
// is false when the file already sits at that path.
func BuildDestination(scanRoot string, f MediaFile, ts Timestamp) (string, bool) {
	dest := filepath.Join(ArchiveDir(scanRoot, ts.Year, ts.Month), ts.Filename(f.Ext))
	if filepath.Clean(dest) == filepath.Clean(f.Path) {
		return dest, false
	}
	return dest, true
}
