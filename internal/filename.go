package internal

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// timestampPattern matches names such as IMG_20190510_091522, 2019-05-10 09.15.22.123
	// and tag values such as 2019:05:10 09:15:22+02:00.
	timestampPattern = regexp.MustCompile(`(?i)^(?:\w{3}_)?` +
		`(?P<year>\d{4})[.\-:]?(?P<month>\d{2})[.\-:]?(?P<day>\d{2})` +
		`[\s\-_]` +
		`(?P<hour>\d{2})[.\-:]?(?P<minute>\d{2})[.\-:]?(?P<second>\d{2})` +
		`(?:[.\-:]?(?P<subsec>\d{0,9}))?` +
		`(?P<offset>\+\d{2}[.\-:]\d{2})?`)

	canonicalPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}\.\d{2}\.\d{2}\.\d{3}`)

	// timestampStemPattern recognises stems that already read as a date,
	// which are not worth keeping as a Title.
	timestampStemPattern = regexp.MustCompile(`^\d{4}[\-:.]\d{2}[\-:.]\d{2}\s\d{2}[\-:.]\d{2}[\-:.]\d{2}([\-:.]\d{3})?`)
)

// ParseTimestamp extracts a timestamp from the start of s. It accepts both
// basenames and metadata tag values.
func ParseTimestamp(s string) (Timestamp, bool) {
	m := timestampPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Timestamp{}, false
	}

	group := func(name string) string {
		return m[timestampPattern.SubexpIndex(name)]
	}

	ts := Timestamp{
		Year:   group("year"),
		Month:  group("month"),
		Day:    group("day"),
		Hour:   group("hour"),
		Minute: group("minute"),
		Second: group("second"),
		Millis: NormalizeSubSec(group("subsec")),
		Offset: group("offset"),
	}
	if ts.Millis == "" {
		ts.Millis = "000"
	}
	return ts, true
}

// ParseFilename runs ParseTimestamp on the basename of path.
func ParseFilename(path string) (Timestamp, bool) {
	return ParseTimestamp(filepath.Base(path))
}

// IsCanonicalName reports whether the basename already starts with
// YYYY-MM-DD HH.MM.SS.mmm.
func IsCanonicalName(name string) bool {
	return canonicalPattern.MatchString(filepath.Base(name))
}

// looksLikeTimestamp reports whether a stem already reads as a date and time.
func looksLikeTimestamp(stem string) bool {
	return timestampStemPattern.MatchString(stem)
}
