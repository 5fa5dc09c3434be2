package internal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Timestamp is a capture time as it appears in filenames and tags.
// Fields are kept as zero-padded strings so that invalid values such as
// "0000:00:00 00:00:00" survive parsing and can be judged later.
type Timestamp struct {
	Year   string
	Month  string
	Day    string
	Hour   string
	Minute string
	Second string
	Millis string // always 3 digits
	Offset string // "+HH:MM" when present, informational only
}

// Valid reports whether the timestamp can be used to build a destination.
func (t Timestamp) Valid() bool {
	if len(t.Year) != 4 || t.Year == "0000" {
		return false
	}
	if len(t.Month) != 2 || t.Month < "01" || t.Month > "12" {
		return false
	}
	for _, s := range []string{t.Day, t.Hour, t.Minute, t.Second} {
		if len(s) != 2 {
			return false
		}
	}
	return len(t.Millis) == 3
}

// Stem returns the canonical filename without extension: YYYY-MM-DD HH.MM.SS.mmm
func (t Timestamp) Stem() string {
	return fmt.Sprintf("%s-%s-%s %s.%s.%s.%s",
		t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second, t.millis())
}

// Filename returns the canonical filename for the given extension.
func (t Timestamp) Filename(ext string) string {
	return t.Stem() + ext
}

// ExifString formats the timestamp the way DateTimeOriginal stores it.
func (t Timestamp) ExifString() string {
	return fmt.Sprintf("%s:%s:%s %s:%s:%s", t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second)
}

func (t Timestamp) String() string {
	return t.Stem()
}

func (t Timestamp) millis() string {
	if t.Millis == "" {
		return "000"
	}
	return t.Millis
}

// withTimeOf keeps the date of t and takes the time of day from o.
func (t Timestamp) withTimeOf(o Timestamp) Timestamp {
	t.Hour, t.Minute, t.Second, t.Millis = o.Hour, o.Minute, o.Second, o.millis()
	return t
}

// NormalizeSubSec turns a sub-second string of any length into exactly three
// digits. Short values are right-padded, long ones are rounded half-up and
// clamped to 999. Anything that is not all digits yields "".
func NormalizeSubSec(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return ""
		}
	}
	if len(s) <= 3 {
		return s + strings.Repeat("0", 3-len(s))
	}

	if len(s) > 18 {
		s = s[:18]
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return ""
	}
	den := uint64(math.Pow10(len(s) - 3))
	ms := n / den
	if (n%den)*2 >= den {
		ms++
	}
	if ms > 999 {
		ms = 999
	}
	return fmt.Sprintf("%03d", ms)
}
