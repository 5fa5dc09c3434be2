package internal

import (
	"testing"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"canonical", "2019-05-10 09.15.22.123.jpg", "2019-05-10 09.15.22.123", true},
		{"camera prefix", "IMG_20190510_091522.jpg", "2019-05-10 09.15.22.000", true},
		{"prefix with separators", "IMG_2019-05-10 09.15.22.jpg", "2019-05-10 09.15.22.000", true},
		{"lowercase prefix", "vid_20200101-143000.mp4", "2020-01-01 14.30.00.000", true},
		{"compact with dash", "20200101-143000.mov", "2020-01-01 14.30.00.000", true},
		{"short subsec", "2019-05-10 09.15.22.5.jpg", "2019-05-10 09.15.22.500", true},
		{"long subsec", "PXL_20230101_101010123456.jpg", "2023-01-01 10.10.10.123", true},
		{"exif value", "2020:01:01 00:00:00", "2020-01-01 00.00.00.000", true},
		{"exif value with offset", "2023:05:01 12:00:00+02:00", "2023-05-01 12.00.00.000", true},
		{"exif value with subsec", "2020:01:01 10:00:00.45", "2020-01-01 10.00.00.450", true},
		{"no time", "2019-05-10.jpg", "", false},
		{"free text", "holiday at the beach.jpg", "", false},
		{"long prefix", "Screenshot_20190510_091522.png", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, ok := ParseTimestamp(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseTimestamp(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && ts.Stem() != tt.want {
				t.Errorf("ParseTimestamp(%q) = %q, want %q", tt.input, ts.Stem(), tt.want)
			}
		})
	}
}

func TestParseTimestamp_Offset(t *testing.T) {
	ts, ok := ParseTimestamp("2023:05:01 12:00:00+02:00")
	if !ok {
		t.Fatal("expected a match")
	}
	if ts.Offset != "+02:00" {
		t.Errorf("Expected offset +02:00, got %q", ts.Offset)
	}
}

func TestParseFilename_UsesBasename(t *testing.T) {
	ts, ok := ParseFilename("/archive/2019-01-01 00.00.00/IMG_20190510_091522.jpg")
	if !ok {
		t.Fatal("expected a match")
	}
	if ts.Stem() != "2019-05-10 09.15.22.000" {
		t.Errorf("unexpected timestamp %s", ts.Stem())
	}
}

func TestIsCanonicalName(t *testing.T) {
	cases := map[string]bool{
		"2019-05-10 09.15.22.000.jpg":      true,
		"/a/b/2019-05-10 09.15.22.123.mov": true,
		"2019-05-10 09.15.22.000 (1).jpg":  true,
		"2019-05-10 09.15.22.jpg":          false,
		"IMG_2019-05-10 09.15.22.000.jpg":  false,
		"2019-05-10_09.15.22.000.jpg":      false,
	}
	for name, want := range cases {
		if got := IsCanonicalName(name); got != want {
			t.Errorf("IsCanonicalName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestLooksLikeTimestamp(t *testing.T) {
	if !looksLikeTimestamp("2019-05-10 09.15.22") {
		t.Error("expected dotted timestamp to match")
	}
	if !looksLikeTimestamp("2019:05:10 09:15:22.123") {
		t.Error("expected colon timestamp to match")
	}
	if looksLikeTimestamp("IMG_2019-05-10 09.15.22") {
		t.Error("prefixed stem should not match")
	}
	if looksLikeTimestamp("Birthday party") {
		t.Error("free text should not match")
	}
}

func TestNormalizeSubSec(t *testing.T) {
	cases := map[string]string{
		"":       "",
		"5":      "500",
		"12":     "120",
		"123":    "123",
		"1234":   "123",
		"1235":   "124",
		"123456": "123",
		"9996":   "999",
		" 45 ":   "450",
		"abc":    "",
		"12a":    "",
	}
	for in, want := range cases {
		if got := NormalizeSubSec(in); got != want {
			t.Errorf("NormalizeSubSec(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTimestampValid(t *testing.T) {
	valid, _ := ParseTimestamp("2020:01:01 10:00:00")
	if !valid.Valid() {
		t.Error("expected valid timestamp")
	}

	zero, _ := ParseTimestamp("0000:00:00 00:00:00")
	if zero.Valid() {
		t.Error("expected zero timestamp to be invalid")
	}

	noMonth, _ := ParseTimestamp("2020:00:01 10:00:00")
	if noMonth.Valid() {
		t.Error("expected month 00 to be invalid")
	}

	badMonth, _ := ParseTimestamp("2020:13:01 10:00:00")
	if badMonth.Valid() {
		t.Error("expected month 13 to be invalid")
	}
}

func TestTimestampFormats(t *testing.T) {
	ts, _ := ParseTimestamp("IMG_20190510_091522")
	if got := ts.Filename(".JPG"); got != "2019-05-10 09.15.22.000.JPG" {
		t.Errorf("unexpected filename %q", got)
	}
	if got := ts.ExifString(); got != "2019:05:10 09:15:22" {
		t.Errorf("unexpected exif string %q", got)
	}
}
