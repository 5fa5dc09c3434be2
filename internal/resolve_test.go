package internal

import (
	"errors"
	"testing"
)

func testMedia(path string) MediaFile {
	f, _ := NewClassifier([]string{".jpg"}, []string{".mp4"}).MediaFile(path)
	return f
}

func TestResolve_CanonicalNameSkipsMetadata(t *testing.T) {
	store := newMemTagStore()
	f := testMedia("/lib/2019-05-10 09.15.22.123.jpg")
	store.set(f.Path, TagDateTimeOriginal, "2001:01:01 01:01:01")

	res, err := NewResolver(store, false, nil).Resolve(f)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Source != SourceCanonical {
		t.Errorf("Expected canonical source, got %s", res.Source)
	}
	if res.Timestamp.Stem() != "2019-05-10 09.15.22.123" {
		t.Errorf("unexpected timestamp %s", res.Timestamp)
	}
	if store.reads != 0 {
		t.Errorf("Expected no metadata reads, got %d", store.reads)
	}
}

func TestResolve_CanonicalNameInvalid(t *testing.T) {
	_, err := NewResolver(newMemTagStore(), false, nil).Resolve(testMedia("/lib/0000-00-00 00.00.00.000.jpg"))
	if !errors.Is(err, ErrInvalidTimestamp) {
		t.Errorf("Expected ErrInvalidTimestamp, got %v", err)
	}
}

func TestResolve_PhotoPrimaryTagWithSubSec(t *testing.T) {
	store := newMemTagStore()
	f := testMedia("/lib/DSC_0001.jpg")
	store.set(f.Path, TagDateTimeOriginal, "2018:07:01 18:22:05")
	store.set(f.Path, TagSubSecTimeOriginal, "45")
	store.set(f.Path, TagFileModifyDate, "2023:01:01 00:00:00+01:00")

	res, err := NewResolver(store, false, nil).Resolve(f)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Source != SourceMetadata || res.Tag != TagDateTimeOriginal {
		t.Errorf("Expected DateTimeOriginal metadata, got %s/%s", res.Source, res.Tag)
	}
	if res.Timestamp.Stem() != "2018-07-01 18.22.05.450" {
		t.Errorf("unexpected timestamp %s", res.Timestamp)
	}
}

func TestResolve_PhotoFallsBackToFileModifyDate(t *testing.T) {
	store := newMemTagStore()
	f := testMedia("/lib/scan.jpg")
	store.set(f.Path, TagDateTimeOriginal, "not a date")
	store.set(f.Path, TagFileModifyDate, "2023:05:01 12:00:00+02:00")

	res, err := NewResolver(store, false, nil).Resolve(f)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Tag != TagFileModifyDate {
		t.Errorf("Expected FileModifyDate, got %s", res.Tag)
	}
	if res.Timestamp.Stem() != "2023-05-01 12.00.00.000" {
		t.Errorf("unexpected timestamp %s", res.Timestamp)
	}
}

func TestResolve_VideoChain(t *testing.T) {
	tests := []struct {
		name    string
		tags    map[string]string
		wantTag string
		want    string
	}{
		{
			name:    "create date with subsec",
			tags:    map[string]string{TagCreateDate: "2021:02:03 04:05:06", TagSubSecTimeDigitized: "7", TagCreationDate: "2000:01:01 00:00:00"},
			wantTag: TagCreateDate,
			want:    "2021-02-03 04.05.06.700",
		},
		{
			name:    "creation date",
			tags:    map[string]string{TagCreationDate: "2021:02:03 04:05:06+01:00", TagDateTimeOriginal: "2000:01:01 10:00:00"},
			wantTag: TagCreationDate,
			want:    "2021-02-03 04.05.06.000",
		},
		{
			name:    "date time original last",
			tags:    map[string]string{TagDateTimeOriginal: "2021:02:03 04:05:06"},
			wantTag: TagDateTimeOriginal,
			want:    "2021-02-03 04.05.06.000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemTagStore()
			f := testMedia("/lib/clip.mp4")
			for k, v := range tt.tags {
				store.set(f.Path, k, v)
			}
			res, err := NewResolver(store, false, nil).Resolve(f)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if res.Tag != tt.wantTag {
				t.Errorf("Expected tag %s, got %s", tt.wantTag, res.Tag)
			}
			if res.Timestamp.Stem() != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, res.Timestamp)
			}
		})
	}
}

func TestResolve_HourReconciliation(t *testing.T) {
	store := newMemTagStore()
	f := testMedia("/lib/2020-01-01 14.30.00.jpg")
	store.set(f.Path, TagDateTimeOriginal, "2020:01:01 00:00:00")

	res, err := NewResolver(store, false, nil).Resolve(f)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Source != SourceMerged {
		t.Errorf("Expected merged source, got %s", res.Source)
	}
	if res.Timestamp.Stem() != "2020-01-01 14.30.00.000" {
		t.Errorf("Expected 2020-01-01 14.30.00.000, got %s", res.Timestamp)
	}
	if !res.Repaired {
		t.Error("Expected DateTimeOriginal to be repaired")
	}
	if len(store.writes) != 1 || store.writes[0].Tag != TagDateTimeOriginal || store.writes[0].Value != "2020:01:01 14:30:00" {
		t.Errorf("unexpected writes %+v", store.writes)
	}
}

func TestResolve_HourReconciliationTakesDateFromNameWhenYearUnset(t *testing.T) {
	store := newMemTagStore()
	f := testMedia("/lib/IMG_20190510_091522.jpg")
	store.set(f.Path, TagDateTimeOriginal, "0000:00:00 00:00:00")

	res, err := NewResolver(store, false, nil).Resolve(f)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Timestamp.Stem() != "2019-05-10 09.15.22.000" {
		t.Errorf("unexpected timestamp %s", res.Timestamp)
	}
	if len(store.writes) != 1 || store.writes[0].Value != "2019:05:10 09:15:22" {
		t.Errorf("unexpected writes %+v", store.writes)
	}
}

func TestResolve_HourReconciliationDryRun(t *testing.T) {
	store := newMemTagStore()
	f := testMedia("/lib/2020-01-01 14.30.00.jpg")
	store.set(f.Path, TagDateTimeOriginal, "2020:01:01 00:00:00")

	res, err := NewResolver(store, true, nil).Resolve(f)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Repaired || len(store.writes) != 0 {
		t.Error("Expected no tag writes in dry run")
	}
}

func TestResolve_MetadataBeatsName(t *testing.T) {
	store := newMemTagStore()
	f := testMedia("/lib/IMG_20190510_091522.jpg")
	store.set(f.Path, TagDateTimeOriginal, "2019:05:10 10:00:00")

	res, err := NewResolver(store, false, nil).Resolve(f)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Source != SourceMetadata || res.Timestamp.Stem() != "2019-05-10 10.00.00.000" {
		t.Errorf("unexpected resolution %+v", res)
	}
	if len(store.writes) != 0 {
		t.Error("Expected no repair when metadata has a time of day")
	}
}

func TestResolve_NameWhenMetadataInvalid(t *testing.T) {
	store := newMemTagStore()
	f := testMedia("/lib/20190510_000000.jpg")
	store.set(f.Path, TagDateTimeOriginal, "0000:00:00 00:00:00")

	res, err := NewResolver(store, false, nil).Resolve(f)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Source != SourceFilename {
		t.Errorf("Expected filename source, got %s", res.Source)
	}
}

func TestResolve_NameOnly(t *testing.T) {
	res, err := NewResolver(newMemTagStore(), false, nil).Resolve(testMedia("/archive/Misc/IMG_2019-05-10 09.15.22.jpg"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Source != SourceFilename || res.Timestamp.Filename(".jpg") != "2019-05-10 09.15.22.000.jpg" {
		t.Errorf("unexpected resolution %+v", res)
	}
}

func TestResolve_InvalidEvidenceRejected(t *testing.T) {
	store := newMemTagStore()
	f := testMedia("/lib/holiday.jpg")
	store.set(f.Path, TagDateTimeOriginal, "0000:00:00 00:00:00")

	_, err := NewResolver(store, false, nil).Resolve(f)
	if !errors.Is(err, ErrInvalidTimestamp) {
		t.Errorf("Expected ErrInvalidTimestamp, got %v", err)
	}
	if len(store.writes) != 0 {
		t.Error("Expected no writes for an invalid timestamp")
	}
}

func TestResolve_NoEvidence(t *testing.T) {
	_, err := NewResolver(newMemTagStore(), false, nil).Resolve(testMedia("/lib/holiday.jpg"))
	if !errors.Is(err, ErrUnresolvable) {
		t.Errorf("Expected ErrUnresolvable, got %v", err)
	}
}

func TestResolve_NilTagStore(t *testing.T) {
	res, err := NewResolver(nil, false, nil).Resolve(testMedia("/lib/IMG_20190510_091522.jpg"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Source != SourceFilename {
		t.Errorf("Expected filename source, got %s", res.Source)
	}
}
