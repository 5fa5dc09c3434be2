package internal

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	ErrUnresolvable     = errors.New("no timestamp in filename or metadata")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// Source records where a resolved timestamp came from.
type Source int

const (
	SourceCanonical Source = iota // the name was already canonical
	SourceFilename                // parsed from a non-canonical name
	SourceMetadata                // a metadata tag
	SourceMerged                  // date from metadata or name, time of day from the name
)

func (s Source) String() string {
	switch s {
	case SourceCanonical:
		return "canonical"
	case SourceFilename:
		return "filename"
	case SourceMetadata:
		return "metadata"
	case SourceMerged:
		return "merged"
	default:
		return "unknown"
	}
}

// Resolution is the outcome of resolving one file.
type Resolution struct {
	Timestamp Timestamp
	Source    Source
	Tag       string // metadata tag used, if any
	Repaired  bool   // DateTimeOriginal was rewritten with the merged value
}

// FromFilename reports whether the timestamp was read from a well-formed name.
func (r Resolution) FromFilename() bool {
	return r.Source == SourceCanonical || r.Source == SourceFilename
}

// Resolver picks exactly one capture timestamp per file.
type Resolver struct {
	tags   TagStore
	dryRun bool
	logger *slog.Logger
}

func NewResolver(tags TagStore, dryRun bool, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{tags: tags, dryRun: dryRun, logger: logger}
}

// Resolve returns the capture timestamp of f. Canonical names are trusted
// without looking at metadata. Otherwise the media kind's tag chain is walked
// and the result is reconciled with whatever the name carries. The first
// valid candidate wins; when none is valid the file is unresolvable.
func (r *Resolver) Resolve(f MediaFile) (Resolution, error) {
	name := f.Name()

	if IsCanonicalName(name) {
		ts, _ := ParseTimestamp(name)
		if !ts.Valid() {
			return Resolution{}, fmt.Errorf("%w: %s in name", ErrInvalidTimestamp, ts)
		}
		return Resolution{Timestamp: ts, Source: SourceCanonical}, nil
	}

	fromName, hasName := ParseTimestamp(name)
	fromTags, tag, hasTags := r.fromMetadata(f)

	var candidates []Resolution
	switch {
	case hasTags && hasName && fromTags.Hour == "00" && fromName.Hour != "00":
		candidates = append(candidates, Resolution{Timestamp: reconcile(fromTags, fromName), Source: SourceMerged, Tag: tag})
	case hasTags:
		candidates = append(candidates, Resolution{Timestamp: fromTags, Source: SourceMetadata, Tag: tag})
	}
	if hasName {
		candidates = append(candidates, Resolution{Timestamp: fromName, Source: SourceFilename})
	}

	for _, c := range candidates {
		if !c.Timestamp.Valid() {
			r.logger.Debug("rejecting invalid timestamp", "path", f.Path, "source", c.Source, "tag", c.Tag, "timestamp", c.Timestamp.String())
			continue
		}
		if c.Source == SourceMerged {
			c.Repaired = r.repair(f, c.Timestamp)
		}
		return c, nil
	}

	if len(candidates) > 0 {
		return Resolution{}, fmt.Errorf("%w: %s", ErrInvalidTimestamp, candidates[0].Timestamp)
	}
	return Resolution{}, ErrUnresolvable
}

// fromMetadata walks the tag chain of the file's kind and returns the first
// tag value that parses as a timestamp.
func (r *Resolver) fromMetadata(f MediaFile) (Timestamp, string, bool) {
	if r.tags == nil {
		return Timestamp{}, "", false
	}

	for _, q := range f.Kind.TagChain() {
		v, ok := r.tags.GetTag(f.Path, q.Date)
		if !ok {
			continue
		}
		ts, ok := ParseTimestamp(v)
		if !ok {
			r.logger.Debug("unparseable date tag", "path", f.Path, "tag", q.Date, "value", v)
			continue
		}
		if q.SubSec != "" {
			if sub, ok := r.tags.GetTag(f.Path, q.SubSec); ok {
				if ms := NormalizeSubSec(sub); ms != "" {
					ts.Millis = ms
				}
			}
		}
		return ts, q.Date, true
	}
	return Timestamp{}, "", false
}

// reconcile merges a metadata timestamp without time of day with a name that
// has one. The date comes from metadata unless its year is unset.
func reconcile(fromTags, fromName Timestamp) Timestamp {
	date := fromTags
	if fromTags.Year == "0000" {
		date = fromName
	}
	merged := date.withTimeOf(fromName)
	merged.Offset = ""
	return merged
}

// repair writes the merged value back into DateTimeOriginal.
func (r *Resolver) repair(f MediaFile, ts Timestamp) bool {
	if r.dryRun || r.tags == nil {
		return false
	}
	if !r.tags.SetTag(f.Path, TagDateTimeOriginal, ts.ExifString()) {
		r.logger.Warn("failed to repair DateTimeOriginal", "path", f.Path, "value", ts.ExifString())
		return false
	}
	r.logger.Info("repaired DateTimeOriginal", "path", f.Path, "value", ts.ExifString())
	return true
}
