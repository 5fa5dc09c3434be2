package internal

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/goccy/go-json"
)

// SurveyReport describes what a sort of the same tree would find, without
// reading metadata or touching any file.
type SurveyReport struct {
	Root       string `json:"root"`
	Photos     int    `json:"photos"`
	Videos     int    `json:"videos"`
	TotalBytes int64  `json:"total_bytes"`

	Canonical     int `json:"canonical"`       // already named by capture time
	InPlace       int `json:"in_place"`        // canonical and in the right folder
	NamedByDate   int `json:"named_by_date"`   // name carries a timestamp in another layout
	NeedsMetadata int `json:"needs_metadata"`  // only metadata can date these
	KnownToLedger int `json:"known_to_ledger"` // skipped by the next run

	Extensions   map[string]*ExtensionInfo `json:"extensions"`
	SkippedDirs  []string                  `json:"skipped_dirs,omitempty"`
	Oldest       string                    `json:"oldest,omitempty"` // from file names only
	Newest       string                    `json:"newest,omitempty"`
	ScanDuration time.Duration             `json:"scan_duration_ns"`
}

// ExtensionInfo contains information about one file extension
type ExtensionInfo struct {
	Kind      string `json:"kind"`
	Count     int    `json:"count"`
	TotalSize int64  `json:"total_size_bytes"`
}

// LedgerChecker is satisfied by *Ledger.
type LedgerChecker interface {
	HasBeenProcessed(name string) (bool, error)
}

// Survey scans root the way a sort would. ledger may be nil.
func Survey(root string, filter *PathFilter, ledger LedgerChecker) (*SurveyReport, error) {
	start := time.Now()
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	report := &SurveyReport{
		Root:       root,
		Extensions: make(map[string]*ExtensionInfo),
	}

	// special directories are listed, not descended into
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() && path != root && filter.SkipDir(d.Name()) {
			report.SkippedDirs = append(report.SkippedDirs, path)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	err = WalkMedia(root, filter, func(f MediaFile) error {
		report.add(root, f, ledger)
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.ScanDuration = time.Since(start)
	return report, nil
}

func (r *SurveyReport) add(root string, f MediaFile, ledger LedgerChecker) {
	switch f.Kind {
	case KindPhoto:
		r.Photos++
	case KindVideo:
		r.Videos++
	}

	var size int64
	if info, err := os.Stat(f.Path); err == nil {
		size = info.Size()
	}
	r.TotalBytes += size

	ext := strings.ToLower(f.Ext)
	info, ok := r.Extensions[ext]
	if !ok {
		info = &ExtensionInfo{Kind: f.Kind.String()}
		r.Extensions[ext] = info
	}
	info.Count++
	info.TotalSize += size

	if ledger != nil {
		if done, err := ledger.HasBeenProcessed(f.Name()); err == nil && done {
			r.KnownToLedger++
		}
	}

	ts, ok := ParseFilename(f.Path)
	switch {
	case ok && IsCanonicalName(f.Name()):
		r.Canonical++
		if _, move := BuildDestination(root, f, ts); !move {
			r.InPlace++
		}
	case ok && ts.Valid():
		r.NamedByDate++
	default:
		r.NeedsMetadata++
	}

	if ok && ts.Valid() {
		day := ts.Year + "-" + ts.Month + "-" + ts.Day
		if r.Oldest == "" || day < r.Oldest {
			r.Oldest = day
		}
		if day > r.Newest {
			r.Newest = day
		}
	}
}

// WriteJSON writes the report as indented JSON.
func (r *SurveyReport) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// Print writes the report as a table.
func (r *SurveyReport) Print(w io.Writer) {
	title := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)

	title.Fprintf(w, "=== Survey: %s ===\n\n", r.Root)

	fmt.Fprintf(w, "📊 Overview:\n")
	fmt.Fprintf(w, "  - %s photos, %s videos (%s)\n",
		humanize.Comma(int64(r.Photos)), humanize.Comma(int64(r.Videos)), humanize.Bytes(uint64(r.TotalBytes)))
	if r.Oldest != "" {
		fmt.Fprintf(w, "  - Dated by name from %s to %s\n", r.Oldest, r.Newest)
	}
	if len(r.SkippedDirs) > 0 {
		fmt.Fprintf(w, "  - %d special directories skipped\n", len(r.SkippedDirs))
	}
	fmt.Fprintf(w, "  - Scan completed in %v\n\n", r.ScanDuration.Round(time.Millisecond))

	fmt.Fprintf(w, "🗂  Naming:\n")
	fmt.Fprintf(w, "  - %d canonical (%d already in place)\n", r.Canonical, r.InPlace)
	fmt.Fprintf(w, "  - %d dated by file name\n", r.NamedByDate)
	fmt.Fprintf(w, "  - %d need metadata\n", r.NeedsMetadata)
	if r.KnownToLedger > 0 {
		fmt.Fprintf(w, "  - %d already in the ledger\n", r.KnownToLedger)
	}

	if len(r.Extensions) == 0 {
		return
	}
	fmt.Fprintf(w, "\n📁 Extensions:\n")
	exts := make([]string, 0, len(r.Extensions))
	for ext := range r.Extensions {
		exts = append(exts, ext)
	}
	sort.Slice(exts, func(i, j int) bool {
		a, b := r.Extensions[exts[i]], r.Extensions[exts[j]]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return exts[i] < exts[j]
	})
	for _, ext := range exts {
		info := r.Extensions[ext]
		fmt.Fprintf(w, "  %-6s %6d  %10s  ", strings.TrimPrefix(ext, "."), info.Count, humanize.Bytes(uint64(info.TotalSize)))
		dim.Fprintln(w, info.Kind)
	}
}
