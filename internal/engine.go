package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// ProcessLedger is the part of the ledger the engine needs.
type ProcessLedger interface {
	HasBeenProcessed(name string) (bool, error)
	Record(canonicalName, previousName, finalPath string) error
}

// Summary holds the totals of a run.
type Summary struct {
	Scanned      int           `json:"scanned"`
	Moved        int           `json:"moved"`
	InPlace      int           `json:"in_place"`
	Skipped      int           `json:"skipped"`
	Unresolved   int           `json:"unresolved"`
	Failed       int           `json:"failed"`
	Repaired     int           `json:"repaired"`
	Titled       int           `json:"titled"`
	Duplicates   int           `json:"duplicates"`
	LedgerErrors int           `json:"ledger_errors"`
	Pruned       int           `json:"pruned"`
	Interrupted  bool          `json:"interrupted,omitempty"`
	Duration     time.Duration `json:"duration_ns"`
}

// FileStatus is what happened to one file.
type FileStatus int

const (
	StatusSkipped FileStatus = iota
	StatusInPlace
	StatusMoved
	StatusUnresolved
	StatusFailed
)

func (s FileStatus) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusInPlace:
		return "in place"
	case StatusMoved:
		return "moved"
	case StatusUnresolved:
		return "unresolved"
	default:
		return "failed"
	}
}

// FileResult is the outcome of ProcessFile.
type FileResult struct {
	Status     FileStatus
	Path       string // where the file is now
	Resolution Resolution
	Err        *ProcessError
}

type EngineOptions struct {
	Filter   *PathFilter
	Tags     TagStore
	Ledger   ProcessLedger // nil disables skip-on-rerun
	Manifest *RunManifest  // nil disables the manifest
	DryRun   bool
	Prune    bool
	Logger   *slog.Logger
}

// Engine sorts one directory tree. It processes files strictly one at a
// time; a failure is confined to the file it happened on.
type Engine struct {
	root     string
	filter   *PathFilter
	tags     TagStore
	ledger   ProcessLedger
	manifest *RunManifest
	resolver *Resolver
	mover    *Mover
	dryRun   bool
	prune    bool
	logger   *slog.Logger

	summary Summary
	stats   *ErrorStats
}

// NewEngine prepares a run over root, which must be an existing directory.
func NewEngine(root string, opts EngineOptions) (*Engine, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("folder does not exist or is not a directory: %s", root)
	}
	if opts.Filter == nil {
		return nil, errors.New("engine needs a path filter")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		root:     abs,
		filter:   opts.Filter,
		tags:     opts.Tags,
		ledger:   opts.Ledger,
		manifest: opts.Manifest,
		resolver: NewResolver(opts.Tags, opts.DryRun, logger),
		mover:    NewMover(opts.DryRun, logger),
		dryRun:   opts.DryRun,
		prune:    opts.Prune,
		logger:   logger,
		stats:    NewErrorStats(),
	}, nil
}

// Root returns the absolute scan root.
func (e *Engine) Root() string { return e.root }

// Summary returns the totals so far.
func (e *Engine) Summary() Summary { return e.summary }

// Errors returns the categorized failures so far.
func (e *Engine) Errors() *ErrorStats { return e.stats }

// Run walks the tree, processes every media file and prunes empty
// directories afterwards. Cancelling ctx stops the walk between two files;
// pruning is skipped in that case.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	if err := e.manifest.LogRunStart(); err != nil {
		e.logger.Warn("failed to write manifest", "err", err)
	}

	err := WalkMedia(e.root, e.filter, func(f MediaFile) error {
		if ctx.Err() != nil {
			return errStopWalk
		}
		e.ProcessFile(f)
		return nil
	})
	if err != nil {
		return e.summary, err
	}

	if ctx.Err() != nil {
		e.summary.Interrupted = true
		e.logger.Warn("run interrupted, remaining files are left for the next run")
	} else if e.prune {
		e.Prune()
	}

	e.summary.Duration = time.Since(start)
	if err := e.manifest.LogRunEnd(e.summary); err != nil {
		e.logger.Warn("failed to write manifest", "err", err)
	}
	return e.summary, nil
}

// ProcessFile resolves, moves and records a single file.
func (e *Engine) ProcessFile(f MediaFile) FileResult {
	e.summary.Scanned++
	name := f.Name()
	log := e.logger.With("path", f.Path)

	if e.ledger != nil {
		done, err := e.ledger.HasBeenProcessed(name)
		if err != nil {
			log.Warn("ledger lookup failed, processing anyway", "err", err)
		} else if done {
			e.summary.Skipped++
			log.Debug("already processed")
			e.event(ManifestEvent{Event: EventSkipped, Src: f.Path})
			return FileResult{Status: StatusSkipped, Path: f.Path}
		}
	}

	res, err := e.resolver.Resolve(f)
	if err != nil {
		e.summary.Unresolved++
		procErr := e.fail(EventUnresolved, f.Path, "", err)
		log.Warn("no usable timestamp, leaving file in place", "err", err)
		return FileResult{Status: StatusUnresolved, Path: f.Path, Err: procErr}
	}
	log = log.With("source", res.Source.String(), "timestamp", res.Timestamp.String())
	if res.Repaired {
		e.summary.Repaired++
		e.event(ManifestEvent{Event: EventRepaired, Src: f.Path, Tag: TagDateTimeOriginal, Value: res.Timestamp.ExifString()})
	}

	dest, move := BuildDestination(e.root, f, res.Timestamp)
	if !move {
		return e.inPlace(f, res, log)
	}

	mres, err := e.mover.Move(f.Path, dest)
	if err != nil {
		e.summary.Failed++
		procErr := e.fail(EventFailed, f.Path, dest, err)
		log.Error("failed to move file", "dest", dest, "err", err)
		return FileResult{Status: StatusFailed, Path: f.Path, Resolution: res, Err: procErr}
	}
	if mres.Outcome == OutcomeUnchanged {
		return e.inPlace(f, res, log)
	}

	e.summary.Moved++
	if mres.Duplicate != "" {
		e.summary.Duplicates++
	}
	e.event(ManifestEvent{
		Event:    EventMoved,
		Src:      f.Path,
		Dest:     mres.Path,
		Existing: mres.Duplicate,
		Source:   res.Source.String(),
		Tag:      res.Tag,
	})

	e.record(filepath.Base(mres.Path), name, mres.Path, log)

	if BackfillTitle(e.tags, res, f.Stem(), mres.Path, e.dryRun, log) {
		e.summary.Titled++
		e.event(ManifestEvent{Event: EventTitled, Src: mres.Path, Tag: TagTitle, Value: f.Stem()})
	}

	return FileResult{Status: StatusMoved, Path: mres.Path, Resolution: res}
}

func (e *Engine) inPlace(f MediaFile, res Resolution, log *slog.Logger) FileResult {
	e.summary.InPlace++
	log.Debug("already in place")
	e.event(ManifestEvent{Event: EventInPlace, Src: f.Path, Source: res.Source.String()})
	e.record(f.Name(), f.Name(), f.Path, log)
	return FileResult{Status: StatusInPlace, Path: f.Path, Resolution: res}
}

// record writes the ledger entry. A failure is reported but does not undo
// the move: the file is simply looked at again next run.
func (e *Engine) record(canonicalName, previousName, finalPath string, log *slog.Logger) {
	if e.ledger == nil || e.dryRun {
		return
	}
	if err := e.ledger.Record(canonicalName, previousName, finalPath); err != nil {
		e.summary.LedgerErrors++
		e.fail(EventFailed, finalPath, "", err)
		log.Error("failed to record file in ledger", "err", err)
	}
}

func (e *Engine) fail(event, path, dest string, err error) *ProcessError {
	procErr := CategorizeError(path, err)
	if dest != "" {
		procErr.Context["dest"] = dest
	}
	e.stats.Add(procErr)
	if merr := e.manifest.LogError(event, procErr); merr != nil {
		e.logger.Warn("failed to write manifest", "err", merr)
	}
	return procErr
}

func (e *Engine) event(ev ManifestEvent) {
	if err := e.manifest.LogEvent(ev); err != nil {
		e.logger.Warn("failed to write manifest", "err", err)
	}
}

// Prune removes directories left empty under the scan root.
func (e *Engine) Prune() {
	pruned, err := PruneEmptyDirs(e.root, e.filter, e.dryRun, e.logger)
	if err != nil {
		e.logger.Error("failed to prune empty directories", "err", err)
		return
	}
	e.summary.Pruned += len(pruned)
	for _, dir := range pruned {
		e.event(ManifestEvent{Event: EventPruned, Src: dir})
	}
}

// Print writes the human readable summary.
func (s Summary) Print(w io.Writer, dryRun bool) {
	title := color.New(color.FgCyan, color.Bold)
	good := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	bad := color.New(color.FgRed)

	heading := "Summary"
	if dryRun {
		heading = "Summary (dry run, nothing was changed)"
	}
	title.Fprintf(w, "\n=== %s ===\n", heading)

	row := func(c *color.Color, label string, n int) {
		if n == 0 {
			return
		}
		c.Fprintf(w, "  %-18s %s\n", label, humanize.Comma(int64(n)))
	}
	fmt.Fprintf(w, "  %-18s %s\n", "Scanned", humanize.Comma(int64(s.Scanned)))
	row(good, "Moved", s.Moved)
	row(good, "Already in place", s.InPlace)
	row(good, "Skipped (ledger)", s.Skipped)
	row(good, "Dates repaired", s.Repaired)
	row(good, "Titles kept", s.Titled)
	row(good, "Dirs pruned", s.Pruned)
	row(warn, "Duplicates", s.Duplicates)
	row(warn, "Unresolved", s.Unresolved)
	row(bad, "Failed", s.Failed)
	row(bad, "Ledger errors", s.LedgerErrors)
	fmt.Fprintf(w, "  %-18s %s\n", "Took", s.Duration.Round(time.Millisecond))
	if s.Interrupted {
		warn.Fprintln(w, "  Interrupted: run again to continue where this run stopped")
	}
}
