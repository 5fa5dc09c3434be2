package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Manifest event names.
const (
	EventRunStart   = "run_start"
	EventRunEnd     = "run_end"
	EventMoved      = "moved"
	EventInPlace    = "in_place"
	EventSkipped    = "skipped"
	EventUnresolved = "unresolved"
	EventFailed     = "failed"
	EventRepaired   = "repaired"
	EventTitled     = "titled"
	EventPruned     = "pruned"
)

// RunManifest is an append-only JSON lines record of one run. A nil
// *RunManifest is valid and records nothing.
type RunManifest struct {
	ID   string // 20250115-103045-1a2b3c4d
	Path string
	Root string

	mu   sync.Mutex
	file *os.File
}

// ManifestEvent represents a single event in the manifest log
type ManifestEvent struct {
	Event    string `json:"event"`
	Ts       string `json:"ts"`
	Src      string `json:"src,omitempty"`
	Dest     string `json:"dest,omitempty"`
	Existing string `json:"existing,omitempty"` // identical file found at the destination
	Source   string `json:"source,omitempty"`   // where the timestamp came from
	Tag      string `json:"tag,omitempty"`
	Value    string `json:"value,omitempty"`
	Error    string `json:"error,omitempty"`

	ErrorCategory   string `json:"error_category,omitempty"`
	ErrorSeverity   string `json:"error_severity,omitempty"`
	ErrorSuggestion string `json:"error_suggestion,omitempty"`

	// run start/end
	Root    string   `json:"root,omitempty"`
	RunID   string   `json:"run_id,omitempty"`
	Summary *Summary `json:"summary,omitempty"`
}

// NewRunID returns a sortable, unique run id.
func NewRunID(now time.Time) string {
	short := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return now.Format("20060102-150405") + "-" + short
}

// NewRunManifest creates <dir>/<run id>.jsonl.
func NewRunManifest(dir, root string) (*RunManifest, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}

	id := NewRunID(time.Now())
	path := filepath.Join(dir, id+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest file: %w", err)
	}

	return &RunManifest{ID: id, Path: path, Root: root, file: f}, nil
}

// LogRunStart writes the run start event
func (m *RunManifest) LogRunStart() error {
	if m == nil {
		return nil
	}
	return m.writeEvent(ManifestEvent{Event: EventRunStart, RunID: m.ID, Root: m.Root})
}

// LogRunEnd writes the run end event with the totals
func (m *RunManifest) LogRunEnd(summary Summary) error {
	if m == nil {
		return nil
	}
	return m.writeEvent(ManifestEvent{Event: EventRunEnd, RunID: m.ID, Summary: &summary})
}

// LogEvent writes a per-file event
func (m *RunManifest) LogEvent(event ManifestEvent) error {
	if m == nil {
		return nil
	}
	return m.writeEvent(event)
}

// LogError writes a failed or unresolved file with its categorized error
func (m *RunManifest) LogError(event string, procErr *ProcessError) error {
	if m == nil || procErr == nil {
		return nil
	}
	ev := ManifestEvent{
		Event:           event,
		Src:             procErr.FilePath,
		Error:           procErr.OriginalErr.Error(),
		ErrorCategory:   string(procErr.Category),
		ErrorSeverity:   string(procErr.Severity),
		ErrorSuggestion: procErr.Suggestion,
	}
	if dest, ok := procErr.Context["dest"]; ok {
		ev.Dest = dest
	}
	return m.writeEvent(ev)
}

// Close closes the manifest file
func (m *RunManifest) Close() error {
	if m == nil || m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}

// writeEvent writes a manifest event as a JSON line
func (m *RunManifest) writeEvent(event ManifestEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.file == nil {
		return fmt.Errorf("manifest %s is closed", m.Path)
	}
	if event.Ts == "" {
		event.Ts = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := m.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to manifest: %w", err)
	}

	// Flush so an interrupted run keeps everything written so far
	return m.file.Sync()
}
