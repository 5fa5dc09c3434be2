package internal

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCategory represents the type of error encountered
type ErrorCategory string

const (
	ErrorCategoryUnresolvable ErrorCategory = "unresolvable" // No usable timestamp
	ErrorCategoryMetadata     ErrorCategory = "metadata_error"
	ErrorCategoryIO           ErrorCategory = "io_error" // Permissions, missing files, disk space
	ErrorCategoryCrossDevice  ErrorCategory = "cross_device"
	ErrorCategoryLedger       ErrorCategory = "ledger_error"
	ErrorCategoryUnknown      ErrorCategory = "unknown_error"
)

// ErrorSeverity indicates how critical the error is
type ErrorSeverity string

const (
	ErrorSeverityCritical ErrorSeverity = "critical" // System-level, likely to hit every following file
	ErrorSeverityError    ErrorSeverity = "error"    // The file was left where it was
	ErrorSeverityWarning  ErrorSeverity = "warning"  // Recoverable, retried on the next run
)

// ProcessError represents a categorized error during file processing
type ProcessError struct {
	FilePath    string
	Category    ErrorCategory
	Severity    ErrorSeverity
	OriginalErr error
	Context     map[string]string // dest, tag, ...
	Suggestion  string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("[%s/%s] %s: %v", e.Severity, e.Category, e.FilePath, e.OriginalErr)
}

func (e *ProcessError) Unwrap() error { return e.OriginalErr }

// CategorizeError analyzes an error and returns a ProcessError with category and severity
func CategorizeError(filePath string, err error) *ProcessError {
	if err == nil {
		return nil
	}

	procErr := &ProcessError{
		FilePath:    filePath,
		OriginalErr: err,
		Context:     make(map[string]string),
	}

	var xdev *CrossDeviceError
	var lerr *LedgerError
	errStr := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, ErrUnresolvable), errors.Is(err, ErrInvalidTimestamp):
		procErr.Category = ErrorCategoryUnresolvable
		procErr.Severity = ErrorSeverityWarning
		procErr.Suggestion = "Rename the file with its capture time or fix its date tags, it will be picked up on the next run"

	case errors.As(err, &xdev):
		procErr.Category = ErrorCategoryCrossDevice
		procErr.Severity = ErrorSeverityError
		procErr.Suggestion = "Source and archive are on different filesystems - move the folder onto the archive volume first"
		procErr.Context["dest"] = xdev.Dst

	case errors.As(err, &lerr):
		procErr.Category = ErrorCategoryLedger
		procErr.Severity = ErrorSeverityWarning
		procErr.Suggestion = "The file was moved but not recorded - it will be checked again on the next run"

	case strings.Contains(errStr, "no space left"):
		procErr.Category = ErrorCategoryIO
		procErr.Severity = ErrorSeverityCritical
		procErr.Suggestion = "Free up disk space on the archive volume and retry"

	case strings.Contains(errStr, "permission denied"):
		procErr.Category = ErrorCategoryIO
		procErr.Severity = ErrorSeverityCritical
		procErr.Suggestion = "Check permissions on the file and on the archive directories"

	case strings.Contains(errStr, "read-only file system"):
		procErr.Category = ErrorCategoryIO
		procErr.Severity = ErrorSeverityCritical
		procErr.Suggestion = "The archive is mounted read-only - check mount options"

	case strings.Contains(errStr, "too many open files"):
		procErr.Category = ErrorCategoryIO
		procErr.Severity = ErrorSeverityCritical
		procErr.Suggestion = "System file descriptor limit reached - increase ulimit or restart"

	case strings.Contains(errStr, "input/output error"):
		procErr.Category = ErrorCategoryIO
		procErr.Severity = ErrorSeverityError
		procErr.Suggestion = "I/O error - check disk health and network mounts"

	case strings.Contains(errStr, "no such file"):
		procErr.Category = ErrorCategoryIO
		procErr.Severity = ErrorSeverityError
		procErr.Suggestion = "The file disappeared during the run - check if a share was disconnected"

	case strings.Contains(errStr, "exif") || strings.Contains(errStr, "metadata"):
		procErr.Category = ErrorCategoryMetadata
		procErr.Severity = ErrorSeverityWarning
		procErr.Suggestion = "Metadata could not be read - try --metadata exiftool"

	default:
		procErr.Category = ErrorCategoryUnknown
		procErr.Severity = ErrorSeverityError
		procErr.Suggestion = "Unexpected error - check logs for details"
	}

	return procErr
}

// ErrorStats tracks error statistics during a run. It never stops a run,
// every file is tried.
type ErrorStats struct {
	Total      int
	Critical   int
	Errors     int
	Warnings   int
	ByCategory map[ErrorCategory]int
	LastErrors []*ProcessError // Last 5 errors for quick diagnosis
}

func NewErrorStats() *ErrorStats {
	return &ErrorStats{
		ByCategory: make(map[ErrorCategory]int),
		LastErrors: make([]*ProcessError, 0, 5),
	}
}

func (s *ErrorStats) Add(err *ProcessError) {
	s.Total++
	s.ByCategory[err.Category]++

	switch err.Severity {
	case ErrorSeverityCritical:
		s.Critical++
	case ErrorSeverityError:
		s.Errors++
	case ErrorSeverityWarning:
		s.Warnings++
	}

	// Keep last 5 errors
	if len(s.LastErrors) >= 5 {
		s.LastErrors = s.LastErrors[1:]
	}
	s.LastErrors = append(s.LastErrors, err)
}

// GenerateReport creates a human-readable error report
func (s *ErrorStats) GenerateReport() string {
	var report strings.Builder

	report.WriteString(fmt.Sprintf("\n❌ %d files could not be processed:\n\n", s.Total))

	if s.Critical > 0 {
		report.WriteString(fmt.Sprintf("  🔴 Critical: %d (system-level issues)\n", s.Critical))
	}
	if s.Errors > 0 {
		report.WriteString(fmt.Sprintf("  🟠 Errors:   %d (file left in place)\n", s.Errors))
	}
	if s.Warnings > 0 {
		report.WriteString(fmt.Sprintf("  🟡 Warnings: %d (retried next run)\n", s.Warnings))
	}

	report.WriteString("\nError categories:\n")
	cats := make([]string, 0, len(s.ByCategory))
	for cat := range s.ByCategory {
		cats = append(cats, string(cat))
	}
	sort.Strings(cats)
	for _, cat := range cats {
		report.WriteString(fmt.Sprintf("  • %s: %d\n", cat, s.ByCategory[ErrorCategory(cat)]))
	}

	report.WriteString("\nRecent errors:\n")
	for i, err := range s.LastErrors {
		report.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, err.FilePath))
		report.WriteString(fmt.Sprintf("   Category: %s | Severity: %s\n", err.Category, err.Severity))
		report.WriteString(fmt.Sprintf("   Error: %v\n", err.OriginalErr))
		if err.Suggestion != "" {
			report.WriteString(fmt.Sprintf("   💡 Suggestion: %s\n", err.Suggestion))
		}
	}

	report.WriteString("\n")
	report.WriteString(s.generateSuggestions())

	return report.String()
}

func (s *ErrorStats) generateSuggestions() string {
	var suggestions strings.Builder
	suggestions.WriteString("Suggested next steps:\n")

	if s.ByCategory[ErrorCategoryIO] > 0 {
		suggestions.WriteString("  • Check disk space and permissions\n")
		suggestions.WriteString("  • Verify network shares are mounted\n")
	}

	if s.ByCategory[ErrorCategoryCrossDevice] > 0 {
		suggestions.WriteString("  • Run the sort from a folder on the same volume as the archive\n")
	}

	if s.ByCategory[ErrorCategoryUnresolvable] > s.Total/2 {
		suggestions.WriteString("  • Most failures had no usable date - check that exiftool is installed\n")
	}

	if s.ByCategory[ErrorCategoryLedger] > 0 {
		suggestions.WriteString("  • Ledger writes failed - check the state directory is writable\n")
	}

	suggestions.WriteString("  • Check the run manifest for the full list\n")

	return suggestions.String()
}
