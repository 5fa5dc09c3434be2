package internal

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
	"testing"
)

func TestCategorizeError_DiskSpace(t *testing.T) {
	err := errors.New("write failed: no space left on device")
	procErr := CategorizeError("/test/file.jpg", err)

	if procErr.Category != ErrorCategoryIO {
		t.Errorf("Expected IO category, got %s", procErr.Category)
	}
	if procErr.Severity != ErrorSeverityCritical {
		t.Errorf("Expected critical severity, got %s", procErr.Severity)
	}
	if !strings.Contains(procErr.Suggestion, "disk space") {
		t.Errorf("Expected disk space suggestion, got: %s", procErr.Suggestion)
	}
}

func TestCategorizeError_Permission(t *testing.T) {
	err := errors.New("rename /library/file.jpg: permission denied")
	procErr := CategorizeError("/test/file.jpg", err)

	if procErr.Category != ErrorCategoryIO {
		t.Errorf("Expected IO category, got %s", procErr.Category)
	}
	if procErr.Severity != ErrorSeverityCritical {
		t.Errorf("Expected critical severity, got %s", procErr.Severity)
	}
}

func TestCategorizeError_Unresolvable(t *testing.T) {
	for _, err := range []error{ErrUnresolvable, fmt.Errorf("%w: 0000-00-00", ErrInvalidTimestamp)} {
		procErr := CategorizeError("/test/file.jpg", err)
		if procErr.Category != ErrorCategoryUnresolvable {
			t.Errorf("Expected unresolvable category for %v, got %s", err, procErr.Category)
		}
		if procErr.Severity != ErrorSeverityWarning {
			t.Errorf("Expected warning severity, got %s", procErr.Severity)
		}
	}
}

func TestCategorizeError_CrossDevice(t *testing.T) {
	err := fmt.Errorf("failed to move: %w", &CrossDeviceError{Src: "/a", Dst: "/b", Err: syscall.EXDEV})
	procErr := CategorizeError("/a", err)

	if procErr.Category != ErrorCategoryCrossDevice {
		t.Errorf("Expected cross-device category, got %s", procErr.Category)
	}
	if procErr.Context["dest"] != "/b" {
		t.Errorf("Expected dest context, got %v", procErr.Context)
	}
}

func TestCategorizeError_Ledger(t *testing.T) {
	procErr := CategorizeError("/a", &LedgerError{Op: "record", Err: errors.New("disk I/O error")})
	if procErr.Category != ErrorCategoryLedger {
		t.Errorf("Expected ledger category, got %s", procErr.Category)
	}
}

func TestCategorizeError_Metadata(t *testing.T) {
	procErr := CategorizeError("/test/file.jpg", errors.New("failed to read exif data"))
	if procErr.Category != ErrorCategoryMetadata {
		t.Errorf("Expected metadata category, got %s", procErr.Category)
	}
}

func TestCategorizeError_Nil(t *testing.T) {
	if CategorizeError("/x", nil) != nil {
		t.Error("Expected nil for nil error")
	}
}

func TestErrorStats_KeepsLastFive(t *testing.T) {
	stats := NewErrorStats()
	for i := 0; i < 7; i++ {
		stats.Add(&ProcessError{
			FilePath: fmt.Sprintf("/test/%d.jpg", i),
			Category: ErrorCategoryIO,
			Severity: ErrorSeverityError,
		})
	}

	if stats.Total != 7 || stats.Errors != 7 {
		t.Errorf("Expected 7 errors, got total=%d errors=%d", stats.Total, stats.Errors)
	}
	if len(stats.LastErrors) != 5 {
		t.Fatalf("Expected 5 recent errors, got %d", len(stats.LastErrors))
	}
	if stats.LastErrors[0].FilePath != "/test/2.jpg" {
		t.Errorf("Expected oldest kept error to be /test/2.jpg, got %s", stats.LastErrors[0].FilePath)
	}
}

func TestErrorStats_GenerateReport(t *testing.T) {
	stats := NewErrorStats()
	stats.Add(CategorizeError("/a.jpg", ErrUnresolvable))
	stats.Add(CategorizeError("/b.jpg", &CrossDeviceError{Src: "/b.jpg", Dst: "/x/b.jpg", Err: syscall.EXDEV}))

	report := stats.GenerateReport()
	for _, want := range []string{"2 files could not be processed", "unresolvable: 1", "cross_device: 1", "/b.jpg", "same volume"} {
		if !strings.Contains(report, want) {
			t.Errorf("Expected %q in report:\n%s", want, report)
		}
	}
}
