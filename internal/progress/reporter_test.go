package progress

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// TestReporterCounts tests that completed, failed and skipped records are counted
func TestReporterCounts(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(ReporterConfig{Writer: &buf, Quiet: true}, nil)

	reporter.Start(context.Background(), 5)
	reporter.RecordCompleted("uuid-1", 2*time.Second)
	reporter.RecordCompleted("uuid-2", time.Second)
	reporter.RecordFailed("uuid-3", errors.New("api error"), nil)
	reporter.AddSkipped(SkipReasonMissingIdentity, "uuid-4", nil)
	reporter.AddSkipped(SkipReasonInactiveHost, "uuid-5", nil)

	summary := reporter.GetSummary()
	if summary.TotalRecords != 5 {
		t.Errorf("TotalRecords = %d, expected 5", summary.TotalRecords)
	}
	if summary.Completed != 2 {
		t.Errorf("Completed = %d, expected 2", summary.Completed)
	}
	if summary.Failed != 1 {
		t.Errorf("Failed = %d, expected 1", summary.Failed)
	}
	if len(summary.SkippedItems) != 2 {
		t.Errorf("SkippedItems = %d, expected 2", len(summary.SkippedItems))
	}
	if summary.Processed() != 3 {
		t.Errorf("Processed() = %d, expected 3", summary.Processed())
	}
}

// TestReporterErrorItems tests that failure details are captured
func TestReporterErrorItems(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(ReporterConfig{Writer: &buf, Quiet: true}, nil)

	reporter.Start(context.Background(), 1)
	importErr := errors.New("verification failed")
	reporter.RecordFailed("uuid-1", importErr, map[string]interface{}{"position": 7})

	summary := reporter.GetSummary()
	if len(summary.ErrorItems) != 1 {
		t.Fatalf("expected 1 error item, got %d", len(summary.ErrorItems))
	}
	item := summary.ErrorItems[0]
	if item.Identity != "uuid-1" {
		t.Errorf("identity = %q, expected %q", item.Identity, "uuid-1")
	}
	if item.ErrorMsg != "verification failed" {
		t.Errorf("error msg = %q, expected %q", item.ErrorMsg, "verification failed")
	}
	if !errors.Is(item.Error, importErr) {
		t.Error("error item should preserve the original error")
	}
}

// TestSummaryGetSkippedByReason tests grouping of skipped records
func TestSummaryGetSkippedByReason(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(ReporterConfig{Writer: &buf, Quiet: true}, nil)

	reporter.Start(context.Background(), 4)
	reporter.AddSkipped(SkipReasonInactiveHost, "uuid-1", nil)
	reporter.AddSkipped(SkipReasonInactiveHost, "uuid-2", nil)
	reporter.AddSkipped(SkipReasonMissingIdentity, "row-3", nil)

	byReason := reporter.GetSummary().GetSkippedByReason()
	if len(byReason[SkipReasonInactiveHost]) != 2 {
		t.Errorf("inactive_host count = %d, expected 2", len(byReason[SkipReasonInactiveHost]))
	}
	if len(byReason[SkipReasonMissingIdentity]) != 1 {
		t.Errorf("missing_identity count = %d, expected 1", len(byReason[SkipReasonMissingIdentity]))
	}
}

// TestReporterSummaryOutput tests the final summary display
func TestReporterSummaryOutput(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(ReporterConfig{Writer: &buf, Quiet: true}, nil)

	reporter.Start(context.Background(), 3)
	reporter.RecordCompleted("uuid-1", time.Second)
	reporter.RecordFailed("uuid-2", errors.New("timeout"), nil)
	reporter.AddSkipped(SkipReasonInactiveHost, "uuid-3", nil)

	summary := reporter.Finish()
	if summary.EndTime.IsZero() {
		t.Error("Finish should set EndTime")
	}

	output := buf.String()
	for _, want := range []string{
		"Run summary:",
		"Completed:     1",
		"Failed:        1",
		"Skipped:       1",
		"inactive_host: 1",
		"uuid-2: timeout",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("summary output missing %q:\n%s", want, output)
		}
	}
}

// TestReporterPerRecordOutput tests console output when not in quiet mode
func TestReporterPerRecordOutput(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(ReporterConfig{Writer: &buf}, nil)

	reporter.Start(context.Background(), 2)
	reporter.RecordCompleted("uuid-1", 1500*time.Millisecond)
	reporter.RecordFailed("uuid-2", errors.New("boom"), nil)

	output := buf.String()
	if !strings.Contains(output, "Processing 2 records") {
		t.Errorf("missing start line:\n%s", output)
	}
	if !strings.Contains(output, "[1/2] imported uuid-1 (1.5s)") {
		t.Errorf("missing completed line:\n%s", output)
	}
	if !strings.Contains(output, "[2/2] FAILED uuid-2: boom") {
		t.Errorf("missing failed line:\n%s", output)
	}
}

// TestSkipReasonString tests skip reason labels
func TestSkipReasonString(t *testing.T) {
	tests := []struct {
		reason SkipReason
		want   string
	}{
		{SkipReasonInactiveHost, "inactive_host"},
		{SkipReasonMissingIdentity, "missing_identity"},
		{SkipReason(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.reason.String(); got != tt.want {
			t.Errorf("SkipReason(%d).String() = %q, expected %q", tt.reason, got, tt.want)
		}
	}
}
