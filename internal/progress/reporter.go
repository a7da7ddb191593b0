// Package progress provides run progress reporting and logging integration for zoom-resume
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/curtbushko/zoom-resume/internal/logging"
)

// Reporter defines the interface for run progress reporting operations
type Reporter interface {
	// Start initializes the progress reporting session
	Start(ctx context.Context, total int)

	// RecordCompleted records a successfully imported record
	RecordCompleted(identity string, duration time.Duration)

	// RecordFailed records a failed record import
	RecordFailed(identity string, err error, details map[string]interface{})

	// AddSkipped adds a skipped record to the progress tracking
	AddSkipped(reason SkipReason, identity string, details map[string]interface{})

	// Finish completes the progress reporting session and shows the summary
	Finish() *Summary

	// GetSummary returns the current progress summary
	GetSummary() *Summary
}

// SkipReason represents why a record was skipped
type SkipReason int

const (
	SkipReasonInactiveHost SkipReason = iota
	SkipReasonMissingIdentity
)

func (r SkipReason) String() string {
	switch r {
	case SkipReasonInactiveHost:
		return "inactive_host"
	case SkipReasonMissingIdentity:
		return "missing_identity"
	default:
		return "unknown"
	}
}

// SkippedItem represents a record that was skipped
type SkippedItem struct {
	Identity  string                 `json:"identity"`
	Reason    SkipReason             `json:"reason"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// ErrorItem represents a record that failed to import
type ErrorItem struct {
	Identity  string                 `json:"identity"`
	Error     error                  `json:"-"`
	ErrorMsg  string                 `json:"error"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Summary represents the final run summary
type Summary struct {
	TotalRecords  int           `json:"total_records"`
	Completed     int           `json:"completed"`
	Failed        int           `json:"failed"`
	SkippedItems  []SkippedItem `json:"skipped_items"`
	ErrorItems    []ErrorItem   `json:"error_items"`
	TotalDuration time.Duration `json:"-"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
}

// GetSkippedByReason returns skipped records grouped by reason
func (s *Summary) GetSkippedByReason() map[SkipReason][]SkippedItem {
	result := make(map[SkipReason][]SkippedItem)
	for _, item := range s.SkippedItems {
		result[item.Reason] = append(result[item.Reason], item)
	}
	return result
}

// Processed returns the number of records that were attempted
func (s *Summary) Processed() int {
	return s.Completed + s.Failed
}

// ReporterConfig holds configuration for progress reporting
type ReporterConfig struct {
	Writer io.Writer // Where to write progress output (default: os.Stdout)
	Quiet  bool      // Suppress per-record console output
}

// reporterImpl implements the Reporter interface
type reporterImpl struct {
	config    ReporterConfig
	logger    logging.Logger
	total     int
	completed int
	failed    int
	skipped   []SkippedItem
	errors    []ErrorItem
	startTime time.Time
	mutex     sync.RWMutex
	writer    io.Writer
	ctx       context.Context
}

// NewReporter creates a new run progress reporter with the given configuration
func NewReporter(config ReporterConfig, logger logging.Logger) Reporter {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}

	return &reporterImpl{
		config:  config,
		logger:  logger,
		skipped: []SkippedItem{},
		errors:  []ErrorItem{},
		writer:  config.Writer,
	}
}

// Start initializes the progress reporting session
func (r *reporterImpl) Start(ctx context.Context, total int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.total = total
	r.startTime = time.Now()
	r.ctx = ctx

	if r.logger != nil {
		r.logger.InfoWithContext(ctx, "Run started: %d records to process", total)
	}
	if !r.config.Quiet {
		fmt.Fprintf(r.writer, "Processing %d records\n", total)
	}
}

// RecordCompleted records a successfully imported record
func (r *reporterImpl) RecordCompleted(identity string, duration time.Duration) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.completed++

	if r.logger != nil {
		r.logger.LogRecordEvent("record_completed", identity, map[string]interface{}{
			"duration_seconds": duration.Seconds(),
		})
	}
	if !r.config.Quiet {
		fmt.Fprintf(r.writer, "  [%d/%d] imported %s (%.1fs)\n",
			r.completed+r.failed, r.total, identity, duration.Seconds())
	}
}

// RecordFailed records a failed record import
func (r *reporterImpl) RecordFailed(identity string, err error, details map[string]interface{}) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.failed++
	errorMsg := ""
	if err != nil {
		errorMsg = err.Error()
	}
	r.errors = append(r.errors, ErrorItem{
		Identity:  identity,
		Error:     err,
		ErrorMsg:  errorMsg,
		Details:   details,
		Timestamp: time.Now(),
	})

	if r.logger != nil {
		r.logger.ErrorWithContext(r.ctx, "Record failed: %s - %v", identity, err)
		r.logger.LogRecordEvent("record_failed", identity, map[string]interface{}{
			"error": errorMsg,
		})
	}
	if !r.config.Quiet {
		fmt.Fprintf(r.writer, "  [%d/%d] FAILED %s: %v\n",
			r.completed+r.failed, r.total, identity, err)
	}
}

// AddSkipped adds a skipped record to the progress tracking
func (r *reporterImpl) AddSkipped(reason SkipReason, identity string, details map[string]interface{}) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.skipped = append(r.skipped, SkippedItem{
		Identity:  identity,
		Reason:    reason,
		Details:   details,
		Timestamp: time.Now(),
	})

	if r.logger != nil {
		r.logger.LogRecordEvent("record_skipped", identity, map[string]interface{}{
			"reason": reason.String(),
		})
	}
}

// Finish completes the progress reporting session and shows the summary
func (r *reporterImpl) Finish() *Summary {
	summary := r.GetSummary()
	summary.EndTime = time.Now()
	summary.TotalDuration = summary.EndTime.Sub(summary.StartTime)

	r.displaySummary(summary)

	if r.logger != nil {
		r.logger.InfoWithContext(r.ctx, "Run finished: %d completed, %d failed, %d skipped in %v",
			summary.Completed, summary.Failed, len(summary.SkippedItems), summary.TotalDuration.Round(time.Second))
	}

	return summary
}

// GetSummary returns the current progress summary
func (r *reporterImpl) GetSummary() *Summary {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	skipped := make([]SkippedItem, len(r.skipped))
	copy(skipped, r.skipped)
	errors := make([]ErrorItem, len(r.errors))
	copy(errors, r.errors)

	return &Summary{
		TotalRecords: r.total,
		Completed:    r.completed,
		Failed:       r.failed,
		SkippedItems: skipped,
		ErrorItems:   errors,
		StartTime:    r.startTime,
	}
}

// displaySummary writes the final run summary to the configured writer
func (r *reporterImpl) displaySummary(summary *Summary) {
	var b strings.Builder

	b.WriteString("\nRun summary:\n")
	b.WriteString(fmt.Sprintf("  Total records: %d\n", summary.TotalRecords))
	b.WriteString(fmt.Sprintf("  Completed:     %d\n", summary.Completed))
	b.WriteString(fmt.Sprintf("  Failed:        %d\n", summary.Failed))
	b.WriteString(fmt.Sprintf("  Skipped:       %d\n", len(summary.SkippedItems)))
	b.WriteString(fmt.Sprintf("  Duration:      %v\n", summary.TotalDuration.Round(time.Second)))

	if len(summary.SkippedItems) > 0 {
		byReason := summary.GetSkippedByReason()
		reasons := make([]SkipReason, 0, len(byReason))
		for reason := range byReason {
			reasons = append(reasons, reason)
		}
		sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })

		b.WriteString("\n  Skipped by reason:\n")
		for _, reason := range reasons {
			b.WriteString(fmt.Sprintf("    %s: %d\n", reason.String(), len(byReason[reason])))
		}
	}

	if len(summary.ErrorItems) > 0 {
		b.WriteString("\n  Failures:\n")
		for _, item := range summary.ErrorItems {
			b.WriteString(fmt.Sprintf("    %s: %s\n", item.Identity, item.ErrorMsg))
		}
	}

	fmt.Fprint(r.writer, b.String())
}
