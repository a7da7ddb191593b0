// Package importer drives resumable manifest imports for zoom-resume
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/curtbushko/zoom-resume/internal/checkpoint"
	"github.com/curtbushko/zoom-resume/internal/hosts"
	"github.com/curtbushko/zoom-resume/internal/identity"
	"github.com/curtbushko/zoom-resume/internal/logging"
	"github.com/curtbushko/zoom-resume/internal/plan"
	"github.com/curtbushko/zoom-resume/internal/progress"
	"github.com/curtbushko/zoom-resume/internal/records"
	"github.com/curtbushko/zoom-resume/internal/tracking"
)

// Driver performs the import of a single manifest record
type Driver interface {
	ImportRecord(ctx context.Context, rec records.Record) error
}

// Options holds per-run behavior flags
type Options struct {
	Limit int // Maximum records to attempt this run (0 = unlimited)
}

// RunResult describes the outcome of a single import run
type RunResult struct {
	RunID       string
	Plan        plan.ResumePlan
	Summary     *progress.Summary
	Interrupted bool
}

// Runner processes the pending portion of a manifest sequentially,
// persisting the checkpoint after every successful record so an
// interrupted run can resume without repeating completed work.
type Runner struct {
	driver    Driver
	store     checkpoint.Store
	filter    hosts.HostFilter
	importLog tracking.ImportLog
	reporter  progress.Reporter
	logger    logging.Logger
	opts      Options
}

// NewRunner creates a runner. The host filter and import log may be nil
// when the corresponding features are not configured.
func NewRunner(driver Driver, store checkpoint.Store, filter hosts.HostFilter, importLog tracking.ImportLog, reporter progress.Reporter, logger logging.Logger, opts Options) *Runner {
	return &Runner{
		driver:    driver,
		store:     store,
		filter:    filter,
		importLog: importLog,
		reporter:  reporter,
		logger:    logger,
		opts:      opts,
	}
}

// Run loads the checkpoint, computes the resume plan for the given
// manifest records and processes the pending records one at a time.
//
// A failed record never aborts the run and never advances the checkpoint
// past itself. Under the count policy advancement freezes at the first
// record that fails or is skipped, so everything after that point is
// re-attempted on the next run. Under the identity policy later successes
// are still marked completed individually.
//
// Context cancellation stops the run after the in-flight record; progress
// made so far is already persisted.
func (r *Runner) Run(ctx context.Context, recs []records.Record) (*RunResult, error) {
	cp, err := r.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)

	resumePlan := plan.Compute(recs, cp)
	result := &RunResult{
		RunID: runID,
		Plan:  resumePlan,
	}

	if r.logger != nil {
		r.logger.InfoWithContext(ctx, "Resume plan: %d total, %d already completed, %d pending (%s policy)",
			resumePlan.TotalRecords, resumePlan.SkipCount, len(resumePlan.Pending), cp.Policy)
		if resumePlan.MissingIdentityCount > 0 {
			r.logger.WarnWithContext(ctx, "%d pending records have no identity and cannot be deduplicated",
				resumePlan.MissingIdentityCount)
		}
	}

	cp.LastRunID = runID
	startTime := time.Now()
	r.reporter.Start(ctx, len(resumePlan.Pending))

	countFrozen := false
	attempted := 0

	for _, rec := range resumePlan.Pending {
		select {
		case <-ctx.Done():
			result.Interrupted = true
		default:
		}
		if result.Interrupted {
			break
		}
		if r.opts.Limit > 0 && attempted >= r.opts.Limit {
			break
		}

		id, hasID := identity.Of(rec)
		label := id
		if !hasID {
			label = fmt.Sprintf("row-%d", rec.Position)
		}

		if !hasID {
			if r.logger != nil {
				r.logger.WarnWithContext(ctx, "Record at position %d has no identity, skipping", rec.Position)
			}
			r.reporter.AddSkipped(progress.SkipReasonMissingIdentity, label, map[string]interface{}{
				"position": rec.Position,
			})
			r.trackOutcome(runID, label, rec, tracking.OutcomeSkipped, "missing identity", 0)
			countFrozen = true
			continue
		}

		if r.filter != nil && rec.HostEmail() != "" && !r.filter.IsActive(rec.HostEmail()) {
			r.reporter.AddSkipped(progress.SkipReasonInactiveHost, id, map[string]interface{}{
				"host_email": rec.HostEmail(),
			})
			r.trackOutcome(runID, id, rec, tracking.OutcomeSkipped, "inactive host", 0)
			countFrozen = true
			continue
		}

		attempted++
		recordStart := time.Now()
		importErr := r.driver.ImportRecord(ctx, rec)
		duration := time.Since(recordStart)

		if importErr != nil {
			r.reporter.RecordFailed(id, importErr, map[string]interface{}{
				"position": rec.Position,
			})
			r.trackOutcome(runID, id, rec, tracking.OutcomeFailed, importErr.Error(), duration)
			countFrozen = true
			if ctx.Err() != nil {
				result.Interrupted = true
				break
			}
			continue
		}

		r.reporter.RecordCompleted(id, duration)
		r.trackOutcome(runID, id, rec, tracking.OutcomeCompleted, "", duration)

		if cp.Policy == checkpoint.PolicyIdentity {
			cp.MarkCompleted(id)
		} else if !countFrozen {
			cp.AdvanceCount()
		}

		if err := r.store.Save(cp); err != nil {
			result.Summary = r.reporter.Finish()
			return result, fmt.Errorf("failed to persist checkpoint: %w", err)
		}
	}

	// Persist the run ID even when nothing advanced
	if err := r.store.Save(cp); err != nil {
		result.Summary = r.reporter.Finish()
		return result, fmt.Errorf("failed to persist checkpoint: %w", err)
	}

	result.Summary = r.reporter.Finish()

	if r.logger != nil {
		r.logger.LogRunSummary(logging.RunMetrics{
			RunID:        runID,
			TotalRecords: resumePlan.TotalRecords,
			Skipped:      resumePlan.SkipCount + len(result.Summary.SkippedItems),
			Completed:    result.Summary.Completed,
			Failed:       result.Summary.Failed,
			Duration:     time.Since(startTime),
			Interrupted:  result.Interrupted,
		})
	}

	return result, nil
}

// trackOutcome appends an import attempt to the audit log when one is
// configured. Audit failures are logged but never abort the run.
func (r *Runner) trackOutcome(runID, id string, rec records.Record, outcome tracking.Outcome, detail string, duration time.Duration) {
	if r.importLog == nil {
		return
	}
	err := r.importLog.Record(tracking.LogEntry{
		RunID:       runID,
		Identity:    id,
		Topic:       rec.Topic(),
		HostEmail:   rec.HostEmail(),
		Outcome:     outcome,
		Detail:      detail,
		Duration:    duration,
		AttemptedAt: time.Now().UTC(),
	})
	if err != nil && r.logger != nil {
		r.logger.Error("Failed to write import log entry for %s: %v", id, err)
	}
}
