// Package plan computes the set of manifest records still needing import
package plan

import (
	"github.com/curtbushko/zoom-resume/internal/checkpoint"
	"github.com/curtbushko/zoom-resume/internal/identity"
	"github.com/curtbushko/zoom-resume/internal/records"
)

// ResumePlan is the computed, ephemeral description of one run. It is
// derived fresh from the manifest and checkpoint on every invocation and is
// never persisted.
type ResumePlan struct {
	Policy               checkpoint.Policy
	TotalRecords         int
	SkipCount            int
	Pending              []records.Record
	MissingIdentityCount int
}

// Compute builds a ResumePlan from the manifest records and the checkpoint.
// It is a pure function: the same inputs always yield the same plan, and
// neither input is modified.
//
// Under PolicyCount the first checkpoint.CompletedCount records are skipped;
// a count larger than the manifest yields an empty pending set, not an error
// (the manifest may legitimately have shrunk). Under PolicyIdentity records
// whose identity appears in the checkpoint are skipped, order preserved;
// records without any identity cannot be deduplicated, so they are always
// pending and counted in MissingIdentityCount.
func Compute(recs []records.Record, cp *checkpoint.Checkpoint) ResumePlan {
	p := ResumePlan{
		Policy:       cp.Policy,
		TotalRecords: len(recs),
	}

	switch cp.Policy {
	case checkpoint.PolicyCount:
		skip := cp.CompletedCount
		if skip > len(recs) {
			skip = len(recs)
		}
		p.SkipCount = skip
		p.Pending = append([]records.Record(nil), recs[skip:]...)
	default: // PolicyIdentity
		for _, rec := range recs {
			id, ok := identity.Of(rec)
			if ok && cp.IsCompleted(id) {
				p.SkipCount++
				continue
			}
			p.Pending = append(p.Pending, rec)
		}
	}

	for _, rec := range p.Pending {
		if _, ok := identity.Of(rec); !ok {
			p.MissingIdentityCount++
		}
	}

	return p
}

// FirstPending returns the first record to be processed, if any
func (p ResumePlan) FirstPending() (records.Record, bool) {
	if len(p.Pending) == 0 {
		return records.Record{}, false
	}
	return p.Pending[0], true
}

// Tail returns up to n records from the end of the full manifest view the
// plan was computed over. Used for the operator preview.
func Tail(recs []records.Record, n int) []records.Record {
	if n <= 0 || len(recs) == 0 {
		return nil
	}
	if n > len(recs) {
		n = len(recs)
	}
	return recs[len(recs)-n:]
}
