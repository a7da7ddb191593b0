// Package identity derives stable unique keys for manifest records
package identity

import (
	"github.com/curtbushko/zoom-resume/internal/records"
)

// Of returns the stable identity of a record: the uuid field when present,
// otherwise the uuid_base64 field. The second return is false when neither
// field carries a value. A missing identity is a condition for the caller to
// flag, not an error, since historical exports lack identifiers on some rows.
func Of(rec records.Record) (string, bool) {
	if id := rec.UUID(); id != "" {
		return id, true
	}
	if id := rec.UUIDBase64(); id != "" {
		return id, true
	}
	return "", false
}

// Duplicate describes two manifest positions sharing the same identity
type Duplicate struct {
	Identity  string
	Positions []int
}

// Duplicates reports identities that appear on more than one record.
// Identities are expected to be unique across a manifest; a duplicate means
// the export is suspect and should be surfaced before import.
func Duplicates(recs []records.Record) []Duplicate {
	seen := make(map[string][]int)
	var order []string
	for _, rec := range recs {
		id, ok := Of(rec)
		if !ok {
			continue
		}
		if _, exists := seen[id]; !exists {
			order = append(order, id)
		}
		seen[id] = append(seen[id], rec.Position)
	}

	var dupes []Duplicate
	for _, id := range order {
		if positions := seen[id]; len(positions) > 1 {
			dupes = append(dupes, Duplicate{Identity: id, Positions: positions})
		}
	}
	return dupes
}
