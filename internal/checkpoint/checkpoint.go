// Package checkpoint provides durable resume-progress tracking for imports
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Policy selects how completed records are tracked.
//
// PolicyCount records only how many leading manifest records finished. It is
// simple but only correct when the manifest order is provably stable across
// runs: a re-exported manifest with reordered rows silently shifts which
// records the count covers.
//
// PolicyIdentity records the identity of every completed record. It is
// order-independent and survives manifest re-export, at the cost of a larger
// checkpoint file. It is the default.
type Policy string

const (
	PolicyCount    Policy = "count"
	PolicyIdentity Policy = "identity"
)

// Valid reports whether p is a recognized policy
func (p Policy) Valid() bool {
	return p == PolicyCount || p == PolicyIdentity
}

// Checkpoint is the persisted marker of import progress. It is read once at
// resume start and advanced monotonically as records complete; it is never
// decremented and identities are never removed.
type Checkpoint struct {
	Version             string               `json:"version"`
	Policy              Policy               `json:"policy"`
	CompletedCount      int                  `json:"completed_count"`
	CompletedIdentities map[string]time.Time `json:"completed_identities,omitempty"`
	LastRunID           string               `json:"last_run_id,omitempty"`
	LastUpdated         time.Time            `json:"last_updated"`
}

// New returns an empty first-run checkpoint for the given policy
func New(policy Policy) *Checkpoint {
	return &Checkpoint{
		Version:             "1.0",
		Policy:              policy,
		CompletedIdentities: make(map[string]time.Time),
		LastUpdated:         time.Now().UTC(),
	}
}

// IsCompleted reports whether the given identity has already been imported
func (c *Checkpoint) IsCompleted(identity string) bool {
	if identity == "" {
		return false
	}
	_, ok := c.CompletedIdentities[identity]
	return ok
}

// AdvanceCount bumps the completed-count by one
func (c *Checkpoint) AdvanceCount() {
	c.CompletedCount++
	c.LastUpdated = time.Now().UTC()
}

// MarkCompleted records an identity as durably imported. Re-marking an
// identity keeps its original completion time.
func (c *Checkpoint) MarkCompleted(identity string) {
	if identity == "" {
		return
	}
	if c.CompletedIdentities == nil {
		c.CompletedIdentities = make(map[string]time.Time)
	}
	if _, ok := c.CompletedIdentities[identity]; !ok {
		c.CompletedIdentities[identity] = time.Now().UTC()
	}
	c.LastUpdated = time.Now().UTC()
}

// CompletedTotal returns the number of completions tracked under the
// checkpoint's policy.
func (c *Checkpoint) CompletedTotal() int {
	if c.Policy == PolicyIdentity {
		return len(c.CompletedIdentities)
	}
	return c.CompletedCount
}

// CorruptError indicates a checkpoint file that exists but cannot be
// understood. A corrupt checkpoint is never guessed at; the operator must
// inspect or remove the file before the import can continue.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("checkpoint file %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// Store defines the interface for checkpoint persistence
type Store interface {
	// Load reads the persisted checkpoint. A missing file is a first run
	// and yields an empty checkpoint, not an error.
	Load() (*Checkpoint, error)

	// Save persists the checkpoint durably. Save must leave either the
	// previous or the new checkpoint on disk, never a partial write.
	Save(cp *Checkpoint) error

	// Path returns the location of the persisted checkpoint for reporting
	Path() string
}

// fileStore implements Store on a single human-inspectable JSON file
type fileStore struct {
	path          string
	defaultPolicy Policy
	mutex         sync.Mutex
}

// NewFileStore creates a file-backed checkpoint store. The parent directory
// is created if needed. defaultPolicy is used for first runs; once a
// checkpoint exists its stored policy wins.
func NewFileStore(path string, defaultPolicy Policy) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("checkpoint file path cannot be empty")
	}
	if !defaultPolicy.Valid() {
		return nil, fmt.Errorf("unknown checkpoint policy: %q", defaultPolicy)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	return &fileStore{path: path, defaultPolicy: defaultPolicy}, nil
}

// Load reads the checkpoint from disk
func (s *fileStore) Load() (*Checkpoint, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(s.defaultPolicy), nil
		}
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, &CorruptError{Path: s.path, Err: err}
	}
	if err := validate(&cp); err != nil {
		return nil, &CorruptError{Path: s.path, Err: err}
	}

	if cp.CompletedIdentities == nil {
		cp.CompletedIdentities = make(map[string]time.Time)
	}
	return &cp, nil
}

// Save writes the checkpoint via a temporary file and rename so a crash
// mid-write never leaves a partial checkpoint behind.
func (s *fileStore) Save(cp *Checkpoint) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cp.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary checkpoint file: %w", err)
	}

	if err := os.Rename(tempFile, s.path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename checkpoint file: %w", err)
	}

	return nil
}

// Path returns the checkpoint file location
func (s *fileStore) Path() string {
	return s.path
}

// validate rejects checkpoints whose contents cannot be trusted
func validate(cp *Checkpoint) error {
	if cp.Version == "" {
		return fmt.Errorf("missing version")
	}
	if !cp.Policy.Valid() {
		return fmt.Errorf("unknown policy %q", cp.Policy)
	}
	if cp.CompletedCount < 0 {
		return fmt.Errorf("negative completed_count %d", cp.CompletedCount)
	}
	return nil
}
