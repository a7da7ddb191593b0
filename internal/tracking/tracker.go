// Package tracking provides an append-only CSV audit log of import attempts
package tracking

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Outcome is the terminal state of one import attempt
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// LogEntry represents a single import attempt record
type LogEntry struct {
	RunID      string
	Identity   string
	Topic      string
	HostEmail  string
	Outcome    Outcome
	Detail     string
	Duration   time.Duration
	AttemptedAt time.Time
}

// ImportLog defines the interface for recording import attempts
type ImportLog interface {
	// Record appends an import attempt to the log
	Record(entry LogEntry) error
}

// CSVImportLog appends import attempts to a CSV file. The file is created
// with a header row on first use and is safe for concurrent use within a
// single process.
type CSVImportLog struct {
	filePath string
	mu       sync.Mutex
}

// NewCSVImportLog creates a new CSV import log, writing the header row if
// the file does not exist yet.
func NewCSVImportLog(filePath string) (*CSVImportLog, error) {
	log := &CSVImportLog{filePath: filePath}

	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		dir := filepath.Dir(filePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}

		if err := log.writeHeader(); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to check file: %w", err)
	}

	return log, nil
}

// Record appends an import attempt to the log file
func (l *CSVImportLog) Record(entry LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.appendEntry(entry)
}

// writeHeader writes the CSV header row
func (l *CSVImportLog) writeHeader() error {
	file, err := os.Create(l.filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"run_id", "identity", "topic", "host_email", "outcome", "detail", "duration_seconds", "attempted_at"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	return writer.Error()
}

// appendEntry appends one attempt row to the log file
func (l *CSVImportLog) appendEntry(entry LogEntry) error {
	file, err := os.OpenFile(l.filePath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file for append: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	attemptedAt := entry.AttemptedAt
	if attemptedAt.IsZero() {
		attemptedAt = time.Now().UTC()
	}

	record := []string{
		entry.RunID,
		entry.Identity,
		entry.Topic,
		entry.HostEmail,
		string(entry.Outcome),
		entry.Detail,
		fmt.Sprintf("%.1f", entry.Duration.Seconds()),
		attemptedAt.Format(time.RFC3339),
	}

	if err := writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	return writer.Error()
}
