package tracking

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func readLog(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open log: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse log: %v", err)
	}
	return rows
}

func TestNewCSVImportLogCreatesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "import-log.csv")

	_, err := NewCSVImportLog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := readLog(t, path)
	if len(rows) != 1 {
		t.Fatalf("expected header row only, got %d rows", len(rows))
	}
	if rows[0][0] != "run_id" || rows[0][4] != "outcome" {
		t.Errorf("unexpected header: %v", rows[0])
	}
}

func TestNewCSVImportLogCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nested", "import-log.csv")

	if _, err := NewCSVImportLog(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestRecordAppendsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "import-log.csv")
	log, err := NewCSVImportLog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := []LogEntry{
		{
			RunID:     "run-1",
			Identity:  "uuid-1==",
			Topic:     "Weekly Sync",
			HostEmail: "host@example.com",
			Outcome:   OutcomeCompleted,
			Duration:  90 * time.Second,
		},
		{
			RunID:    "run-1",
			Identity: "uuid-2==",
			Topic:    "Coaching, with commas",
			Outcome:  OutcomeFailed,
			Detail:   "processor rejected",
		},
	}
	for _, entry := range entries {
		if err := log.Record(entry); err != nil {
			t.Fatalf("failed to record entry: %v", err)
		}
	}

	rows := readLog(t, path)
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][1] != "uuid-1==" || rows[1][4] != "completed" {
		t.Errorf("unexpected first entry: %v", rows[1])
	}
	if rows[1][6] != "90.0" {
		t.Errorf("unexpected duration: %q", rows[1][6])
	}
	if rows[2][2] != "Coaching, with commas" {
		t.Errorf("comma in topic not preserved: %v", rows[2])
	}
	if rows[2][5] != "processor rejected" {
		t.Errorf("unexpected detail: %v", rows[2])
	}
}

func TestRecordPreservesExistingEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "import-log.csv")

	log, _ := NewCSVImportLog(path)
	log.Record(LogEntry{RunID: "run-1", Identity: "a==", Outcome: OutcomeCompleted})

	// Reopening the log must not truncate it
	log2, err := NewCSVImportLog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log2.Record(LogEntry{RunID: "run-2", Identity: "b==", Outcome: OutcomeCompleted})

	rows := readLog(t, path)
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows across reopens, got %d", len(rows))
	}
}

func TestRecordConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "import-log.csv")
	log, _ := NewCSVImportLog(path)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Record(LogEntry{RunID: "run-1", Identity: "x==", Outcome: OutcomeCompleted})
		}()
	}
	wg.Wait()

	rows := readLog(t, path)
	if len(rows) != 21 {
		t.Errorf("expected header + 20 rows, got %d", len(rows))
	}
}
