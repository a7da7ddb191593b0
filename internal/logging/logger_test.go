package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/curtbushko/zoom-resume/internal/config"
)

func newTestLogger(t *testing.T, level string, jsonFormat bool) (Logger, *bytes.Buffer) {
	t.Helper()
	logger, err := NewLogger(config.LoggingConfig{
		Level:      level,
		Console:    false,
		JSONFormat: jsonFormat,
	})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)
	return logger, buf
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name        string
		configLevel string
		logFunc     func(Logger)
		wantLogged  bool
	}{
		{
			name:        "debug suppressed at info level",
			configLevel: "info",
			logFunc:     func(l Logger) { l.Debug("hidden") },
			wantLogged:  false,
		},
		{
			name:        "info logged at info level",
			configLevel: "info",
			logFunc:     func(l Logger) { l.Info("visible") },
			wantLogged:  true,
		},
		{
			name:        "warn logged at info level",
			configLevel: "info",
			logFunc:     func(l Logger) { l.Warn("visible") },
			wantLogged:  true,
		},
		{
			name:        "info suppressed at error level",
			configLevel: "error",
			logFunc:     func(l Logger) { l.Info("hidden") },
			wantLogged:  false,
		},
		{
			name:        "debug logged at debug level",
			configLevel: "debug",
			logFunc:     func(l Logger) { l.Debug("visible") },
			wantLogged:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newTestLogger(t, tt.configLevel, false)

			tt.logFunc(logger)

			if got := buf.Len() > 0; got != tt.wantLogged {
				t.Errorf("logged = %v, want %v (output: %q)", got, tt.wantLogged, buf.String())
			}
		})
	}
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "shouting"})
	if err == nil {
		t.Fatalf("expected error for invalid log level")
	}
}

func TestTextFormat(t *testing.T) {
	logger, buf := newTestLogger(t, "info", false)

	logger.Info("importing %d records", 42)

	output := buf.String()
	if !strings.Contains(output, "[INFO]") {
		t.Errorf("expected level marker in output: %q", output)
	}
	if !strings.Contains(output, "importing 42 records") {
		t.Errorf("expected formatted message in output: %q", output)
	}
}

func TestJSONFormat(t *testing.T) {
	logger, buf := newTestLogger(t, "info", true)

	logger.Info("structured message")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v (%q)", err, buf.String())
	}
	if entry["level"] != "INFO" {
		t.Errorf("unexpected level: %v", entry["level"])
	}
	if entry["message"] != "structured message" {
		t.Errorf("unexpected message: %v", entry["message"])
	}
}

func TestRunIDContext(t *testing.T) {
	logger, buf := newTestLogger(t, "info", false)

	ctx := WithRunID(context.Background(), "run-1234")
	logger.InfoWithContext(ctx, "with run id")

	if !strings.Contains(buf.String(), "run-1234") {
		t.Errorf("expected run ID in output: %q", buf.String())
	}

	runID, ok := GetRunID(ctx)
	if !ok || runID != "run-1234" {
		t.Errorf("GetRunID = (%q, %v), want (run-1234, true)", runID, ok)
	}
}

func TestLogRecordEvent(t *testing.T) {
	logger, buf := newTestLogger(t, "info", true)

	logger.LogRecordEvent("completed", "uuid-1==", map[string]interface{}{
		"topic":    "Weekly Sync",
		"position": 7,
	})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["event"] != "completed" {
		t.Errorf("unexpected event: %v", entry["event"])
	}
	if entry["identity"] != "uuid-1==" {
		t.Errorf("unexpected identity: %v", entry["identity"])
	}
	if entry["topic"] != "Weekly Sync" {
		t.Errorf("metadata not flattened: %v", entry)
	}
}

func TestLogRunSummary(t *testing.T) {
	logger, buf := newTestLogger(t, "info", true)

	logger.LogRunSummary(RunMetrics{
		RunID:        "run-xyz",
		TotalRecords: 300,
		Skipped:      221,
		Completed:    70,
		Failed:       9,
		Duration:     3 * time.Second,
	})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["run_id"] != "run-xyz" {
		t.Errorf("unexpected run_id: %v", entry["run_id"])
	}
	if entry["completed"] != float64(70) {
		t.Errorf("unexpected completed count: %v", entry["completed"])
	}
}

func TestFileLogging(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "run.log")
	logger, err := NewLogger(config.LoggingConfig{
		Level:   "info",
		File:    logFile,
		Console: false,
	})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	logger.Info("written to file")
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file missing entry: %q", string(data))
	}
}

func TestDefaultLogger(t *testing.T) {
	original := GetDefaultLogger()
	defer SetDefaultLogger(original)

	logger, buf := newTestLogger(t, "info", false)
	SetDefaultLogger(logger)

	Info("via default logger")

	if !strings.Contains(buf.String(), "via default logger") {
		t.Errorf("default logger did not receive message: %q", buf.String())
	}
}
