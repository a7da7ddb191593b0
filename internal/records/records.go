// Package records provides loading and access for recording manifest files
package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Well-known manifest columns. Manifests may carry additional columns, and
// optional columns may be absent entirely.
const (
	FieldTopic      = "topic"
	FieldUUID       = "uuid"
	FieldUUIDBase64 = "uuid_base64"
	FieldMeetingID  = "meeting_id"
	FieldHostEmail  = "host_email"
	FieldStartTime  = "start_time"
)

// Record represents a single manifest row. Position is the 1-based index of
// the row among data rows (the header row is excluded).
type Record struct {
	Position int
	Fields   map[string]string
}

// Field returns the trimmed value of a named field, or "" if absent.
func (r Record) Field(name string) string {
	return strings.TrimSpace(r.Fields[name])
}

// Topic returns the meeting topic field.
func (r Record) Topic() string { return r.Field(FieldTopic) }

// UUID returns the recording UUID field.
func (r Record) UUID() string { return r.Field(FieldUUID) }

// UUIDBase64 returns the alternate base64-encoded UUID field.
func (r Record) UUIDBase64() string { return r.Field(FieldUUIDBase64) }

// MeetingID returns the numeric meeting ID field.
func (r Record) MeetingID() string { return r.Field(FieldMeetingID) }

// HostEmail returns the host email field.
func (r Record) HostEmail() string { return r.Field(FieldHostEmail) }

// StartTime parses the start_time field. Returns the zero time if the field
// is absent or not RFC3339.
func (r Record) StartTime() time.Time {
	raw := r.Field(FieldStartTime)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// NotFoundError indicates the manifest file does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("manifest file not found: %s", e.Path)
}

// ParseError indicates the manifest file exists but is not valid tabular
// input. Line is the 1-based line number in the file when known, 0 otherwise.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("failed to parse manifest %s at line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("failed to parse manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LoaderOptions configures manifest loading
type LoaderOptions struct {
	Delimiter rune // Field delimiter (default ',')
}

// Loader defines the interface for loading an ordered record sequence
type Loader interface {
	Load(path string) ([]Record, error)
}

// manifestLoader implements the Loader interface using encoding/csv
type manifestLoader struct {
	options LoaderOptions
}

// NewLoader creates a manifest loader with the given options
func NewLoader(options LoaderOptions) Loader {
	if options.Delimiter == 0 {
		options.Delimiter = ','
	}
	return &manifestLoader{options: options}
}

// Load reads the manifest at path and returns its records in file order.
// The first row is always the header; a manifest without a header row (or
// with a blank one) is a ParseError. Rows shorter than the header are
// tolerated, missing trailing fields are simply absent.
func (l *manifestLoader) Load(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to open manifest %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = l.options.Delimiter
	reader.FieldsPerRecord = -1 // tolerate short/long rows
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Path: path, Line: 1, Err: fmt.Errorf("missing header row")}
		}
		return nil, &ParseError{Path: path, Line: 1, Err: err}
	}
	if err := validateHeader(header); err != nil {
		return nil, &ParseError{Path: path, Line: 1, Err: err}
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(name))
	}

	var records []Record
	position := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := position + 2 // header plus 1-based data offset
			if parseErr, ok := err.(*csv.ParseError); ok {
				line = parseErr.Line
			}
			return nil, &ParseError{Path: path, Line: line, Err: err}
		}

		position++
		fields := make(map[string]string, len(columns))
		for i, name := range columns {
			if i < len(row) {
				fields[name] = row[i]
			}
		}
		records = append(records, Record{Position: position, Fields: fields})
	}

	return records, nil
}

// validateHeader checks that the header row names at least one column
func validateHeader(header []string) error {
	for _, name := range header {
		if strings.TrimSpace(name) != "" {
			return nil
		}
	}
	return fmt.Errorf("header row is empty")
}
