// Package zoom defines data structures for Zoom Cloud Recording API
package zoom

import (
	"time"
)

// RecordingFile represents a single recording file within a meeting recording
type RecordingFile struct {
	ID             string    `json:"id"`
	MeetingID      string    `json:"meeting_id"`
	RecordingStart time.Time `json:"recording_start"`
	RecordingEnd   time.Time `json:"recording_end"`
	FileType       string    `json:"file_type"`
	FileExtension  string    `json:"file_extension,omitempty"`
	FileSize       int64     `json:"file_size"`
	DownloadURL    string    `json:"download_url"`
	Status         string    `json:"status"`
	RecordingType  string    `json:"recording_type,omitempty"`
}

// Recording represents a meeting or webinar recording with all associated files
type Recording struct {
	UUID           string          `json:"uuid"`
	ID             int64           `json:"id"`
	AccountID      string          `json:"account_id"`
	HostID         string          `json:"host_id"`
	HostEmail      string          `json:"host_email,omitempty"`
	Topic          string          `json:"topic"`
	Type           int             `json:"type"`
	StartTime      time.Time       `json:"start_time"`
	Duration       int             `json:"duration"`
	TotalSize      int64           `json:"total_size"`
	RecordingCount int             `json:"recording_count"`
	RecordingFiles []RecordingFile `json:"recording_files"`
}

// ReprocessRequest is the payload submitted to the external batch processor
// for a single recording.
type ReprocessRequest struct {
	UUID      string `json:"uuid"`
	MeetingID string `json:"meeting_id,omitempty"`
	Topic     string `json:"topic,omitempty"`
	HostEmail string `json:"host_email,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	Source    string `json:"source"`
}

// ReprocessResponse is the batch processor's acknowledgement
type ReprocessResponse struct {
	Accepted bool   `json:"accepted"`
	JobID    string `json:"job_id,omitempty"`
	Message  string `json:"message,omitempty"`
}
