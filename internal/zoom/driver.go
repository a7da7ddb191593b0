package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/curtbushko/zoom-resume/internal/config"
	"github.com/curtbushko/zoom-resume/internal/identity"
	"github.com/curtbushko/zoom-resume/internal/records"
)

// ReimportDriver submits manifest records to the external batch processor.
// Before submitting it verifies the recording still exists on the Zoom
// account; a recording deleted since the manifest was exported fails fast
// with a clear error instead of a processor-side mystery.
type ReimportDriver struct {
	client    RecordingClient
	processor config.ProcessorConfig
	http      HTTPDoer
}

// NewReimportDriver creates a driver that verifies recordings against the
// Zoom API and submits them to the configured processor endpoint.
func NewReimportDriver(client RecordingClient, processor config.ProcessorConfig, httpClient HTTPDoer) *ReimportDriver {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &ReimportDriver{
		client:    client,
		processor: processor,
		http:      httpClient,
	}
}

// ImportRecord imports a single manifest record. The record's identity is
// used as the meeting UUID for verification and submission.
func (d *ReimportDriver) ImportRecord(ctx context.Context, rec records.Record) error {
	id, ok := identity.Of(rec)
	if !ok {
		return fmt.Errorf("record at position %d has no uuid to import", rec.Position)
	}

	recording, err := d.client.GetRecordingByUUID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to verify recording %s: %w", id, err)
	}
	if len(recording.RecordingFiles) == 0 {
		return fmt.Errorf("recording %s has no files to process", id)
	}

	return d.submit(ctx, rec, recording)
}

// submit posts the reprocess request to the batch processor
func (d *ReimportDriver) submit(ctx context.Context, rec records.Record, recording *Recording) error {
	payload := ReprocessRequest{
		UUID:      recording.UUID,
		MeetingID: rec.MeetingID(),
		Topic:     recording.Topic,
		HostEmail: rec.HostEmail(),
		Source:    "manifest-resume",
	}
	if !recording.StartTime.IsZero() {
		payload.StartTime = recording.StartTime.Format(time.RFC3339)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal reprocess request: %w", err)
	}

	endpoint := strings.TrimSuffix(d.processor.BaseURL, "/") + "/recordings/reprocess"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create processor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.processor.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.processor.AuthToken)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("processor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var ack ReprocessResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return fmt.Errorf("failed to decode processor response: %w", err)
	}
	if !ack.Accepted {
		return fmt.Errorf("processor rejected recording %s: %s", recording.UUID, ack.Message)
	}

	return nil
}
