// Package zoom provides API client for Zoom Cloud Recording endpoints
package zoom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// RecordingClient defines the interface for the recording lookups this tool needs
type RecordingClient interface {
	GetRecordingByUUID(ctx context.Context, meetingUUID string) (*Recording, error)
}

// HTTPDoer is the request execution dependency of the client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements the RecordingClient interface against the Zoom API
type Client struct {
	httpClient HTTPDoer
	baseURL    string
}

// NewClient creates a new Zoom API client
func NewClient(httpClient HTTPDoer, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// GetRecordingByUUID retrieves the recording for a meeting instance UUID.
// Returns a ZoomAPIError or HTTPError for API-level failures; a 404 means
// the recording no longer exists on the account.
func (c *Client) GetRecordingByUUID(ctx context.Context, meetingUUID string) (*Recording, error) {
	if meetingUUID == "" {
		return nil, fmt.Errorf("meeting UUID cannot be empty")
	}

	endpoint := fmt.Sprintf("%s/meetings/%s/recordings", c.baseURL, EncodeMeetingUUID(meetingUUID))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var result Recording
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

// EncodeMeetingUUID encodes a meeting UUID for use in a URL path. Zoom
// requires double URL-encoding when the UUID begins with '/' or contains
// '//', which happens in real exports.
func EncodeMeetingUUID(meetingUUID string) string {
	encoded := url.QueryEscape(meetingUUID)
	if strings.HasPrefix(meetingUUID, "/") || strings.Contains(meetingUUID, "//") {
		encoded = url.QueryEscape(encoded)
	}
	return encoded
}
