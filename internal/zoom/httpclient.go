// Package zoom provides HTTP client with retry logic for Zoom API interactions
package zoom

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/curtbushko/zoom-resume/internal/config"
)

// HTTPClientConfig holds configuration for the retry HTTP client
type HTTPClientConfig struct {
	Timeout         time.Duration // Request timeout
	MaxRetries      int           // Maximum number of retries
	RetryWaitMin    time.Duration // Minimum wait time between retries
	RetryWaitMax    time.Duration // Maximum wait time between retries
	RetryableStatus []int         // HTTP status codes that should trigger retries
}

// HTTPClientConfigFromImportConfig creates HTTPClientConfig from ImportConfig
func HTTPClientConfigFromImportConfig(cfg config.ImportConfig) HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:         cfg.TimeoutDuration(),
		MaxRetries:      cfg.RetryAttempts,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		RetryableStatus: []int{429, 500, 502, 503, 504},
	}
}

// ZoomAPIError represents a Zoom API error response
type ZoomAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *ZoomAPIError) Error() string {
	return fmt.Sprintf("zoom API error %d: %s", e.Code, e.Message)
}

// HTTPError represents a general HTTP error
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.StatusCode, e.Status)
}

// RetryHTTPClient is an HTTP client with retry logic and exponential backoff
type RetryHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

// NewRetryHTTPClient creates a new HTTP client with retry logic
func NewRetryHTTPClient(cfg HTTPClientConfig) *RetryHTTPClient {
	// Set defaults if not provided
	if cfg.RetryWaitMin == 0 {
		cfg.RetryWaitMin = 500 * time.Millisecond
	}
	if cfg.RetryWaitMax == 0 {
		cfg.RetryWaitMax = 5 * time.Second
	}
	if len(cfg.RetryableStatus) == 0 {
		cfg.RetryableStatus = []int{429, 500, 502, 503, 504}
	}

	return &RetryHTTPClient{
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
	}
}

// Do executes an HTTP request with retry logic. Requests with bodies must
// set Request.GetBody so retries can replay them; http.NewRequest does this
// for the common body types.
func (c *RetryHTTPClient) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		reqClone, cloneErr := cloneRequest(req)
		if cloneErr != nil {
			return nil, cloneErr
		}

		resp, err = c.client.Do(reqClone)
		if err != nil {
			// Network errors are retried unless the context is done
			if req.Context().Err() != nil {
				return nil, req.Context().Err()
			}
			if attempt < c.config.MaxRetries {
				c.waitForRetry(req, attempt, 0)
				continue
			}
			return nil, fmt.Errorf("request failed after %d attempts: %w", attempt+1, err)
		}

		if !c.shouldRetry(resp.StatusCode) {
			return resp, nil
		}

		// Read response body for error details before retrying
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if attempt < c.config.MaxRetries {
			c.waitForRetry(req, attempt, parseRetryAfter(resp))
			continue
		}

		// Max retries exceeded - return the most specific error available
		if zoomErr := parseZoomError(resp.StatusCode, body); zoomErr != nil {
			return nil, zoomErr
		}
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp, err
}

// shouldRetry checks whether a status code is configured as retryable
func (c *RetryHTTPClient) shouldRetry(statusCode int) bool {
	for _, code := range c.config.RetryableStatus {
		if statusCode == code {
			return true
		}
	}
	return false
}

// waitForRetry sleeps for the backoff duration, honoring context cancellation.
// A server-provided Retry-After wins over the computed backoff.
func (c *RetryHTTPClient) waitForRetry(req *http.Request, attempt int, retryAfter time.Duration) {
	wait := retryAfter
	if wait == 0 {
		// Exponential backoff with jitter
		backoff := float64(c.config.RetryWaitMin) * math.Pow(2, float64(attempt))
		if backoff > float64(c.config.RetryWaitMax) {
			backoff = float64(c.config.RetryWaitMax)
		}
		jitter := rand.Float64() * backoff * 0.25
		wait = time.Duration(backoff + jitter)
	}

	select {
	case <-time.After(wait):
	case <-req.Context().Done():
	}
}

// cloneRequest produces a fresh request for a retry attempt
func cloneRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body cannot be replayed for retry")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("failed to rewind request body: %w", err)
	}
	clone.Body = body
	return clone, nil
}

// parseRetryAfter reads the Retry-After header, if present
func parseRetryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}

// parseZoomError attempts to decode a Zoom API error body
func parseZoomError(statusCode int, body []byte) *ZoomAPIError {
	var zoomErr ZoomAPIError
	if err := json.Unmarshal(body, &zoomErr); err != nil {
		return nil
	}
	if zoomErr.Code == 0 && zoomErr.Message == "" {
		return nil
	}
	zoomErr.Status = statusCode
	return &zoomErr
}

// AuthenticatedRetryClient combines retry behavior with automatic
// authentication header injection.
type AuthenticatedRetryClient struct {
	retryClient *RetryHTTPClient
	auth        Authenticator
}

// NewAuthenticatedRetryClient creates a retrying client that authenticates every request
func NewAuthenticatedRetryClient(retryClient *RetryHTTPClient, auth Authenticator) *AuthenticatedRetryClient {
	return &AuthenticatedRetryClient{
		retryClient: retryClient,
		auth:        auth,
	}
}

// Do executes an HTTP request with authentication and retry logic
func (c *AuthenticatedRetryClient) Do(req *http.Request) (*http.Response, error) {
	token, err := c.auth.GetAccessToken(req.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to get access token for request: %w", err)
	}

	req.Header.Set("Authorization", token.TokenType+" "+token.AccessToken)
	return c.retryClient.Do(req)
}
