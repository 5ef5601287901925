package util

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// ClientOptions configures a retrying HTTP client.
type ClientOptions struct {
	Timeout      time.Duration
	Retries      int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Logger       *slog.Logger
}

// NewHTTPClient builds a retryablehttp client. Retries apply to connection
// errors and 5xx responses; a 404 is returned to the caller as-is.
func NewHTTPClient(opt ClientOptions) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = max(opt.Retries, 0)
	if opt.Timeout > 0 {
		c.HTTPClient.Timeout = opt.Timeout
	}
	if opt.RetryWaitMin > 0 {
		c.RetryWaitMin = opt.RetryWaitMin
	}
	if opt.RetryWaitMax > 0 {
		c.RetryWaitMax = max(opt.RetryWaitMax, c.RetryWaitMin)
	}
	c.Logger = nil
	if opt.Logger != nil {
		c.Logger = opt.Logger
	}
	return c
}

// GetBytes issues a GET and returns the body of a 200 response. At most limit
// bytes are read.
func GetBytes(ctx context.Context, client *retryablehttp.Client, url string, limit int64) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// StatusError reports a non-200 response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}
