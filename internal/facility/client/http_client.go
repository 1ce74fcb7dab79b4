// Package client implements the protocol client a local facility uses to reach a master.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/allisson/kmi/internal/errors"
	facilityDomain "github.com/allisson/kmi/internal/facility/domain"
)

// maxResponseSize bounds the body read from the master. A KEK is a few KiB of PEM.
const maxResponseSize = 64 * 1024

// HTTPClient speaks the create/fetch protocol over HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client for the master facility at baseURL.
// Every request is bounded by timeout in addition to the caller's context.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, errors.Wrap(errors.ErrInvalidConfiguration, "master url is required")
	}
	if timeout <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidConfiguration, "master timeout must be positive, got %s", timeout)
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = timeout

	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// Create asks the master for a new KEK.
func (c *HTTPClient) Create(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/new", nil)
}

// Fetch sends kek to the master and returns the DEK it protects.
func (c *HTTPClient) Fetch(ctx context.Context, kek []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/key", kek)
}

// Ping checks the master health endpoint.
func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil)
	return err
}

// Close releases idle connections held by the pool.
func (c *HTTPClient) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidConfiguration, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", facilityDomain.ErrTransport, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, facilityDomain.ErrKeyNotFound
	default:
		return nil, errors.Wrapf(facilityDomain.ErrRemoteFailure, "%s %s returned %d", method, path, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", facilityDomain.ErrTransport, err)
	}
	if len(data) > maxResponseSize {
		return nil, errors.Wrapf(
			facilityDomain.ErrRemoteFailure, "%s %s returned more than %d bytes", method, path, maxResponseSize,
		)
	}
	return data, nil
}
