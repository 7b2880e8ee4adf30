package noaa

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/openwx-service/internal/domain"
	"github.com/couchcryptid/openwx-service/internal/observability"
)

// errorBodyLimit caps how much of a non-2xx body is kept for diagnostics.
const errorBodyLimit = 512

// Client implements domain.Getter against the NOAA GFS distribution hosts
// (the open-data bucket, NOMADS, or a mirror).
type Client struct {
	httpClient *http.Client
	userAgent  string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a GFS HTTP client. The timeout bounds each GET including
// reading the body.
func NewClient(timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "openwx-service",
		metrics:   metrics,
		logger:    logger,
	}
}

// Get issues a GET, adding a Range header when req.Range is set, and returns
// the status code and body. A body longer than req.MaxBytes is an error.
func (c *Client) Get(ctx context.Context, req domain.GetRequest) (domain.GetResponse, error) {
	start := time.Now()
	resp, err := c.do(ctx, req)
	c.metrics.UpstreamDuration.WithLabelValues(req.Stage).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil || resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "error"
	}
	c.metrics.UpstreamRequests.WithLabelValues(req.Stage, outcome).Inc()
	return resp, err
}

func (c *Client) do(ctx context.Context, req domain.GetRequest) (domain.GetResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return domain.GetResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	if req.Range != nil {
		httpReq.Header.Set("Range", req.Range.Header())
	}

	c.logger.Debug("upstream request", "stage", req.Stage, "url", req.URL, "range", rangeAttr(req.Range))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.GetResponse{}, fmt.Errorf("%s request: %w", req.Stage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return domain.GetResponse{StatusCode: resp.StatusCode, Body: body}, nil
	}

	body, err := readLimited(resp.Body, req.MaxBytes)
	if err != nil {
		return domain.GetResponse{StatusCode: resp.StatusCode}, fmt.Errorf("read %s body: %w", req.Stage, err)
	}
	return domain.GetResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > maxBytes {
		return nil, fmt.Errorf("body exceeds %d bytes", maxBytes)
	}
	return body, nil
}

func rangeAttr(r *domain.ByteRange) string {
	if r == nil {
		return ""
	}
	return r.Header()
}
