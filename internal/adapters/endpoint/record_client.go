package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/os-libera/xalute-mobile/internal/domain"
	"github.com/os-libera/xalute-mobile/internal/ports"
)

// RecordClient posts the observation bundle as JSON. Only delivery is checked.
type RecordClient struct {
	url        string
	httpClient *http.Client
}

func NewRecordClient(url string, timeout time.Duration) (*RecordClient, error) {
	if url == "" {
		return nil, fmt.Errorf("record url is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &RecordClient{url: url, httpClient: &http.Client{Timeout: timeout}}, nil
}

func (c *RecordClient) Record(ctx context.Context, bundle any) error {
	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNetworkFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: record returned %d", domain.ErrNetworkFailure, resp.StatusCode)
	}
	return nil
}

var _ ports.Recorder = (*RecordClient)(nil)
