package endpoint

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/os-libera/xalute-mobile/internal/domain"
	"github.com/os-libera/xalute-mobile/internal/ports"
)

const (
	defaultTimeout = 30 * time.Second
	// maxResponseBytes caps how much of a response body is kept.
	maxResponseBytes = 8 << 20
)

// PredictClient uploads the raw waveform as a multipart form file.
type PredictClient struct {
	url        string
	fieldName  string
	httpClient *http.Client
}

func NewPredictClient(url string, timeout time.Duration) (*PredictClient, error) {
	if url == "" {
		return nil, fmt.Errorf("predict url is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &PredictClient{
		url:        url,
		fieldName:  "file",
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Predict returns the body of a 2xx response. Transport errors and other
// statuses are reported as ErrNetworkFailure.
func (c *PredictClient) Predict(ctx context.Context, fileName string, raw []byte) ([]byte, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.SetBoundary("xalute-" + uuid.NewString()); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	part, err := w.CreateFormFile(c.fieldName, fileName)
	if err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := part.Write(raw); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNetworkFailure, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrNetworkFailure, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: predict returned %d", domain.ErrNetworkFailure, resp.StatusCode)
	}
	return data, nil
}

var _ ports.Predictor = (*PredictClient)(nil)
