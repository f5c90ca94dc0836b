package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ReportClient forwards a finished analysis to the external report renderer
// and returns the binary artifact. The renderer's format is its own concern.
type ReportClient struct {
	RendererURL string
	HTTPClient  *http.Client
}

func NewReportClient(rendererURL string) *ReportClient {
	return &ReportClient{
		RendererURL: rendererURL,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

var ErrRendererUnavailable = errors.New("report renderer not configured")

func (c *ReportClient) Render(ctx context.Context, payload []byte) ([]byte, error) {
	if c.RendererURL == "" {
		return nil, ErrRendererUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.RendererURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("renderer HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
