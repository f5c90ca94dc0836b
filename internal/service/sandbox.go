package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"talos/internal/model"
)

// SandboxClient calls the remote screenshot/sandbox worker. The worker is an
// external service; with no URL configured every run reports "skipped". Its
// output is merged into the analysis result but never gates scoring.
type SandboxClient struct {
	WorkerURL  string
	HTTPClient *http.Client
}

func NewSandboxClient(workerURL string) *SandboxClient {
	return &SandboxClient{
		WorkerURL:  workerURL,
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *SandboxClient) Run(ctx context.Context, target string) *model.SandboxResult {
	if c == nil || c.WorkerURL == "" {
		return &model.SandboxResult{
			Status: "skipped",
			Note:   "no sandbox worker configured",
		}
	}

	payload, _ := json.Marshal(map[string]string{"url": target})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.WorkerURL, bytes.NewReader(payload))
	if err != nil {
		return &model.SandboxResult{Status: "error", Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &model.SandboxResult{Status: "error", Error: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return &model.SandboxResult{Status: "error", Error: fmt.Sprintf("sandbox worker HTTP %d", resp.StatusCode)}
	}

	var result model.SandboxResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return &model.SandboxResult{Status: "error", Error: err.Error()}
	}
	if result.Status == "" {
		result.Status = "ok"
	}
	return &result
}
