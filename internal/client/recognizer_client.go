package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"parking-gate-service/internal/config"
)

// RecognizerClient talks to the external detection/OCR service. The
// gate only ever consumes its raw candidate string; image analysis
// stays on the other side of this boundary.
type RecognizerClient struct {
	baseURL       string
	internalToken string
	httpClient    *http.Client
}

type recognizeResponse struct {
	RawText    string  `json:"raw_text"`
	Confidence float64 `json:"confidence"`
}

func NewRecognizerClient(cfg *config.Config) *RecognizerClient {
	return &RecognizerClient{
		baseURL:       cfg.Recognizer.URL,
		internalToken: cfg.Recognizer.Token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ReadPlate submits a snapshot and returns the raw OCR candidate. An
// empty string with nil error means the recognizer saw no plate.
func (c *RecognizerClient) ReadPlate(ctx context.Context, image []byte) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("recognizer service URL is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/recognize", bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if c.internalToken != "" {
		req.Header.Set("X-Internal-Token", c.internalToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("recognizer service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response recognizeResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return response.RawText, nil
}
