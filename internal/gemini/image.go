package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"a2aclient/internal/logging"
)

type imageRequest struct {
	Instances  []imageInstance `json:"instances"`
	Parameters imageParameters `json:"parameters"`
}

type imageInstance struct {
	Prompt string `json:"prompt"`
}

type imageParameters struct {
	SampleCount    int    `json:"sampleCount"`
	AspectRatio    string `json:"aspectRatio"`
	OutputMimeType string `json:"outputMimeType"`
}

type imageResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
	Error *apiError `json:"error"`
}

// GenerateImage produces a single 1:1 JPEG for the prompt and returns it as
// an inline data URI. An empty prediction list (usually a safety rejection)
// is reported as an error rather than an image.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	if c.apiKey == "" {
		return "", fmt.Errorf("API key not configured")
	}
	c.throttle()

	reqBody := imageRequest{
		Instances: []imageInstance{{Prompt: prompt}},
		Parameters: imageParameters{
			SampleCount:    1,
			AspectRatio:    "1:1",
			OutputMimeType: "image/jpeg",
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:predict?key=%s", c.baseURL, c.imageModel, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var imgResp imageResponse
	if err := json.Unmarshal(body, &imgResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if imgResp.Error != nil {
		return "", fmt.Errorf("API error: %s", imgResp.Error.Message)
	}
	if len(imgResp.Predictions) == 0 {
		// No detailed safety feedback is available on this endpoint.
		return "", fmt.Errorf("no image generated; the prompt may have been rejected for safety reasons")
	}

	pred := imgResp.Predictions[0]
	mime := pred.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	logging.Get(logging.CategoryGemini).Info("image generated in %v bytes=%d", time.Since(startTime), len(pred.BytesBase64Encoded))
	return fmt.Sprintf("data:%s;base64,%s", mime, pred.BytesBase64Encoded), nil
}
