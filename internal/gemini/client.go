// Package gemini implements the primary chat collaborator: text completion
// with mission history, structured hint generation, task simulation, and
// image generation against the Generative Language API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"a2aclient/internal/logging"
	"a2aclient/internal/types"
)

// Config holds client construction options.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	ImageModel string
	Timeout    time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:     apiKey,
		BaseURL:    "https://generativelanguage.googleapis.com/v1beta",
		Model:      "gemini-2.5-flash",
		ImageModel: "imagen-3.0-generate-002",
		Timeout:    2 * time.Minute,
	}
}

// Client calls the Generative Language API over plain HTTP.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	imageModel string
	httpClient *http.Client

	mu          sync.Mutex
	lastRequest time.Time
}

// NewClient creates a client with default configuration.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(DefaultConfig(apiKey))
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = "imagen-3.0-generate-002"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		imageModel: cfg.ImageModel,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// =============================================================================
// WIRE TYPES
// =============================================================================

type generatePart struct {
	Text string `json:"text,omitempty"`
}

type generateContent struct {
	Role  string         `json:"role,omitempty"`
	Parts []generatePart `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string                 `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]interface{} `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	Contents          []generateContent `json:"contents"`
	SystemInstruction *generateContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []generatePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// hintSchema mirrors the structured output contract for contextual hints.
var hintSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"user": map[string]interface{}{
			"type":        "string",
			"description": "A concise, actionable phrase for the user to type next. Must be a direct command or question.",
		},
		"ai": map[string]interface{}{
			"type":        "string",
			"description": "A detailed, contextual explanation from the AI agent's perspective that elaborates on the last response.",
		},
		"system": map[string]interface{}{
			"type":        "string",
			"description": "A comprehensive, strategic recommendation for a broader workflow or orchestration from the CUA Engine.",
		},
	},
	"required": []string{"user", "ai", "system"},
}

// =============================================================================
// OPERATIONS
// =============================================================================

// SendMessage sends a prompt with the prior mission-scoped history and an
// optional instruction, returning the model's reply text. Only User, AI and
// Agent turns are meaningful to the model; other senders are filtered out.
func (c *Client) SendMessage(ctx context.Context, prompt string, history []types.ChatMessage, aiInstruction string) (string, error) {
	contents := make([]generateContent, 0, len(history)+1)
	for _, msg := range history {
		switch msg.Sender {
		case types.SenderUser:
			contents = append(contents, generateContent{Role: "user", Parts: []generatePart{{Text: msg.Text}}})
		case types.SenderAI, types.SenderAgent:
			contents = append(contents, generateContent{Role: "model", Parts: []generatePart{{Text: msg.Text}}})
		}
	}
	contents = append(contents, generateContent{Role: "user", Parts: []generatePart{{Text: prompt}}})

	req := generateRequest{Contents: contents}
	if aiInstruction != "" {
		req.SystemInstruction = &generateContent{Parts: []generatePart{{Text: aiInstruction}}}
	}
	return c.generate(ctx, req)
}

// GenerateHints asks for a three-part contextual hint as schema-enforced
// JSON. A nil hint (with nil error) is never returned; callers treat any
// error as "no hint available".
func (c *Client) GenerateHints(ctx context.Context, history []types.ChatMessage, agentName, lastResponse, systemInstruction string) (*types.Hint, error) {
	var sb strings.Builder
	for _, m := range history {
		fmt.Fprintf(&sb, "%s: %s\n", m.Sender, m.Text)
	}
	prompt := fmt.Sprintf(
		"Based on the following conversation history with Agent %s and its last response, generate contextual hints.\n\nConversation:\n%s\nLast AI Response:\n%s",
		agentName, sb.String(), lastResponse,
	)

	const baseInstruction = "You are the CUA (USER, AI, SYSTEM) Engine. You provide three contextual hints to guide the user's next interaction. The hints must be in a non-enumerated prose format. Respond ONLY with the JSON object based on the schema."
	instruction := baseInstruction
	if systemInstruction != "" {
		instruction = systemInstruction + "\n\n" + baseInstruction
	}

	req := generateRequest{
		Contents:          []generateContent{{Role: "user", Parts: []generatePart{{Text: prompt}}}},
		SystemInstruction: &generateContent{Parts: []generatePart{{Text: instruction}}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   hintSchema,
		},
	}

	raw, err := c.generate(ctx, req)
	if err != nil {
		return nil, err
	}
	var hint types.Hint
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &hint); err != nil {
		return nil, fmt.Errorf("failed to parse hint response: %w", err)
	}
	return &hint, nil
}

// SimulateTask returns a narrative describing how the named agent would
// execute the task, including collaborations with the rest of the family.
func (c *Client) SimulateTask(ctx context.Context, taskPrompt, agentName, systemInstruction string) (string, error) {
	baseInstruction := fmt.Sprintf(
		"You are the A2A system orchestrator. The user wants to simulate a task. As agent %s, describe in detail the steps you would take to accomplish the following task, including collaborations with other agents (like Lyra for data, Sophia for visuals, etc.), the tools you would use, and the expected outcome. Format the response as a narrative of the execution process. Do not ask clarifying questions; provide a plausible, detailed simulation.",
		agentName,
	)
	instruction := baseInstruction
	if systemInstruction != "" {
		instruction = systemInstruction + "\n\n" + baseInstruction
	}

	req := generateRequest{
		Contents:          []generateContent{{Role: "user", Parts: []generatePart{{Text: taskPrompt}}}},
		SystemInstruction: &generateContent{Parts: []generatePart{{Text: instruction}}},
	}
	return c.generate(ctx, req)
}

// generate posts a generateContent request with rate spacing and a retry
// loop for transient failures.
func (c *Client) generate(ctx context.Context, reqBody generateRequest) (string, error) {
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

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	maxRetries := 3
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			time.Sleep(time.Duration(1<<uint(i-1)) * time.Second)
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return "", fmt.Errorf("failed to marshal request: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limit exceeded (429)")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}

		var genResp generateResponse
		if err := json.Unmarshal(body, &genResp); err != nil {
			return "", fmt.Errorf("failed to parse response: %w", err)
		}
		if genResp.Error != nil {
			return "", fmt.Errorf("API error: %s", genResp.Error.Message)
		}
		if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
			return "", fmt.Errorf("no completion returned")
		}

		var result strings.Builder
		for _, part := range genResp.Candidates[0].Content.Parts {
			result.WriteString(part.Text)
		}
		response := strings.TrimSpace(result.String())
		logging.Get(logging.CategoryGemini).Info("generateContent completed in %v response_len=%d", time.Since(startTime), len(response))
		return response, nil
	}

	logging.Get(logging.CategoryGemini).Error("generateContent: max retries exceeded after %v: %v", time.Since(startTime), lastErr)
	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// throttle enforces a minimum spacing between requests.
func (c *Client) throttle() {
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()
}
