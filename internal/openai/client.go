// Package openai implements the secondary chat collaborator. Its contract is
// deliberately string-shaped: every operation resolves to display text (a
// reply, an inline image data URI, or a readable error message), and a
// missing credential short-circuits to a fixed "not configured" string
// without attempting the call.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"a2aclient/internal/logging"
	"a2aclient/internal/types"
)

const keyMissingMessage = "OpenAI API key is not set. Please configure it in the API Keys menu."

// Client calls the OpenAI HTTP API.
type Client struct {
	baseURL    string
	chatModel  string
	imageModel string
	httpClient *http.Client
}

// NewClient creates a client with default endpoints and models.
func NewClient() *Client {
	return &Client{
		baseURL:    "https://api.openai.com/v1",
		chatModel:  "gpt-4o",
		imageModel: "dall-e-3",
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// NewClientWithBaseURL creates a client against an alternate endpoint
// (used by tests).
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
}

// SendMessage forwards the prompt with the prior unscoped-thread history.
// Only User and OpenAI turns are part of this thread's transcript.
func (c *Client) SendMessage(ctx context.Context, prompt string, history []types.ChatMessage, apiKey string) string {
	if apiKey == "" {
		return keyMissingMessage
	}

	messages := make([]chatMessage, 0, len(history)+1)
	for _, msg := range history {
		switch msg.Sender {
		case types.SenderUser:
			messages = append(messages, chatMessage{Role: "user", Content: msg.Text})
		case types.SenderOpenAI:
			messages = append(messages, chatMessage{Role: "assistant", Content: msg.Text})
		}
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := c.post(ctx, "/chat/completions", apiKey, chatRequest{Model: c.chatModel, Messages: messages})
	if err != nil {
		logging.Get(logging.CategoryOpenAI).Error("chat completion failed: %v", err)
		return fmt.Sprintf("An error occurred: %v", err)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Sprintf("An error occurred: %v", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "Sorry, I couldn't get a response."
	}
	return resp.Choices[0].Message.Content
}

type imageGenRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageGenResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *apiError `json:"error"`
}

// GenerateImage produces a 1024x1024 image and returns it as an inline PNG
// data URI, or a readable failure message.
func (c *Client) GenerateImage(ctx context.Context, prompt, apiKey string) string {
	if apiKey == "" {
		return keyMissingMessage
	}

	body, err := c.post(ctx, "/images/generations", apiKey, imageGenRequest{
		Model:          c.imageModel,
		Prompt:         prompt,
		N:              1,
		Size:           "1024x1024",
		ResponseFormat: "b64_json",
	})
	if err != nil {
		logging.Get(logging.CategoryOpenAI).Error("image generation failed: %v", err)
		return fmt.Sprintf("An error occurred while generating the image: %v", err)
	}

	var resp imageGenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Sprintf("An error occurred while generating the image: %v", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "Could not retrieve image data."
	}
	return "data:image/png;base64," + resp.Data[0].B64JSON
}

// post issues one JSON request and returns the raw body. Non-2xx responses
// surface the service's own error message when present.
func (c *Client) post(ctx context.Context, path, apiKey string, payload interface{}) ([]byte, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp struct {
			Error *apiError `json:"error"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("%s", errResp.Error.Message)
		}
		return nil, fmt.Errorf("HTTP error! status: %d", resp.StatusCode)
	}
	return body, nil
}
