package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	chatCompletionsEndpoint = "/chat/completions"
	imageGenerationEndpoint = "/images/generations"
)

// Generator produces blog text and an illustration for a prompt. Both
// operations are independent remote calls.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

type openAIClient struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	textModel  string
	imageModel string
}

// NewOpenAIClient creates a Generator backed by the OpenAI REST API.
func NewOpenAIClient(baseURL, apiKey, textModel, imageModel string, timeout time.Duration) Generator {
	return &openAIClient{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL:    baseURL,
		apiKey:     apiKey,
		textModel:  textModel,
		imageModel: imageModel,
	}
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type imageGenerationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageGenerationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// GenerateText asks the chat completions endpoint for a short markdown
// blog post about the prompt.
func (c *openAIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	reqBody := chatCompletionRequest{
		Model: c.textModel,
		Messages: []chatMessage{
			{
				Role:    "user",
				Content: fmt.Sprintf("Write a blog post around 200 words about the following topic: %q in markdown format.", prompt),
			},
		},
	}

	var resp chatCompletionResponse
	if err := c.post(ctx, chatCompletionsEndpoint, reqBody, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("chat completion returned no content")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateImage asks the image endpoint for a single PNG illustration
// and returns the decoded bytes.
func (c *openAIClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	reqBody := imageGenerationRequest{
		Model:          c.imageModel,
		Prompt:         fmt.Sprintf("Generate an image for a blog post about %q", prompt),
		N:              1,
		Size:           "1792x1024",
		ResponseFormat: "b64_json",
	}

	var resp imageGenerationResponse
	if err := c.post(ctx, imageGenerationEndpoint, reqBody, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("image generation returned no data")
	}
	decoded, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decoding generated image: %w", err)
	}
	return decoded, nil
}

func (c *openAIClient) post(ctx context.Context, endpoint string, reqBody, out interface{}) error {
	bodyJSON, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
			return fmt.Errorf("openai request failed: %s", errorResp.Error.Message)
		}
		return fmt.Errorf("openai request failed: HTTP %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
