package providers

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
	VisionOCRName = "vision-llm"

	// Default prompt asks for faithful markdown, matching what layout-aware
	// providers return, so pages from different providers merge cleanly.
	VisionOCRDefaultPrompt = "Transcribe this exam page to Markdown. Preserve headings, numbered questions, options, tables, and math notation exactly. Output only the Markdown."
)

// VisionOCRConfig holds configuration for the vision-LLM OCR client.
type VisionOCRConfig struct {
	APIKey      string
	BaseURL     string // OpenAI-compatible endpoint
	Model       string // e.g. "qwen-vl-max", "Qwen/Qwen2-VL-72B-Instruct"
	Prompt      string // Custom OCR prompt
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	RateLimit   float64 // Requests per second
}

// VisionOCRClient implements OCRProvider by prompting a vision-capable chat
// model through an OpenAI-compatible API. Fallback for setups without a
// dedicated layout parsing service.
type VisionOCRClient struct {
	apiKey      string
	baseURL     string
	model       string
	prompt      string
	temperature float64
	maxTokens   int
	rateLimit   float64
	client      *http.Client
}

// NewVisionOCRClient creates a new vision-LLM OCR client.
func NewVisionOCRClient(cfg VisionOCRConfig) *VisionOCRClient {
	if cfg.Model == "" {
		cfg.Model = "qwen-vl-max"
	}
	if cfg.Prompt == "" {
		cfg.Prompt = VisionOCRDefaultPrompt
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 8000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 2.0
	}

	return &VisionOCRClient{
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		prompt:      cfg.Prompt,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		rateLimit:   cfg.RateLimit,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the provider identifier.
func (c *VisionOCRClient) Name() string {
	return VisionOCRName
}

// RequestsPerSecond returns the rate limit.
func (c *VisionOCRClient) RequestsPerSecond() float64 {
	return c.rateLimit
}

// MaxRetries returns the maximum retry attempts.
func (c *VisionOCRClient) MaxRetries() int {
	return 3
}

// RetryDelayBase returns the base delay for exponential backoff.
func (c *VisionOCRClient) RetryDelayBase() time.Duration {
	return 2 * time.Second
}

// ProcessImage extracts markdown from a page image via a vision chat request.
func (c *VisionOCRClient) ProcessImage(ctx context.Context, image []byte, pageNum int) (*OCRResult, error) {
	start := time.Now()

	imageBase64 := base64.StdEncoding.EncodeToString(image)

	reqBody := visionChatRequest{
		Model: c.model,
		Messages: []visionChatMessage{
			{
				Role: "user",
				Content: []visionChatContent{
					{Type: "text", Text: c.prompt},
					{
						Type: "image_url",
						ImageURL: &visionImageURL{
							URL: "data:image/png;base64," + imageBase64,
						},
					},
				},
			},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	resp, err := c.doRequest(ctx, "/chat/completions", reqBody)
	if err != nil {
		return &OCRResult{
			Success:       false,
			ErrorMessage:  err.Error(),
			ExecutionTime: time.Since(start),
		}, err
	}

	if len(resp.Choices) == 0 {
		return &OCRResult{
			Success:       false,
			ErrorMessage:  "no response choices from model",
			ExecutionTime: time.Since(start),
		}, fmt.Errorf("no response choices from model")
	}

	metadata := map[string]any{
		"model_used":        resp.Model,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"total_tokens":      resp.Usage.TotalTokens,
	}

	return &OCRResult{
		Success: true,
		Text:    resp.Choices[0].Message.Content,
		// Vision transcription has no layout analysis
		IsStart:       true,
		IsEnd:         true,
		Metadata:      metadata,
		CostUSD:       resp.Usage.EstimatedCost,
		ExecutionTime: time.Since(start),
	}, nil
}

// doRequest makes an HTTP request to the OpenAI-compatible API.
func (c *VisionOCRClient) doRequest(ctx context.Context, path string, body any) (*visionChatResponse, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp visionErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("vision OCR error (status %d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("vision OCR error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var chatResp visionChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &chatResp, nil
}

// OpenAI-compatible chat types for vision requests

type visionChatRequest struct {
	Model       string              `json:"model"`
	Messages    []visionChatMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type visionChatMessage struct {
	Role    string              `json:"role"`
	Content []visionChatContent `json:"content"`
}

type visionChatContent struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *visionImageURL `json:"image_url,omitempty"`
}

type visionImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type visionChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int     `json:"prompt_tokens"`
		CompletionTokens int     `json:"completion_tokens"`
		TotalTokens      int     `json:"total_tokens"`
		EstimatedCost    float64 `json:"estimated_cost,omitempty"`
	} `json:"usage"`
}

type visionErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Verify interface
var _ OCRProvider = (*VisionOCRClient)(nil)
