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
	PaddleOCRVLName    = "paddleocr-vl"
	PaddleOCRVLBaseURL = "http://localhost:8080"
	PaddleOCRVLModel   = "PaddleOCR-VL"
)

// PaddleOCRVLConfig holds configuration for the PaddleOCR-VL serving client.
type PaddleOCRVLConfig struct {
	BaseURL   string
	APIKey    string // Optional, for deployments behind an auth proxy
	Model     string
	Timeout   time.Duration
	RateLimit float64 // Requests per second (default: 4.0)
}

// PaddleOCRVLClient implements OCRProvider against a self-hosted
// PaddleOCR-VL serving endpoint (POST /layout-parsing).
type PaddleOCRVLClient struct {
	baseURL   string
	apiKey    string
	model     string
	rateLimit float64
	client    *http.Client
}

// NewPaddleOCRVLClient creates a new PaddleOCR-VL client.
func NewPaddleOCRVLClient(cfg PaddleOCRVLConfig) *PaddleOCRVLClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = PaddleOCRVLBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = PaddleOCRVLModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 4.0
	}

	return &PaddleOCRVLClient{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		rateLimit: cfg.RateLimit,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the provider identifier.
func (c *PaddleOCRVLClient) Name() string {
	return PaddleOCRVLName
}

// RequestsPerSecond returns the rate limit.
func (c *PaddleOCRVLClient) RequestsPerSecond() float64 {
	return c.rateLimit
}

// MaxRetries returns the maximum retry attempts.
func (c *PaddleOCRVLClient) MaxRetries() int {
	return 3
}

// RetryDelayBase returns the base delay for exponential backoff.
func (c *PaddleOCRVLClient) RetryDelayBase() time.Duration {
	return 2 * time.Second
}

// HealthCheck verifies the serving endpoint is reachable.
func (c *PaddleOCRVLClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}
	return nil
}

// ProcessImage extracts markdown from a page image using layout parsing.
func (c *PaddleOCRVLClient) ProcessImage(ctx context.Context, image []byte, pageNum int) (*OCRResult, error) {
	start := time.Now()

	reqBody := paddleLayoutParsingRequest{
		File:     base64.StdEncoding.EncodeToString(image),
		FileType: paddleFileTypeImage,
	}

	resp, err := c.doRequest(ctx, "/layout-parsing", reqBody)
	if err != nil {
		return &OCRResult{
			Success:       false,
			ErrorMessage:  err.Error(),
			ExecutionTime: time.Since(start),
		}, err
	}

	if len(resp.Result.LayoutParsingResults) == 0 {
		return &OCRResult{
			Success:       false,
			ErrorMessage:  "no layout parsing results in response",
			ExecutionTime: time.Since(start),
		}, fmt.Errorf("no layout parsing results in response")
	}

	// Single image request = single result
	page := resp.Result.LayoutParsingResults[0]

	// Decode cropped figure images referenced from the markdown
	var images map[string][]byte
	if len(page.Markdown.Images) > 0 {
		images = make(map[string][]byte, len(page.Markdown.Images))
		for path, b64 := range page.Markdown.Images {
			data, err := base64.StdEncoding.DecodeString(b64)
			if err != nil {
				return &OCRResult{
					Success:       false,
					ErrorMessage:  fmt.Sprintf("failed to decode image %s: %v", path, err),
					ExecutionTime: time.Since(start),
				}, fmt.Errorf("failed to decode image %s: %w", path, err)
			}
			images[path] = data
		}
	}

	metadata := map[string]any{
		"model_used": c.model,
		"page_index": page.Markdown.PageIndex,
	}
	if resp.Result.DataInfo != nil {
		metadata["data_info"] = resp.Result.DataInfo
	}

	return &OCRResult{
		Success:       true,
		Text:          page.Markdown.Text,
		Images:        images,
		IsStart:       page.Markdown.IsStart,
		IsEnd:         page.Markdown.IsEnd,
		Metadata:      metadata,
		ExecutionTime: time.Since(start),
	}, nil
}

// doRequest makes an HTTP request to the serving endpoint.
func (c *PaddleOCRVLClient) doRequest(ctx context.Context, path string, body any) (*paddleLayoutParsingResponse, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

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
		var errResp paddleErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.ErrorMsg != "" {
			return nil, fmt.Errorf("PaddleOCR-VL error (status %d): %s", resp.StatusCode, errResp.ErrorMsg)
		}
		return nil, fmt.Errorf("PaddleOCR-VL error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed paddleLayoutParsingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if parsed.ErrorCode != 0 {
		return nil, fmt.Errorf("PaddleOCR-VL error (code %d): %s", parsed.ErrorCode, parsed.ErrorMsg)
	}

	return &parsed, nil
}

// PaddleX serving API types

const (
	paddleFileTypePDF   = 0
	paddleFileTypeImage = 1
)

type paddleLayoutParsingRequest struct {
	File     string `json:"file"` // Base64-encoded file content or URL
	FileType int    `json:"fileType"`
}

type paddleLayoutParsingResponse struct {
	LogID     string `json:"logId"`
	ErrorCode int    `json:"errorCode"`
	ErrorMsg  string `json:"errorMsg"`
	Result    struct {
		LayoutParsingResults []paddleLayoutParsingResult `json:"layoutParsingResults"`
		DataInfo             map[string]any              `json:"dataInfo,omitempty"`
	} `json:"result"`
}

type paddleLayoutParsingResult struct {
	PrunedResult map[string]any `json:"prunedResult,omitempty"`
	Markdown     paddleMarkdown `json:"markdown"`
}

type paddleMarkdown struct {
	Text      string            `json:"text"`
	Images    map[string]string `json:"images,omitempty"` // relative path -> base64
	IsStart   bool              `json:"isStart"`
	IsEnd     bool              `json:"isEnd"`
	PageIndex int               `json:"pageIndex,omitempty"`
}

type paddleErrorResponse struct {
	ErrorCode int    `json:"errorCode"`
	ErrorMsg  string `json:"errorMsg"`
}

// Verify interface
var _ OCRProvider = (*PaddleOCRVLClient)(nil)
