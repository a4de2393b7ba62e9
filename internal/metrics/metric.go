// Package metrics provides cost and usage tracking for LLM/OCR operations.
package metrics

import "time"

// Metric represents a single recorded metric for an LLM or OCR call.
// Metrics are append-only records kept for the lifetime of a run.
type Metric struct {
	// Attribution (for filtering/aggregation)
	RequestID string `json:"request_id,omitempty"`
	DocID     string `json:"doc_id,omitempty"`
	Stage     string `json:"stage,omitempty"`
	ItemKey   string `json:"item_key,omitempty"` // e.g., "page_0001"

	// Provider info
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// Cost and tokens
	CostUSD          float64 `json:"cost_usd,omitempty"`
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
	TotalTokens      int     `json:"total_tokens,omitempty"`

	// Timing
	QueueSeconds     float64 `json:"queue_seconds,omitempty"`
	ExecutionSeconds float64 `json:"execution_seconds,omitempty"`
	TotalSeconds     float64 `json:"total_seconds,omitempty"`

	// Status
	Success   bool   `json:"success"`
	ErrorType string `json:"error_type,omitempty"`

	// Metadata
	CreatedAt time.Time `json:"created_at,omitempty"`
}
