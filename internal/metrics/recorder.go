package metrics

import (
	"sync"
	"time"

	"github.com/daixun-ai/papercutter-vl/internal/providers"
)

// Recorder accumulates metrics for a run. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	metrics []Metric
}

// NewRecorder creates a new metrics recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordOpts provides context for a metric recording.
type RecordOpts struct {
	RequestID string
	DocID     string
	Stage     string
	ItemKey   string // e.g., "page_0001"
}

// Record stores a single metric.
func (r *Recorder) Record(m Metric) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.mu.Lock()
	r.metrics = append(r.metrics, m)
	r.mu.Unlock()
}

// RecordLLMCall records metrics from an LLM chat result.
func (r *Recorder) RecordLLMCall(opts RecordOpts, result *providers.ChatResult) {
	if result == nil {
		return
	}

	r.Record(Metric{
		RequestID: opts.RequestID,
		DocID:     opts.DocID,
		Stage:     opts.Stage,
		ItemKey:   opts.ItemKey,

		Provider: result.Provider,
		Model:    result.ModelUsed,

		CostUSD:          result.CostUSD,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		TotalTokens:      result.TotalTokens,

		QueueSeconds:     result.QueueTime.Seconds(),
		ExecutionSeconds: result.ExecutionTime.Seconds(),
		TotalSeconds:     result.TotalTime.Seconds(),

		Success:   result.Success,
		ErrorType: result.ErrorType,
	})
}

// RecordOCRCall records metrics from an OCR result.
func (r *Recorder) RecordOCRCall(opts RecordOpts, provider string, result *providers.OCRResult) {
	if result == nil {
		return
	}

	m := Metric{
		RequestID: opts.RequestID,
		DocID:     opts.DocID,
		Stage:     opts.Stage,
		ItemKey:   opts.ItemKey,

		Provider: provider,

		CostUSD:          result.CostUSD,
		ExecutionSeconds: result.ExecutionTime.Seconds(),
		TotalSeconds:     result.ExecutionTime.Seconds(),

		Success: result.Success,
	}
	if result.ErrorMessage != "" {
		m.ErrorType = "ocr_error"
	}

	r.Record(m)
}

// RecordError records a failed operation as a metric.
func (r *Recorder) RecordError(opts RecordOpts, provider, model, errorType string, duration time.Duration) {
	r.Record(Metric{
		RequestID: opts.RequestID,
		DocID:     opts.DocID,
		Stage:     opts.Stage,
		ItemKey:   opts.ItemKey,

		Provider: provider,
		Model:    model,

		TotalSeconds: duration.Seconds(),

		Success:   false,
		ErrorType: errorType,
	})
}

// Metrics returns a copy of all recorded metrics.
func (r *Recorder) Metrics() []Metric {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Metric, len(r.metrics))
	copy(out, r.metrics)
	return out
}
