// Package extract turns merged OCR markdown into structured question
// records using a schema-constrained LLM call with validation repair.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/daixun-ai/papercutter-vl/internal/llmcall"
	"github.com/daixun-ai/papercutter-vl/internal/metrics"
	"github.com/daixun-ai/papercutter-vl/internal/prompts"
	qprompts "github.com/daixun-ai/papercutter-vl/internal/prompts/questions"
	"github.com/daixun-ai/papercutter-vl/internal/providers"
	"github.com/daixun-ai/papercutter-vl/internal/questions"
)

const (
	defaultMaxRepairs  = 2
	defaultCallTimeout = 300 * time.Second
)

// Options configures an Extractor. All fields are optional except Client.
type Options struct {
	Model      string
	MaxRepairs int // schema repair rounds after the first attempt
	Timeout    time.Duration
	Resolver   *prompts.Resolver // prompt overrides
	Calls      *llmcall.Recorder // call log, skipped when nil
	Metrics    *metrics.Recorder // run metrics, skipped when nil
	Logger     *slog.Logger
}

// Extractor extracts question records from markdown.
type Extractor struct {
	client providers.LLMClient
	opts   Options
	logger *slog.Logger
}

// New creates an extractor backed by the given LLM client.
func New(client providers.LLMClient, opts Options) *Extractor {
	if opts.MaxRepairs == 0 {
		opts.MaxRepairs = defaultMaxRepairs
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultCallTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{client: client, opts: opts, logger: logger}
}

// Attribution identifies what document a call belongs to for the call
// log and metrics.
type Attribution struct {
	DocID     string
	RequestID string
	ItemKey   string
}

// Extract extracts all questions from the markdown of one document.
func (e *Extractor) Extract(ctx context.Context, markdown string, attr Attribution) ([]questions.Record, error) {
	input := qprompts.Input{Markdown: markdown}
	e.applyOverrides(&input)

	req := qprompts.CreateChatRequest(input)
	req.Model = e.opts.Model
	req.Timeout = e.opts.Timeout
	req.RequestID = attr.RequestID

	result, err := e.chatWithRetry(ctx, req, attr)
	if err != nil {
		return nil, err
	}

	// Schema-invalid output gets repair rounds: the model sees its own
	// output and the validation issue, then tries again.
	for repair := 0; !result.Success && isRepairable(result.ErrorType) && repair < e.opts.MaxRepairs; repair++ {
		e.logger.Warn("extraction output failed validation, repairing",
			"doc_id", attr.DocID, "round", repair+1, "issue", result.ErrorMessage)

		repairReq := e.buildRepairRequest(req, result)
		result, err = e.chatWithRetry(ctx, repairReq, attr)
		if err != nil {
			return nil, err
		}
	}

	if !result.Success {
		return nil, fmt.Errorf("extraction failed (%s): %s", result.ErrorType, result.ErrorMessage)
	}

	records, err := parseRecords(result.ParsedJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode extraction output: %w", err)
	}
	return records, nil
}

// chatWithRetry retries transport-level failures; provider-level
// validation failures come back as a non-Success result for the
// repair loop to handle.
func (e *Extractor) chatWithRetry(ctx context.Context, req *providers.ChatRequest, attr Attribution) (*providers.ChatResult, error) {
	var result *providers.ChatResult

	attempts := uint(e.client.MaxRetries())
	if attempts == 0 {
		attempts = 1
	}

	err := retry.Do(
		func() error {
			var chatErr error
			result, chatErr = e.client.Chat(ctx, req)
			e.record(result, attr)
			return chatErr
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(e.client.RetryDelayBase()),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}
	return result, nil
}

func (e *Extractor) buildRepairRequest(prev *providers.ChatRequest, failed *providers.ChatResult) *providers.ChatRequest {
	repair := *prev
	repair.Messages = append(append([]providers.Message{}, prev.Messages...),
		providers.Message{Role: "assistant", Content: failed.Content},
		providers.Message{
			Role: "user",
			Content: qprompts.RepairPrompt(
				prev.ResponseFormat.JSONSchema,
				failed.Content,
				errors.New(failed.ErrorMessage),
			),
		},
	)
	return &repair
}

func (e *Extractor) applyOverrides(input *qprompts.Input) {
	if e.opts.Resolver == nil {
		return
	}
	if p, err := e.opts.Resolver.Resolve(qprompts.SystemPromptKey); err == nil && p.IsOverride {
		input.SystemPromptOverride = p.Text
	}
	if p, err := e.opts.Resolver.Resolve(qprompts.UserPromptKey); err == nil && p.IsOverride {
		input.UserPromptOverride = p.Text
	}
}

func (e *Extractor) record(result *providers.ChatResult, attr Attribution) {
	if result == nil {
		return
	}
	if e.opts.Calls != nil {
		e.opts.Calls.Record(result, llmcall.RecordOptions{
			DocID:     attr.DocID,
			RequestID: attr.RequestID,
			PromptKey: qprompts.SystemPromptKey,
		})
	}
	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordLLMCall(metrics.RecordOpts{
			RequestID: attr.RequestID,
			DocID:     attr.DocID,
			Stage:     "extract",
			ItemKey:   attr.ItemKey,
		}, result)
	}
}

func isRepairable(errorType string) bool {
	return errorType == "json_parse" || errorType == "schema_validation"
}

// parseRecords decodes the parsed JSON into records. The schema wraps
// them in a questions object; a bare array is accepted as well.
func parseRecords(parsed any) ([]questions.Record, error) {
	data, err := json.Marshal(parsed)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Questions []questions.Record `json:"questions"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.Questions != nil {
		normalize(wrapper.Questions)
		return wrapper.Questions, nil
	}

	var records []questions.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("output is neither a questions object nor an array: %w", err)
	}
	normalize(records)
	return records, nil
}

func normalize(records []questions.Record) {
	for i := range records {
		records[i].Normalize()
	}
}
