package llmcall

import (
	"testing"
	"time"

	"github.com/daixun-ai/papercutter-vl/internal/providers"
)

func TestFromChatResult(t *testing.T) {
	result := &providers.ChatResult{
		Content:          `{"questions": []}`,
		PromptTokens:     120,
		CompletionTokens: 40,
		CostUSD:          0.002,
		ExecutionTime:    1500 * time.Millisecond,
		Provider:         "qwen",
		ModelUsed:        "qwen-max",
		Attempts:         1,
		Success:          true,
	}
	temp := 0.1

	call := FromChatResult(result, RecordOptions{
		DocID:       "paper1",
		PageNum:     3,
		PromptKey:   "stages.questions.system",
		Temperature: &temp,
	})

	if call.ID == "" {
		t.Error("expected generated ID")
	}
	if call.LatencyMs != 1500 {
		t.Errorf("expected latency 1500ms, got %d", call.LatencyMs)
	}
	if call.DocID != "paper1" || call.PageNum != 3 {
		t.Error("context references not carried")
	}
	if call.InputTokens != 120 || call.OutputTokens != 40 {
		t.Error("token counts not carried")
	}
	if call.Temperature == nil || *call.Temperature != 0.1 {
		t.Error("temperature not carried")
	}
	if call.Error != "" {
		t.Errorf("successful call should have no error, got %q", call.Error)
	}

	if FromChatResult(nil, RecordOptions{}) != nil {
		t.Error("nil result should produce nil call")
	}
}

func TestFromChatResult_Failure(t *testing.T) {
	result := &providers.ChatResult{
		Success:      false,
		ErrorType:    "http_error",
		ErrorMessage: "API error 429",
		Provider:     "qwen",
	}

	call := FromChatResult(result, RecordOptions{PromptKey: "stages.questions.system"})
	if call.Success {
		t.Error("expected failed call")
	}
	if call.Error != "API error 429" {
		t.Errorf("expected error message, got %q", call.Error)
	}
}

func TestRecorderAndStore(t *testing.T) {
	dir := t.TempDir()
	rec := NewRecorder(dir, nil)

	for i := 0; i < 3; i++ {
		rec.Record(&providers.ChatResult{
			Provider:         "qwen",
			ModelUsed:        "qwen-max",
			PromptTokens:     100,
			CompletionTokens: 50,
			CostUSD:          0.001,
			Success:          i != 2,
			RequestID:        "run1",
		}, RecordOptions{PromptKey: "stages.questions.system", RequestID: "run1"})
	}
	rec.Close()

	store := NewStore(dir)

	calls, err := store.List(QueryFilter{RequestID: "run1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(calls))
	}

	ok := true
	failed, err := store.List(QueryFilter{Success: &ok})
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 2 {
		t.Errorf("expected 2 successful calls, got %d", len(failed))
	}

	got, err := store.Get(calls[0].ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Provider != "qwen" {
		t.Errorf("unexpected provider %q", got.Provider)
	}

	sum, err := store.Summarize(QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Calls != 3 || sum.Failures != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if sum.InputTokens != 300 || sum.OutputTokens != 150 {
		t.Errorf("unexpected token totals: %+v", sum)
	}
}

func TestStore_MissingLog(t *testing.T) {
	store := NewStore(t.TempDir())
	calls, err := store.List(QueryFilter{})
	if err != nil {
		t.Fatalf("missing log should not error: %v", err)
	}
	if len(calls) != 0 {
		t.Errorf("expected no calls, got %d", len(calls))
	}
}

func TestRecorder_NilSafe(t *testing.T) {
	var rec *Recorder
	rec.Record(&providers.ChatResult{}, RecordOptions{})
	rec.Close()
}
