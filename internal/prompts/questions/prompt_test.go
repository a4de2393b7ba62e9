package questions

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestCreateChatRequest(t *testing.T) {
	req := CreateChatRequest(Input{Markdown: "1. 计算 $1+1$"})

	if len(req.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != "system" {
		t.Errorf("expected system role, got %q", req.Messages[0].Role)
	}
	if !strings.Contains(req.Messages[1].Content, "1. 计算 $1+1$") {
		t.Error("user prompt should contain the markdown")
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_schema" {
		t.Fatal("expected json_schema response format")
	}

	var wrapper struct {
		Name   string         `json:"name"`
		Strict bool           `json:"strict"`
		Schema map[string]any `json:"schema"`
	}
	if err := json.Unmarshal(req.ResponseFormat.JSONSchema, &wrapper); err != nil {
		t.Fatalf("schema should be valid JSON: %v", err)
	}
	if wrapper.Name != "question_records" || !wrapper.Strict {
		t.Errorf("unexpected schema wrapper: %+v", wrapper)
	}
	if _, ok := wrapper.Schema["properties"].(map[string]any)["questions"]; !ok {
		t.Error("schema should define a questions array")
	}
}

func TestCreateChatRequest_Overrides(t *testing.T) {
	req := CreateChatRequest(Input{
		Markdown:             "content",
		SystemPromptOverride: "custom system",
		UserPromptOverride:   "pages: {{.Markdown}}",
	})

	if req.Messages[0].Content != "custom system" {
		t.Error("system override not applied")
	}
	if req.Messages[1].Content != "pages: content" {
		t.Errorf("user override not rendered: %q", req.Messages[1].Content)
	}
}

func TestRepairPrompt(t *testing.T) {
	schema, _ := json.Marshal(map[string]any{"type": "object"})

	prompt := RepairPrompt(schema, "not json", errors.New("missing required field"))
	if !strings.Contains(prompt, "not json") || !strings.Contains(prompt, "missing required field") {
		t.Error("repair prompt should include previous output and the issue")
	}

	long := strings.Repeat("x", 20000)
	prompt = RepairPrompt(schema, long, errors.New("bad"))
	if !strings.Contains(prompt, "...[truncated]") {
		t.Error("long output should be truncated")
	}
}
