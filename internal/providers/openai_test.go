package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func chatCompletionResponse(content string) map[string]any {
	return map[string]any{
		"id":    "chatcmpl-test",
		"model": "qwen-max",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     100,
			"completion_tokens": 50,
			"total_tokens":      150,
		},
	}
}

func TestOpenAIChatClient_Chat(t *testing.T) {
	t.Run("plain completion", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
				t.Errorf("unexpected authorization: %s", auth)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(chatCompletionResponse("hello there"))
		}))
		defer server.Close()

		client := NewOpenAIChatClient(OpenAIChatConfig{
			APIKey:  "test-key",
			BaseURL: server.URL,
		})

		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{
				{Role: "system", Content: "You are a helpful assistant."},
				{Role: "user", Content: "Say hello."},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Success {
			t.Errorf("expected success: %s", result.ErrorMessage)
		}
		if result.Content != "hello there" {
			t.Errorf("unexpected content: %s", result.Content)
		}
		if result.PromptTokens != 100 || result.CompletionTokens != 50 {
			t.Errorf("unexpected token counts: %d/%d", result.PromptTokens, result.CompletionTokens)
		}
		if result.Provider != OpenAIChatName {
			t.Errorf("unexpected provider: %s", result.Provider)
		}
	})

	t.Run("structured output parsed and validated", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(chatCompletionResponse("```json\n{\"answer\": \"42\"}\n```"))
		}))
		defer server.Close()

		client := NewOpenAIChatClient(OpenAIChatConfig{APIKey: "k", BaseURL: server.URL})

		schema := json.RawMessage(`{
			"name": "test_schema",
			"strict": true,
			"schema": {
				"type": "object",
				"properties": {"answer": {"type": "string"}},
				"required": ["answer"]
			}
		}`)

		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages:       []Message{{Role: "user", Content: "extract"}},
			ResponseFormat: &ResponseFormat{Type: "json_schema", JSONSchema: schema},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Success {
			t.Fatalf("expected success: %s", result.ErrorMessage)
		}

		var parsed map[string]string
		if err := json.Unmarshal(result.ParsedJSON, &parsed); err != nil {
			t.Fatalf("failed to parse result JSON: %v", err)
		}
		if parsed["answer"] != "42" {
			t.Errorf("unexpected parsed value: %v", parsed)
		}
	})

	t.Run("schema validation failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(chatCompletionResponse(`{"answer": 42}`))
		}))
		defer server.Close()

		client := NewOpenAIChatClient(OpenAIChatConfig{APIKey: "k", BaseURL: server.URL})

		schema := json.RawMessage(`{
			"name": "test_schema",
			"schema": {
				"type": "object",
				"properties": {"answer": {"type": "string"}},
				"required": ["answer"]
			}
		}`)

		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages:       []Message{{Role: "user", Content: "extract"}},
			ResponseFormat: &ResponseFormat{Type: "json_schema", JSONSchema: schema},
		})
		if err != nil {
			t.Fatalf("unexpected transport error: %v", err)
		}
		if result.Success {
			t.Error("expected validation failure")
		}
		if result.ErrorType != "schema_validation" {
			t.Errorf("unexpected error type: %s", result.ErrorType)
		}
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": {"message": "model overloaded"}}`, http.StatusBadRequest)
		}))
		defer server.Close()

		client := NewOpenAIChatClient(OpenAIChatConfig{APIKey: "k", BaseURL: server.URL})

		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "hi"}},
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if result.Success {
			t.Error("expected failure result")
		}
		if result.ErrorType != "http_error" {
			t.Errorf("unexpected error type: %s", result.ErrorType)
		}
	})
}

func TestOpenAIChatClient_Defaults(t *testing.T) {
	client := NewOpenAIChatClient(OpenAIChatConfig{APIKey: "k"})

	if client.Name() != OpenAIChatName {
		t.Errorf("unexpected name: %s", client.Name())
	}
	if client.RequestsPerSecond() != 2.0 {
		t.Errorf("unexpected RPS: %f", client.RequestsPerSecond())
	}
	if client.MaxRetries() != 3 {
		t.Errorf("unexpected max retries: %d", client.MaxRetries())
	}
}
