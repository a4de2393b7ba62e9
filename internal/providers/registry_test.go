package providers

import (
	"testing"
)

func testRegistryConfig() RegistryConfig {
	return RegistryConfig{
		OCRProviders: map[string]OCRProviderConfig{
			"paddle": {
				Type:      "paddleocr-vl",
				BaseURL:   "http://localhost:8080",
				RateLimit: 4,
				Enabled:   true,
			},
			"mistral": {
				Type:      "mistral-ocr",
				APIKey:    "mistral-key",
				RateLimit: 6,
				Enabled:   false,
			},
		},
		LLMProviders: map[string]LLMProviderConfig{
			"qwen": {
				Type:      "openai",
				Model:     "qwen-max",
				BaseURL:   "https://example.com/v1",
				APIKey:    "qwen-key",
				RateLimit: 2,
				Enabled:   true,
			},
		},
	}
}

func TestNewRegistryFromConfig(t *testing.T) {
	r := NewRegistryFromConfig(testRegistryConfig())

	if !r.HasOCR("paddle") {
		t.Error("expected paddle OCR provider to be registered")
	}
	if r.HasOCR("mistral") {
		t.Error("disabled provider should not be registered")
	}
	if !r.HasLLM("qwen") {
		t.Error("expected qwen LLM client to be registered")
	}

	ocr, err := r.GetOCR("paddle")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ocr.Name() != PaddleOCRVLName {
		t.Errorf("unexpected provider name: %s", ocr.Name())
	}

	llm, err := r.GetLLM("qwen")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if llm.Name() != OpenAIChatName {
		t.Errorf("unexpected client name: %s", llm.Name())
	}
}

func TestRegistry_GetMissing(t *testing.T) {
	r := NewRegistry()

	if _, err := r.GetOCR("nope"); err == nil {
		t.Error("expected error for missing OCR provider")
	}
	if _, err := r.GetLLM("nope"); err == nil {
		t.Error("expected error for missing LLM client")
	}
}

func TestRegistry_Reload(t *testing.T) {
	cfg := testRegistryConfig()
	r := NewRegistryFromConfig(cfg)

	t.Run("enable previously disabled provider", func(t *testing.T) {
		mistral := cfg.OCRProviders["mistral"]
		mistral.Enabled = true
		cfg.OCRProviders["mistral"] = mistral

		r.Reload(cfg)

		if !r.HasOCR("mistral") {
			t.Error("expected mistral to be registered after reload")
		}
	})

	t.Run("remove provider from config", func(t *testing.T) {
		delete(cfg.OCRProviders, "mistral")
		r.Reload(cfg)

		if r.HasOCR("mistral") {
			t.Error("expected mistral to be unregistered after reload")
		}
		if !r.HasOCR("paddle") {
			t.Error("paddle should survive reload")
		}
	})

	t.Run("changed settings recreate client", func(t *testing.T) {
		before, _ := r.GetLLM("qwen")

		qwen := cfg.LLMProviders["qwen"]
		qwen.Model = "qwen-plus"
		cfg.LLMProviders["qwen"] = qwen
		r.Reload(cfg)

		after, err := r.GetLLM("qwen")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if before == after {
			t.Error("expected client to be recreated on model change")
		}
	})

	t.Run("unchanged settings keep client", func(t *testing.T) {
		before, _ := r.GetOCR("paddle")
		r.Reload(cfg)
		after, _ := r.GetOCR("paddle")
		if before != after {
			t.Error("expected provider instance to be reused when unchanged")
		}
	})
}

func TestRegistry_RegisterDirect(t *testing.T) {
	r := NewRegistry()

	mock := NewMockClient()
	r.RegisterLLM("mock", mock)
	r.RegisterOCR("mock-ocr", NewMockOCRProvider())

	if got := len(r.ListLLM()); got != 1 {
		t.Errorf("expected 1 LLM client, got %d", got)
	}
	if got := len(r.ListOCR()); got != 1 {
		t.Errorf("expected 1 OCR provider, got %d", got)
	}
}

func TestCreateProvider_UnknownType(t *testing.T) {
	if c := createLLMClient(LLMProviderConfig{Type: "bogus", Enabled: true}); c != nil {
		t.Error("expected nil for unknown LLM type")
	}
	if p := createOCRProvider(OCRProviderConfig{Type: "bogus", Enabled: true}); p != nil {
		t.Error("expected nil for unknown OCR type")
	}
}
