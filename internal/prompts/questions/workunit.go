package questions

import (
	"encoding/json"

	"github.com/daixun-ai/papercutter-vl/internal/providers"
)

// Input contains the data needed for a question extraction request.
type Input struct {
	Markdown string // merged OCR markdown for one document or page

	// SystemPromptOverride replaces the embedded system prompt when set.
	SystemPromptOverride string

	// UserPromptOverride replaces the embedded user prompt template when set.
	UserPromptOverride string
}

// CreateChatRequest builds the structured extraction chat request.
// The caller sets Model, Timeout and RequestID as needed.
func CreateChatRequest(input Input) *providers.ChatRequest {
	systemPrompt := input.SystemPromptOverride
	if systemPrompt == "" {
		systemPrompt = SystemPrompt()
	}

	data := UserPromptData{Markdown: input.Markdown}
	userPrompt := UserPromptWithOverride(data, input.UserPromptOverride)

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: BuildResponseFormat(),
		Temperature:    0.1,
		MaxTokens:      8192,
	}
}

// BuildResponseFormat packages the extraction schema for providers.
func BuildResponseFormat() *providers.ResponseFormat {
	jsonSchema, _ := json.Marshal(ExtractionSchema["json_schema"])
	return &providers.ResponseFormat{
		Type:       "json_schema",
		JSONSchema: jsonSchema,
	}
}
