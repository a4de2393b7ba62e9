// Package prompts manages the prompt text used by extraction stages.
//
// Embedded .tmpl files in each stage package are the source of truth
// for defaults. A prompts/ directory under the home directory can
// override any prompt by key: a file named <key>.tmpl replaces the
// embedded default at resolution time.
package prompts

// EmbeddedPrompt is a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: stages.questions.system
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}

// ResolvedPrompt is the result of resolving a prompt key.
type ResolvedPrompt struct {
	Key        string   `json:"key"`
	Text       string   `json:"text"`
	Variables  []string `json:"variables,omitempty"`
	IsOverride bool     `json:"is_override"` // true if loaded from an override file
}
