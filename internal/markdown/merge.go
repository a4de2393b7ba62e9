// Package markdown assembles per-page OCR output into a single document
// and tracks the image assets it references.
package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Page is one page of OCR output with paragraph continuation flags.
type Page struct {
	Text    string
	IsStart bool // page begins a new paragraph
	IsEnd   bool // page finishes its last paragraph
}

// MergePages concatenates per-page markdown into one document.
// Adjacent pages are joined without a paragraph break when the earlier page
// ends mid-paragraph and the later page continues it, so sentences split
// across page boundaries are stitched back together.
func MergePages(pages []Page) string {
	var b strings.Builder
	for i, page := range pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			if i > 0 && !pages[i-1].IsEnd && !page.IsStart {
				b.WriteString("\n")
			} else {
				b.WriteString("\n\n")
			}
		}
		b.WriteString(text)
	}
	return b.String()
}

// SaveAssets writes image assets under dir, preserving the relative paths
// referenced from the markdown text. Paths escaping dir are rejected.
func SaveAssets(dir string, assets map[string][]byte) error {
	for rel, data := range assets {
		clean := filepath.Clean(rel)
		if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
			return fmt.Errorf("asset path escapes output directory: %s", rel)
		}
		dest := filepath.Join(dir, clean)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("failed to create asset directory: %w", err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("failed to write asset %s: %w", rel, err)
		}
	}
	return nil
}

// Save writes the merged markdown document to path.
func Save(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	return nil
}
