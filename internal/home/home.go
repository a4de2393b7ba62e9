package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the papercutter home directory.
	DefaultDirName = ".papercutter"

	// UploadsDirName is the subdirectory for files received over HTTP.
	UploadsDirName = "uploads"

	// OutputDirName is the subdirectory for pipeline output.
	OutputDirName = "output"

	// LLMCallsDirName is the subdirectory for recorded LLM call logs.
	LLMCallsDirName = "llmcalls"

	// PromptsDirName is the subdirectory for prompt override files.
	PromptsDirName = "prompts"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the papercutter home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.papercutter).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// UploadsPath returns the path to the uploads directory.
func (d *Dir) UploadsPath() string {
	return filepath.Join(d.path, UploadsDirName)
}

// RequestUploadsDir returns the uploads directory for a single request.
func (d *Dir) RequestUploadsDir(requestID string) string {
	return filepath.Join(d.UploadsPath(), requestID)
}

// OutputPath returns the path to the output directory.
func (d *Dir) OutputPath() string {
	return filepath.Join(d.path, OutputDirName)
}

// LLMCallsPath returns the path to the LLM call log directory.
func (d *Dir) LLMCallsPath() string {
	return filepath.Join(d.path, LLMCallsDirName)
}

// PromptsPath returns the path to the prompt overrides directory.
func (d *Dir) PromptsPath() string {
	return filepath.Join(d.path, PromptsDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.UploadsPath(), d.OutputPath(), d.LLMCallsPath(), d.PromptsPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// EnsureRequestUploadsDir creates the uploads directory for a request.
func (d *Dir) EnsureRequestUploadsDir(requestID string) error {
	return os.MkdirAll(d.RequestUploadsDir(requestID), 0o755)
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// PageImagesDir returns the directory for rendered page images of a document.
func (d *Dir) PageImagesDir(docID string) string {
	return filepath.Join(d.path, "page_images", docID)
}

// PageImagePath returns the path to a specific page image.
// Page numbers are 1-indexed.
func (d *Dir) PageImagePath(docID string, pageNum int) string {
	return filepath.Join(d.PageImagesDir(docID), fmt.Sprintf("page_%04d.png", pageNum))
}

// PageImagePaths returns paths for all pages of a document.
func (d *Dir) PageImagePaths(docID string, pageCount int) []string {
	paths := make([]string, pageCount)
	for i := 1; i <= pageCount; i++ {
		paths[i-1] = d.PageImagePath(docID, i)
	}
	return paths
}

// EnsurePageImagesDir creates the page images directory for a document.
func (d *Dir) EnsurePageImagesDir(docID string) error {
	return os.MkdirAll(d.PageImagesDir(docID), 0o755)
}
