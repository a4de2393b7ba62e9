package questions

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RenameOptions controls sequential image renaming.
type RenameOptions struct {
	Prefix     string // e.g. "img" produces img_0001.jpg; empty produces 0001.jpg
	StartIndex int    // first index, default 1
	Digits     int    // zero-padded width, default 4
	Extensions []string
}

var defaultImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".webp"}

// RenameImages renames every image in dir to a stable sequential name,
// keeping the original extension. Files are processed in sorted order so
// repeated runs are deterministic. Returns the number of files renamed.
func RenameImages(dir string, opts RenameOptions) (int, error) {
	if opts.StartIndex == 0 {
		opts.StartIndex = 1
	}
	if opts.Digits == 0 {
		opts.Digits = 4
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = defaultImageExtensions
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if hasImageExtension(e.Name(), opts.Extensions) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	renamed := 0
	for i, name := range files {
		ext := filepath.Ext(name)
		index := opts.StartIndex + i

		var newName string
		if opts.Prefix != "" {
			newName = fmt.Sprintf("%s_%0*d%s", opts.Prefix, opts.Digits, index, ext)
		} else {
			newName = fmt.Sprintf("%0*d%s", opts.Digits, index, ext)
		}

		if name == newName {
			continue
		}
		oldPath := filepath.Join(dir, name)
		newPath := filepath.Join(dir, newName)
		if err := os.Rename(oldPath, newPath); err != nil {
			return renamed, fmt.Errorf("failed to rename %s: %w", name, err)
		}
		renamed++
	}

	return renamed, nil
}

func hasImageExtension(name string, extensions []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
