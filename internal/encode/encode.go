// Package encode turns the image references in question records into
// self-contained payloads: relative paths become Base64 file contents,
// and inline markdown or HTML image references become data URIs.
// The reverse direction, publishing embedded images to a hosting
// service, lives in publish.go.
package encode

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/daixun-ai/papercutter-vl/internal/markdown"
	"github.com/daixun-ai/papercutter-vl/internal/questions"
)

var mimeByExtension = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
}

// Encoder embeds image files into records. Repeated references to the
// same file are encoded once.
type Encoder struct {
	baseDir string
	cache   map[string]string
}

// NewEncoder creates an encoder resolving relative paths against baseDir.
func NewEncoder(baseDir string) *Encoder {
	return &Encoder{baseDir: baseDir, cache: make(map[string]string)}
}

// EncodeRecords replaces image path references in all records with
// Base64 file contents. Paths that are already URLs or data URIs, and
// paths whose file does not exist, are left unchanged.
func (e *Encoder) EncodeRecords(records []questions.Record) {
	for i := range records {
		e.encodeRecord(&records[i])
	}
}

func (e *Encoder) encodeRecord(r *questions.Record) {
	r.QuestionImages = e.encodePaths(r.QuestionImages)
	r.AnalysisImages = e.encodePaths(r.AnalysisImages)
	r.QuestionContent = e.InlineContentImages(r.QuestionContent)
	r.Answer = e.InlineContentImages(r.Answer)
	r.Resolve = e.InlineContentImages(r.Resolve)
	for i := range r.QuestionOptions {
		r.QuestionOptions[i] = e.InlineContentImages(r.QuestionOptions[i])
	}
	for i := range r.QuestionTables {
		r.QuestionTables[i] = e.InlineContentImages(r.QuestionTables[i])
	}
	for i := range r.SubQuestions {
		sq := &r.SubQuestions[i]
		if sq.Image != "" {
			sq.Image = e.encodePath(sq.Image)
		}
		sq.Question = e.InlineContentImages(sq.Question)
		for j := range sq.Option {
			sq.Option[j] = e.InlineContentImages(sq.Option[j])
		}
	}
}

func (e *Encoder) encodePaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = e.encodePath(p)
	}
	return out
}

// encodePath returns the raw Base64 file content for a relative image
// path, or the path unchanged when it is external or unreadable.
// The cache is keyed on the resolved path so different spellings of
// the same file encode once.
func (e *Encoder) encodePath(p string) string {
	if isExternal(p) {
		return p
	}

	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(e.baseDir, p)
	}
	full = filepath.Clean(full)
	if encoded, ok := e.cache[full]; ok {
		return encoded
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return p
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	e.cache[full] = encoded
	return encoded
}

// InlineContentImages rewrites markdown and HTML image references in
// text to data URIs so the text no longer depends on files on disk.
func (e *Encoder) InlineContentImages(text string) string {
	if text == "" || !strings.Contains(text, "(") && !strings.Contains(text, "<img") {
		return text
	}
	return markdown.RewriteImageRefs(text, func(ref string) string {
		full := ref
		if !filepath.IsAbs(full) {
			full = filepath.Join(e.baseDir, ref)
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return ""
		}
		mime, ok := mimeByExtension[strings.ToLower(filepath.Ext(ref))]
		if !ok {
			mime = "image/png"
		}
		return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
	})
}

// EncodeFile loads records from path, embeds their images relative to
// baseDir, and writes the result back to outPath.
func EncodeFile(path, baseDir, outPath string) error {
	records, err := questions.LoadRecords(path)
	if err != nil {
		return err
	}
	NewEncoder(baseDir).EncodeRecords(records)
	return questions.SaveRecords(outPath, records)
}

func isExternal(p string) bool {
	return strings.HasPrefix(p, "http://") ||
		strings.HasPrefix(p, "https://") ||
		strings.HasPrefix(p, "data:")
}
