package markdown

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// OCR output mixes markdown image syntax with raw <img> tags (tables and
// figures inside HTML blocks), so both forms are handled here.
var (
	htmlImgPattern     = regexp.MustCompile(`(<img\b[^>]*\bsrc=")([^"]+)("[^>]*>)`)
	markdownImgPattern = regexp.MustCompile(`(!\[[^\]]*\]\()([^)\s]+)(\))`)
)

// ImageRefs returns every image path referenced from the markdown text,
// in document order, without duplicates. Data URIs and absolute URLs are
// skipped since they need no asset on disk.
func ImageRefs(source string) []string {
	var refs []string
	seen := make(map[string]struct{})

	add := func(ref string) {
		ref = strings.TrimSpace(ref)
		if ref == "" || isExternalRef(ref) {
			return
		}
		if _, ok := seen[ref]; ok {
			return
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}

	// Markdown image nodes via the AST
	src := []byte(source)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if img, ok := n.(*ast.Image); ok {
			add(string(img.Destination))
		}
		return ast.WalkContinue, nil
	})

	// Raw <img> tags (goldmark treats these as opaque HTML)
	for _, m := range htmlImgPattern.FindAllStringSubmatch(source, -1) {
		add(m[2])
	}

	return refs
}

// RewriteImageRefs replaces every local image reference using fn.
// Returning an empty string keeps the original reference.
func RewriteImageRefs(source string, fn func(ref string) string) string {
	rewrite := func(prefix, ref, suffix string) string {
		if isExternalRef(ref) {
			return prefix + ref + suffix
		}
		if replacement := fn(ref); replacement != "" {
			return prefix + replacement + suffix
		}
		return prefix + ref + suffix
	}

	out := markdownImgPattern.ReplaceAllStringFunc(source, func(m string) string {
		parts := markdownImgPattern.FindStringSubmatch(m)
		return rewrite(parts[1], parts[2], parts[3])
	})
	out = htmlImgPattern.ReplaceAllStringFunc(out, func(m string) string {
		parts := htmlImgPattern.FindStringSubmatch(m)
		return rewrite(parts[1], parts[2], parts[3])
	})
	return out
}

func isExternalRef(ref string) bool {
	return strings.HasPrefix(ref, "data:") ||
		strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://")
}
