// Package ingest collects input documents into normalized page images.
// PDF inputs are rendered page by page; image inputs are cleaned up and
// copied as pages. The resulting page_NNNN.png sequence under the home
// directory feeds the OCR stage.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/daixun-ai/papercutter-vl/internal/home"
)

// Request contains the parameters for ingesting scan inputs.
type Request struct {
	Inputs     []string     // image and PDF paths, or directories of them
	DocID      string       // optional, generated when empty
	RenderDPI  int          // PDF render resolution, default 300
	MaxWorkers int          // concurrent page renders, default NumCPU
	Logger     *slog.Logger // optional logger for progress updates
}

// Result contains the result of a successful ingest operation.
type Result struct {
	DocID     string
	Stem      string // derived from the first input file name
	PageCount int
	PageDir   string
}

// Ingest renders and normalizes all inputs into sequential page images.
func Ingest(ctx context.Context, homeDir *home.Dir, req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}

	images, pdfs, err := Classify(req.Inputs)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 && len(pdfs) == 0 {
		return nil, fmt.Errorf("no images or PDFs found in inputs")
	}

	docID := req.DocID
	if docID == "" {
		docID = uuid.New().String()
	}
	if err := homeDir.EnsurePageImagesDir(docID); err != nil {
		return nil, fmt.Errorf("failed to create page directory: %w", err)
	}
	outDir := homeDir.PageImagesDir(docID)

	log.Info("starting ingest", "doc_id", docID, "images", len(images), "pdfs", len(pdfs))

	pageCount := 0
	for i, pdfPath := range sortPDFsByNumber(pdfs) {
		log.Debug("rendering PDF", "file", filepath.Base(pdfPath), "part", i+1, "of", len(pdfs))
		count, err := renderPDF(ctx, pdfPath, outDir, pageCount, req.RenderDPI, req.MaxWorkers)
		if err != nil {
			os.RemoveAll(outDir)
			return nil, fmt.Errorf("failed to render %s: %w", pdfPath, err)
		}
		pageCount += count
	}

	sort.Strings(images)
	for _, imgPath := range images {
		dst := homeDir.PageImagePath(docID, pageCount+1)
		if err := preparePageImage(imgPath, dst); err != nil {
			log.Warn("skipping unreadable image", "file", imgPath, "error", err)
			continue
		}
		pageCount++
	}

	if pageCount == 0 {
		os.RemoveAll(outDir)
		return nil, fmt.Errorf("no pages produced from inputs")
	}

	stem := deriveStem(firstInput(pdfs, images))
	log.Info("ingest complete", "doc_id", docID, "pages", pageCount)

	return &Result{
		DocID:     docID,
		Stem:      stem,
		PageCount: pageCount,
		PageDir:   outDir,
	}, nil
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".webp": true,
}

// IsImageFile reports whether the file name has a supported image extension.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// IsPDFFile reports whether the file name has a .pdf extension.
func IsPDFFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// Classify splits inputs into image and PDF paths. Directories are
// expanded one level deep in sorted order. Paths must exist.
func Classify(inputs []string) (images, pdfs []string, err error) {
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, nil, fmt.Errorf("input not found: %s", input)
		}

		if info.IsDir() {
			entries, err := os.ReadDir(input)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to read directory %s: %w", input, err)
			}
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				p := filepath.Join(input, e.Name())
				switch {
				case IsImageFile(e.Name()):
					images = append(images, p)
				case IsPDFFile(e.Name()):
					pdfs = append(pdfs, p)
				}
			}
			continue
		}

		switch {
		case IsImageFile(input):
			images = append(images, input)
		case IsPDFFile(input):
			pdfs = append(pdfs, input)
		default:
			return nil, nil, fmt.Errorf("unsupported input type: %s", input)
		}
	}
	return images, pdfs, nil
}

// sortPDFsByNumber sorts PDF paths by their numeric suffix.
// e.g., ["exam-2.pdf", "exam-1.pdf", "exam-10.pdf"] -> ["exam-1.pdf", "exam-2.pdf", "exam-10.pdf"]
func sortPDFsByNumber(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)

	re := regexp.MustCompile(`-(\d+)\.pdf$`)

	sort.Slice(sorted, func(i, j int) bool {
		mi := re.FindStringSubmatch(sorted[i])
		mj := re.FindStringSubmatch(sorted[j])

		if len(mi) > 1 && len(mj) > 1 {
			ni, _ := strconv.Atoi(mi[1])
			nj, _ := strconv.Atoi(mj[1])
			return ni < nj
		}

		// Files without numbers come first
		if len(mi) > 1 {
			return false
		}
		if len(mj) > 1 {
			return true
		}

		return sorted[i] < sorted[j]
	})

	return sorted
}

// deriveStem extracts a document name from a file path.
// e.g., "paper-1.pdf" -> "paper"
func deriveStem(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	re := regexp.MustCompile(`-\d+$`)
	return re.ReplaceAllString(name, "")
}

func firstInput(pdfs, images []string) string {
	if len(pdfs) > 0 {
		return sortPDFsByNumber(pdfs)[0]
	}
	if len(images) > 0 {
		return images[0]
	}
	return "document"
}
