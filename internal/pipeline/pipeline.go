// Package pipeline orchestrates the document flow: ingest to page
// images, per-page OCR, markdown merge, question extraction, and
// record output with embedded images.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/daixun-ai/papercutter-vl/internal/encode"
	"github.com/daixun-ai/papercutter-vl/internal/extract"
	"github.com/daixun-ai/papercutter-vl/internal/home"
	"github.com/daixun-ai/papercutter-vl/internal/ingest"
	"github.com/daixun-ai/papercutter-vl/internal/llmcall"
	"github.com/daixun-ai/papercutter-vl/internal/markdown"
	"github.com/daixun-ai/papercutter-vl/internal/metrics"
	"github.com/daixun-ai/papercutter-vl/internal/prompts"
	"github.com/daixun-ai/papercutter-vl/internal/providers"
	"github.com/daixun-ai/papercutter-vl/internal/questions"
)

// Options selects providers and tuning for a pipeline.
type Options struct {
	OCRProvider string // provider name in the registry
	LLMProvider string
	LLMModel    string // empty uses the provider default
	MaxWorkers  int    // concurrent OCR pages, default 4
	RenderDPI   int    // PDF render resolution

	KeepAssets bool // also write cropped figure files next to the markdown

	Resolver *prompts.Resolver
	Calls    *llmcall.Recorder
	Metrics  *metrics.Recorder
	Logger   *slog.Logger
}

// Pipeline runs documents through OCR and extraction.
type Pipeline struct {
	home     *home.Dir
	registry *providers.Registry
	opts     Options
	logger   *slog.Logger
}

// New creates a pipeline over the given provider registry.
func New(homeDir *home.Dir, registry *providers.Registry, opts Options) *Pipeline {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 4
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{home: homeDir, registry: registry, opts: opts, logger: logger}
}

// RunResult describes one processed document.
type RunResult struct {
	DocID        string             `json:"doc_id"`
	Stem         string             `json:"stem"`
	PageCount    int                `json:"page_count"`
	MarkdownPath string             `json:"markdown_path"`
	RecordsPath  string             `json:"records_path"`
	Records      []questions.Record `json:"records"`
	Warnings     []string           `json:"warnings,omitempty"`
}

// Run processes one document (any mix of images and PDFs) into a
// merged markdown file and an extracted question record file under
// outDir. Path metadata from the first input is filled into every
// record, and image references are embedded as Base64.
func (p *Pipeline) Run(ctx context.Context, inputs []string, outDir string) (*RunResult, error) {
	ocrProvider, llmClient, err := p.resolveProviders()
	if err != nil {
		return nil, err
	}

	requestID := uuid.New().String()

	ing, err := ingest.Ingest(ctx, p.home, ingest.Request{
		Inputs:     inputs,
		RenderDPI:  p.opts.RenderDPI,
		MaxWorkers: p.opts.MaxWorkers,
		Logger:     p.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("ingest failed: %w", err)
	}
	defer os.RemoveAll(ing.PageDir)

	attr := extract.Attribution{DocID: ing.DocID, RequestID: requestID}
	pages, assets, err := p.ocrPages(ctx, ocrProvider, p.home.PageImagePaths(ing.DocID, ing.PageCount), attr)
	if err != nil {
		return nil, err
	}

	merged := markdown.MergePages(pages)
	if merged == "" {
		return nil, fmt.Errorf("OCR produced no text for %s", ing.Stem)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	mdPath := filepath.Join(outDir, ing.Stem+".md")
	if err := markdown.Save(mdPath, merged); err != nil {
		return nil, err
	}
	if err := markdown.SaveAssets(outDir, assets); err != nil {
		return nil, fmt.Errorf("failed to save figure crops: %w", err)
	}

	records, err := p.extractRecords(ctx, llmClient, merged, attr)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		DocID:        ing.DocID,
		Stem:         ing.Stem,
		PageCount:    ing.PageCount,
		MarkdownPath: mdPath,
		Records:      records,
	}

	p.fillPathMetadata(records, inputs[0])
	encode.NewEncoder(outDir).EncodeRecords(records)

	result.RecordsPath = filepath.Join(outDir, ing.Stem+".json")
	if err := questions.SaveRecords(result.RecordsPath, records); err != nil {
		return nil, err
	}
	if !p.opts.KeepAssets {
		p.removeAssets(outDir, assets)
	}

	p.logger.Info("document processed",
		"doc_id", ing.DocID, "pages", ing.PageCount, "questions", len(records))
	return result, nil
}

// RunPerImage processes every image input independently, writing one
// <stem>.json next to each image. Failed images are reported as
// warnings without aborting the rest.
func (p *Pipeline) RunPerImage(ctx context.Context, inputs []string) ([]RunResult, error) {
	images, pdfs, err := ingest.Classify(inputs)
	if err != nil {
		return nil, err
	}
	if len(pdfs) > 0 {
		return nil, fmt.Errorf("per-image mode accepts only images, got %d PDFs", len(pdfs))
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no images found in inputs")
	}

	var results []RunResult
	for _, imgPath := range images {
		outDir := filepath.Dir(imgPath)
		res, err := p.Run(ctx, []string{imgPath}, outDir)
		if err != nil {
			p.logger.Error("image failed", "file", imgPath, "error", err)
			results = append(results, RunResult{
				Stem:     stemOf(imgPath),
				Warnings: []string{err.Error()},
			})
			continue
		}

		// Per-image mode keeps only the JSON next to the image.
		os.Remove(res.MarkdownPath)
		res.MarkdownPath = ""
		results = append(results, *res)
	}
	return results, nil
}

func (p *Pipeline) resolveProviders() (providers.OCRProvider, providers.LLMClient, error) {
	ocrProvider, err := p.registry.GetOCR(p.opts.OCRProvider)
	if err != nil {
		return nil, nil, fmt.Errorf("OCR provider not configured: %s", p.opts.OCRProvider)
	}
	llmClient, err := p.registry.GetLLM(p.opts.LLMProvider)
	if err != nil {
		return nil, nil, fmt.Errorf("LLM provider not configured: %s", p.opts.LLMProvider)
	}
	return ocrProvider, llmClient, nil
}

func (p *Pipeline) extractRecords(ctx context.Context, client providers.LLMClient, merged string, attr extract.Attribution) ([]questions.Record, error) {
	extractor := extract.New(client, extract.Options{
		Model:    p.opts.LLMModel,
		Resolver: p.opts.Resolver,
		Calls:    p.opts.Calls,
		Metrics:  p.opts.Metrics,
		Logger:   p.logger,
	})
	records, err := extractor.Extract(ctx, merged, attr)
	if err != nil {
		return nil, fmt.Errorf("question extraction failed: %w", err)
	}
	return records, nil
}

func (p *Pipeline) fillPathMetadata(records []questions.Record, input string) {
	abs, err := filepath.Abs(input)
	if err != nil {
		abs = input
	}
	questions.ExtractFromPath(abs).Apply(records)
}

// removeAssets deletes figure crops once their content is embedded in
// the record file.
func (p *Pipeline) removeAssets(outDir string, assets map[string][]byte) {
	for name := range assets {
		os.Remove(filepath.Join(outDir, filepath.FromSlash(name)))
	}
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
