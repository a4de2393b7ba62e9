package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/avast/retry-go/v4"

	"github.com/daixun-ai/papercutter-vl/internal/extract"
	"github.com/daixun-ai/papercutter-vl/internal/markdown"
	"github.com/daixun-ai/papercutter-vl/internal/metrics"
	"github.com/daixun-ai/papercutter-vl/internal/providers"
)

// ocrPages runs OCR over the page images concurrently, respecting the
// provider's rate limit, and returns pages in order plus the figure
// crops the provider extracted.
func (p *Pipeline) ocrPages(ctx context.Context, provider providers.OCRProvider, pagePaths []string, attr extract.Attribution) ([]markdown.Page, map[string][]byte, error) {
	limiter := providers.NewRateLimiterRPS(provider.RequestsPerSecond())

	type pageResult struct {
		pageNum int
		result  *providers.OCRResult
		err     error
	}

	results := make(chan pageResult, len(pagePaths))
	sem := make(chan struct{}, p.opts.MaxWorkers)

	for i, path := range pagePaths {
		sem <- struct{}{} // acquire
		go func(pageNum int, imagePath string) {
			defer func() { <-sem }() // release

			result, err := p.ocrPage(ctx, provider, limiter, imagePath, pageNum, attr)
			results <- pageResult{pageNum: pageNum, result: result, err: err}
		}(i+1, path)
	}

	pages := make([]markdown.Page, len(pagePaths))
	assets := make(map[string][]byte)
	for range pagePaths {
		r := <-results
		if r.err != nil {
			return nil, nil, fmt.Errorf("OCR failed on page %d: %w", r.pageNum, r.err)
		}

		pages[r.pageNum-1] = markdown.Page{
			Text:    r.result.Text,
			IsStart: r.result.IsStart,
			IsEnd:   r.result.IsEnd,
		}
		for name, data := range r.result.Images {
			assets[name] = data
		}
	}

	return pages, assets, nil
}

// ocrPage processes a single page with rate limiting and retries.
func (p *Pipeline) ocrPage(ctx context.Context, provider providers.OCRProvider, limiter *providers.RateLimiter, imagePath string, pageNum int, attr extract.Attribution) (*providers.OCRResult, error) {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read page image: %w", err)
	}

	itemKey := filepath.Base(imagePath)
	var result *providers.OCRResult

	attempts := uint(provider.MaxRetries())
	if attempts == 0 {
		attempts = 1
	}

	err = retry.Do(
		func() error {
			if err := limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}

			var ocrErr error
			result, ocrErr = provider.ProcessImage(ctx, image, pageNum)
			if p.opts.Metrics != nil {
				p.opts.Metrics.RecordOCRCall(metrics.RecordOpts{
					RequestID: attr.RequestID,
					DocID:     attr.DocID,
					Stage:     "ocr",
					ItemKey:   itemKey,
				}, provider.Name(), result)
			}
			return ocrErr
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(provider.RetryDelayBase()),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}
