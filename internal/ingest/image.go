package ingest

import (
	"fmt"

	"github.com/disintegration/imaging"
)

// maxPageDimension caps page images before OCR. Vision OCR quality
// plateaus above this while request size keeps growing.
const maxPageDimension = 2500

// preparePageImage normalizes one input image into a page PNG:
// EXIF orientation is applied and oversized scans are downscaled.
func preparePageImage(srcPath, dstPath string) error {
	img, err := imaging.Open(srcPath, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > maxPageDimension || height > maxPageDimension {
		if width > height {
			img = imaging.Resize(img, maxPageDimension, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxPageDimension, imaging.Lanczos)
		}
	}

	if err := imaging.Save(img, dstPath); err != nil {
		return fmt.Errorf("failed to save page image: %w", err)
	}
	return nil
}
