package endpoints

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/daixun-ai/papercutter-vl/internal/api"
	"github.com/daixun-ai/papercutter-vl/internal/ingest"
	"github.com/daixun-ai/papercutter-vl/internal/questions"
	"github.com/daixun-ai/papercutter-vl/internal/svcctx"
)

// ParseDocsResponse is the response for the parse-docs endpoint.
type ParseDocsResponse struct {
	Success   bool               `json:"success"`
	RequestID string             `json:"request_id"`
	PageCount int                `json:"page_count,omitempty"`
	Data      []questions.Record `json:"data"`
	Warnings  []string           `json:"warnings,omitempty"`
	Errors    []string           `json:"errors,omitempty"`
}

// ParseDocsEndpoint handles POST /parse-docs with multipart file upload.
// Uploaded page images and PDFs are run through the full pipeline and the
// extracted question records are returned in the response.
type ParseDocsEndpoint struct{}

var _ api.Endpoint = (*ParseDocsEndpoint)(nil)

func (e *ParseDocsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/parse-docs", e.handler
}

func (e *ParseDocsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Parse uploaded exam documents
//	@Description	Upload page images and/or PDFs, OCR them, and extract question records
//	@Tags			parse
//	@Accept			mpfd
//	@Produce		json
//	@Param			files	formData	file	true	"Page images (png/jpg/bmp/webp) or PDFs"
//	@Success		200		{object}	ParseDocsResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/parse-docs [post]
func (e *ParseDocsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	// Parse multipart form with 500MB max memory
	const maxMemory = 500 << 20 // 500MB
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	// Unsupported names are skipped with a warning; a request may carry
	// at most one PDF so the page order stays unambiguous.
	var accepted []*multipart.FileHeader
	var warnings []string
	pdfCount := 0
	for _, fh := range files {
		switch {
		case ingest.IsPDFFile(fh.Filename):
			pdfCount++
			accepted = append(accepted, fh)
		case ingest.IsImageFile(fh.Filename):
			accepted = append(accepted, fh)
		default:
			warnings = append(warnings, fmt.Sprintf("skipped unsupported file %s", fh.Filename))
		}
	}
	if pdfCount > 1 {
		writeError(w, http.StatusBadRequest, "at most one PDF per request")
		return
	}
	if len(accepted) == 0 {
		writeError(w, http.StatusBadRequest, "no supported image or PDF files uploaded")
		return
	}

	pipe := svcctx.PipelineFrom(r.Context())
	if pipe == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline not initialized")
		return
	}

	homeDir := svcctx.HomeFrom(r.Context())
	if homeDir == nil {
		writeError(w, http.StatusServiceUnavailable, "home directory not initialized")
		return
	}

	requestID := uuid.NewString()

	uploadsDir := homeDir.RequestUploadsDir(requestID)
	if err := homeDir.EnsureRequestUploadsDir(requestID); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create uploads dir: %v", err))
		return
	}
	defer os.RemoveAll(uploadsDir)

	inputs, err := saveUploadedFiles(accepted, uploadsDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The response carries the records, so the per-request output
	// directory is removed once the handler is done with it.
	outDir := filepath.Join(homeDir.OutputPath(), requestID)
	defer os.RemoveAll(outDir)
	result, err := pipe.Run(r.Context(), inputs, outDir)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ParseDocsResponse{
			Success:   false,
			RequestID: requestID,
			Data:      []questions.Record{},
			Errors:    []string{err.Error()},
		})
		return
	}

	records := result.Records
	if records == nil {
		records = []questions.Record{}
	}

	writeJSON(w, http.StatusOK, ParseDocsResponse{
		Success:   true,
		RequestID: requestID,
		PageCount: result.PageCount,
		Data:      records,
		Warnings:  append(warnings, result.Warnings...),
	})
}

// saveUploadedFiles writes multipart files into destDir and returns their paths.
func saveUploadedFiles(files []*multipart.FileHeader, destDir string) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded file %s: %w", fh.Filename, err)
		}

		destPath := filepath.Join(destDir, filepath.Base(fh.Filename))
		dst, err := os.Create(destPath)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("failed to create %s: %w", destPath, err)
		}

		_, err = io.Copy(dst, src)
		src.Close()
		dst.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", fh.Filename, err)
		}
		paths = append(paths, destPath)
	}
	return paths, nil
}

func (e *ParseDocsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "parse-docs <file>...",
		Short: "Upload documents for parsing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ParseDocsResponse
			if err := client.PostFiles(cmd.Context(), "/parse-docs", "files", args, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
