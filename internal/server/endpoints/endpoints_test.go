package endpoints

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/daixun-ai/papercutter-vl/internal/home"
	"github.com/daixun-ai/papercutter-vl/internal/llmcall"
	"github.com/daixun-ai/papercutter-vl/internal/metrics"
	"github.com/daixun-ai/papercutter-vl/internal/pipeline"
	"github.com/daixun-ai/papercutter-vl/internal/providers"
	"github.com/daixun-ai/papercutter-vl/internal/svcctx"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mockExtraction(t *testing.T) json.RawMessage {
	t.Helper()
	payload := map[string]any{
		"questions": []any{
			map[string]any{
				"question_id":      "1",
				"question_content": "计算 1+1",
				"question_type":    "计算题",
				"answer":           "2",
			},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// testServices builds a Services struct backed by mock providers
// and temp directories.
func testServices(t *testing.T) *svcctx.Services {
	t.Helper()

	dir, err := home.New(filepath.Join(t.TempDir(), ".papercutter"))
	if err != nil {
		t.Fatal(err)
	}
	if err := dir.EnsureExists(); err != nil {
		t.Fatal(err)
	}

	ocr := providers.NewMockOCRProvider()
	llm := providers.NewMockClient()
	llm.ResponseJSON = mockExtraction(t)

	registry := providers.NewRegistry()
	registry.RegisterOCR("mock-ocr", ocr)
	registry.RegisterLLM("mock-llm", llm)

	metricsRec := metrics.NewRecorder()
	pipe := pipeline.New(dir, registry, pipeline.Options{
		OCRProvider: "mock-ocr",
		LLMProvider: "mock-llm",
		Metrics:     metricsRec,
		Logger:      testLogger(),
	})

	return &svcctx.Services{
		Registry:     registry,
		Pipeline:     pipe,
		Logger:       testLogger(),
		Home:         dir,
		Metrics:      metricsRec,
		LLMCallStore: llmcall.NewStore(dir.LLMCallsPath()),
	}
}

// testServer wires all endpoints into an httptest server with the
// given services injected into each request context.
func testServer(t *testing.T, services *svcctx.Services) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	for _, ep := range All() {
		method, path, handler := ep.Route()
		mux.HandleFunc(method+" "+path, handler)
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(svcctx.WithServices(r.Context(), services)))
	})

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func multipartUpload(t *testing.T, url, field string, files map[string][]byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 100, 140))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestHealthEndpoint(t *testing.T) {
	ts := testServer(t, testServices(t))

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "ok" {
		t.Errorf("Status = %q, want %q", health.Status, "ok")
	}
}

func TestStatusEndpoint(t *testing.T) {
	ts := testServer(t, testServices(t))

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var status StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}

	if status.Server != "running" {
		t.Errorf("Server = %q, want %q", status.Server, "running")
	}
	if len(status.Providers.OCR) != 1 || status.Providers.OCR[0] != "mock-ocr" {
		t.Errorf("Providers.OCR = %v", status.Providers.OCR)
	}
	if len(status.Providers.LLM) != 1 || status.Providers.LLM[0] != "mock-llm" {
		t.Errorf("Providers.LLM = %v", status.Providers.LLM)
	}
}

func TestParseDocsEndpoint(t *testing.T) {
	services := testServices(t)
	ts := testServer(t, services)

	resp := multipartUpload(t, ts.URL+"/parse-docs", "files", map[string][]byte{
		"scan.png": pngBytes(t),
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	var parsed ParseDocsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatal(err)
	}

	if !parsed.Success {
		t.Errorf("Success = false, errors = %v", parsed.Errors)
	}
	if parsed.RequestID == "" {
		t.Error("expected a request ID")
	}
	if parsed.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", parsed.PageCount)
	}
	if len(parsed.Data) != 1 {
		t.Fatalf("got %d records, want 1", len(parsed.Data))
	}
	if parsed.Data[0].QuestionContent != "计算 1+1" {
		t.Errorf("unexpected record content: %q", parsed.Data[0].QuestionContent)
	}

	// Cleanup is deferred in the handler, so allow it a moment to run.
	uploadsDir := services.Home.RequestUploadsDir(parsed.RequestID)
	outDir := filepath.Join(services.Home.OutputPath(), parsed.RequestID)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, upErr := os.Stat(uploadsDir)
		_, outErr := os.Stat(outDir)
		if os.IsNotExist(upErr) && os.IsNotExist(outErr) {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if _, err := os.Stat(uploadsDir); !os.IsNotExist(err) {
		t.Errorf("uploads dir %s should be removed after the request", uploadsDir)
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Errorf("output dir %s should be removed after the request", outDir)
	}
}

func TestParseDocsEndpoint_BadRequests(t *testing.T) {
	ts := testServer(t, testServices(t))

	t.Run("no files", func(t *testing.T) {
		resp := multipartUpload(t, ts.URL+"/parse-docs", "other_field", map[string][]byte{
			"scan.png": pngBytes(t),
		})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("only unsupported files", func(t *testing.T) {
		resp := multipartUpload(t, ts.URL+"/parse-docs", "files", map[string][]byte{
			"notes.txt": []byte("hello"),
		})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("multiple PDFs", func(t *testing.T) {
		resp := multipartUpload(t, ts.URL+"/parse-docs", "files", map[string][]byte{
			"a.pdf": []byte("%PDF-1.4"),
			"b.pdf": []byte("%PDF-1.4"),
		})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("unsupported file becomes warning", func(t *testing.T) {
		resp := multipartUpload(t, ts.URL+"/parse-docs", "files", map[string][]byte{
			"scan.png":  pngBytes(t),
			"notes.txt": []byte("hello"),
		})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var parsed ParseDocsResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			t.Fatal(err)
		}
		if len(parsed.Warnings) != 1 {
			t.Fatalf("got %d warnings, want 1", len(parsed.Warnings))
		}
	})
}

func TestParseDocsEndpoint_PipelineFailure(t *testing.T) {
	services := testServices(t)

	// Point the pipeline at a provider name that is not registered
	services.Pipeline = pipeline.New(services.Home, services.Registry, pipeline.Options{
		OCRProvider: "missing",
		LLMProvider: "mock-llm",
		Logger:      testLogger(),
	})
	ts := testServer(t, services)

	resp := multipartUpload(t, ts.URL+"/parse-docs", "files", map[string][]byte{
		"scan.png": pngBytes(t),
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}

	var parsed ParseDocsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatal(err)
	}
	if parsed.Success {
		t.Error("Success = true for failed run")
	}
	if len(parsed.Errors) == 0 {
		t.Error("expected errors in response")
	}
}

func TestListLLMCallsEndpoint(t *testing.T) {
	services := testServices(t)

	rec := llmcall.NewRecorder(services.Home.LLMCallsPath(), testLogger())
	rec.RecordCall(&llmcall.Call{
		ID:        "call-1",
		Timestamp: time.Now().UTC(),
		RequestID: "req-1",
		Provider:  "mock-llm",
		Success:   true,
	})
	rec.RecordCall(&llmcall.Call{
		ID:        "call-2",
		Timestamp: time.Now().UTC(),
		RequestID: "req-2",
		Provider:  "mock-llm",
		Success:   false,
	})
	rec.Close()

	ts := testServer(t, services)

	t.Run("filter by request", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/llmcalls?request_id=req-1")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var list LLMCallsResponse
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			t.Fatal(err)
		}
		if list.Total != 1 {
			t.Fatalf("Total = %d, want 1", list.Total)
		}
		if list.Calls[0].ID != "call-1" {
			t.Errorf("ID = %q, want %q", list.Calls[0].ID, "call-1")
		}
	})

	t.Run("invalid filter", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/llmcalls?success=maybe")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("usage summary", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/llmcalls/usage")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var usage LLMCallUsageResponse
		if err := json.NewDecoder(resp.Body).Decode(&usage); err != nil {
			t.Fatal(err)
		}
		if usage.Summary.Calls != 2 {
			t.Errorf("Calls = %d, want 2", usage.Summary.Calls)
		}
		if usage.Summary.Failures != 1 {
			t.Errorf("Failures = %d, want 1", usage.Summary.Failures)
		}
	})
}

func TestMetricsSummaryEndpoint(t *testing.T) {
	services := testServices(t)
	services.Metrics.Record(metrics.Metric{
		RequestID: "req-1",
		Stage:     "ocr",
		Provider:  "mock-ocr",
		Success:   true,
	})
	services.Metrics.Record(metrics.Metric{
		RequestID: "req-1",
		Stage:     "extract",
		Provider:  "mock-llm",
		CostUSD:   0.02,
		Success:   true,
	})

	ts := testServer(t, services)

	resp, err := http.Get(ts.URL + "/api/metrics/summary?request_id=req-1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var summary MetricsSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}

	if summary.Summary.Count != 2 {
		t.Errorf("Count = %d, want 2", summary.Summary.Count)
	}
	if len(summary.Stages) != 2 {
		t.Fatalf("got %d stages, want 2", len(summary.Stages))
	}
	// Stages are sorted by name
	if summary.Stages[0].Stage != "extract" || summary.Stages[1].Stage != "ocr" {
		t.Errorf("unexpected stage order: %v, %v", summary.Stages[0].Stage, summary.Stages[1].Stage)
	}
}
