package encode

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	dataURIPrefixPattern = regexp.MustCompile(`(?i)^data:image/.+;base64,`)
	dataURIPattern       = regexp.MustCompile(`(?i)^data:image/(png|jpe?g|gif|webp);base64,`)
	pureBase64Pattern    = regexp.MustCompile(`^[A-Za-z0-9+/=\s]{200,}$`)
	imgBase64Pattern     = regexp.MustCompile(`(?i)(<img[^>]+src=["'])(data:image/[^"']+|/9[^"']+)(["'])`)
)

// isPureBase64Image reports whether s looks like an unwrapped Base64
// JPEG. JPEG data always encodes with a /9 prefix.
func isPureBase64Image(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "/9") && pureBase64Pattern.MatchString(s)
}

// Uploader publishes embedded Base64 images to an image hosting
// endpoint, replacing them with the returned URLs. Identical payloads
// upload once and share the URL.
type Uploader struct {
	endpoint  string
	authToken string
	client    *http.Client
	cache     map[string]string
	logger    *slog.Logger
}

// NewUploader creates an uploader for the given hosting endpoint.
// authToken is sent as the AI-token header when set.
func NewUploader(endpoint, authToken string, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		endpoint:  endpoint,
		authToken: authToken,
		client:    &http.Client{Timeout: 60 * time.Second},
		cache:     make(map[string]string),
		logger:    logger,
	}
}

// Upload decodes a Base64 image (with or without a data URI prefix)
// and posts it as a multipart file, returning the hosted URL.
func (u *Uploader) Upload(base64Str string) (string, error) {
	pure := dataURIPrefixPattern.ReplaceAllString(base64Str, "")
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(pure))
	if err != nil {
		return "", fmt.Errorf("invalid base64 image: %w", err)
	}

	ext := extensionForImage(data)
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", uuid.New().String()+ext)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, u.endpoint, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if u.authToken != "" {
		req.Header.Set("AI-token", u.authToken)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("invalid upload response: %w", err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("upload response missing url")
	}

	return normalizeURL(result.URL), nil
}

// uploadCached uploads through the cache, returning "" on failure so
// callers can keep the original payload.
func (u *Uploader) uploadCached(base64Str string) string {
	if cached, ok := u.cache[base64Str]; ok {
		return cached
	}
	hosted, err := u.Upload(base64Str)
	if err != nil {
		u.logger.Warn("image upload failed, keeping embedded payload", "error", err)
		return ""
	}
	u.cache[base64Str] = hosted
	return hosted
}

// ReplaceInJSON walks arbitrary JSON and replaces every embedded
// Base64 image, bare or inside <img> tags, with a hosted URL.
func (u *Uploader) ReplaceInJSON(data []byte) ([]byte, error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("invalid JSON input: %w", err)
	}
	replaced := u.replaceValue(decoded)

	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(replaced); err != nil {
		return nil, err
	}
	return bytes.TrimRight(out.Bytes(), "\n"), nil
}

func (u *Uploader) replaceValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = u.replaceValue(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = u.replaceValue(item)
		}
		return val
	case string:
		return u.replaceString(val)
	default:
		return v
	}
}

func (u *Uploader) replaceString(s string) string {
	if strings.Contains(s, "<img") && (strings.Contains(s, "base64") || strings.HasPrefix(strings.TrimSpace(s), "/9")) {
		s = imgBase64Pattern.ReplaceAllStringFunc(s, func(match string) string {
			groups := imgBase64Pattern.FindStringSubmatch(match)
			if hosted := u.uploadCached(groups[2]); hosted != "" {
				return groups[1] + hosted + groups[3]
			}
			return match
		})
	}

	if dataURIPattern.MatchString(s) || isPureBase64Image(s) {
		if hosted := u.uploadCached(s); hosted != "" {
			return hosted
		}
	}
	return s
}

// PublishFile rewrites one JSON file, uploading its embedded images.
func (u *Uploader) PublishFile(inPath, outPath string) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", inPath, err)
	}
	replaced, err := u.ReplaceInJSON(data)
	if err != nil {
		return fmt.Errorf("failed to process %s: %w", inPath, err)
	}
	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(outPath, replaced, 0o644)
}

// PublishPath processes a single JSON file or every .json file under a
// directory, writing results to the mirrored path under outDir. When
// outDir is empty, files are rewritten in place. Returns the number of
// files processed.
func (u *Uploader) PublishPath(inPath, outDir string) (int, error) {
	info, err := os.Stat(inPath)
	if err != nil {
		return 0, err
	}

	if !info.IsDir() {
		out := inPath
		if outDir != "" {
			out = filepath.Join(outDir, filepath.Base(inPath))
		}
		if err := u.PublishFile(inPath, out); err != nil {
			return 0, err
		}
		return 1, nil
	}

	count := 0
	err = filepath.WalkDir(inPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		out := path
		if outDir != "" {
			rel, relErr := filepath.Rel(inPath, path)
			if relErr != nil {
				return relErr
			}
			out = filepath.Join(outDir, rel)
		}
		if err := u.PublishFile(path, out); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

// normalizeURL percent-encodes the path portion of a hosted URL so
// responses with spaces or unicode file names stay valid.
func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.String()
}

func extensionForImage(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ".jpg"
	}
}
