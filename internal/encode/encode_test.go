package encode

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/daixun-ai/papercutter-vl/internal/questions"
)

func TestEncoder_EncodeRecords(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "imgs"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := []byte("fake png bytes")
	if err := os.WriteFile(filepath.Join(dir, "imgs", "fig1.png"), content, 0o644); err != nil {
		t.Fatal(err)
	}
	wantB64 := base64.StdEncoding.EncodeToString(content)

	records := []questions.Record{
		{
			QuestionContent: "如图，求阴影面积 ![图1](imgs/fig1.png)",
			QuestionImages:  []string{"imgs/fig1.png", "https://example.com/x.png", "imgs/missing.png"},
			AnalysisImages:  []string{"imgs/fig1.png"},
			SubQuestions: []questions.SubQuestion{
				{QuestionID: "(1)", Image: "imgs/fig1.png"},
			},
		},
	}

	NewEncoder(dir).EncodeRecords(records)

	r := records[0]
	if r.QuestionImages[0] != wantB64 {
		t.Error("relative path should be replaced with base64 content")
	}
	if r.QuestionImages[1] != "https://example.com/x.png" {
		t.Error("external URL should be left unchanged")
	}
	if r.QuestionImages[2] != "imgs/missing.png" {
		t.Error("missing file should be left unchanged")
	}
	if r.AnalysisImages[0] != wantB64 {
		t.Error("analysis image should be encoded")
	}
	if r.SubQuestions[0].Image != wantB64 {
		t.Error("sub-question image should be encoded")
	}
	if !strings.Contains(r.QuestionContent, "data:image/png;base64,"+wantB64) {
		t.Errorf("inline markdown image should become a data URI: %q", r.QuestionContent)
	}
}

func TestEncoder_EncodeRecords_AllTextFields(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "imgs"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := []byte("fake png bytes")
	if err := os.WriteFile(filepath.Join(dir, "imgs", "fig.png"), content, 0o644); err != nil {
		t.Fatal(err)
	}
	wantURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(content)

	records := []questions.Record{
		{
			QuestionContent: "选出正确的图形",
			QuestionOptions: []string{"A. ![甲](imgs/fig.png)", "B. 无图"},
			QuestionTables:  []string{`<table><tr><td><img src="imgs/fig.png"/></td></tr></table>`},
			Answer:          "如图所示 ![答案图](imgs/fig.png)",
			Resolve:         "见图 ![解析图](imgs/fig.png)",
			SubQuestions: []questions.SubQuestion{
				{
					QuestionID: "(1)",
					Question:   "观察 ![小图](imgs/fig.png)",
					Option:     []string{"A. ![选项图](imgs/fig.png)"},
				},
			},
		},
	}

	NewEncoder(dir).EncodeRecords(records)

	r := records[0]
	checks := map[string]string{
		"option":              r.QuestionOptions[0],
		"table":               r.QuestionTables[0],
		"answer":              r.Answer,
		"resolve":             r.Resolve,
		"sub-question text":   r.SubQuestions[0].Question,
		"sub-question option": r.SubQuestions[0].Option[0],
	}
	for field, got := range checks {
		if !strings.Contains(got, wantURI) {
			t.Errorf("%s should carry an inlined data URI, got %q", field, got)
		}
	}
	if r.QuestionOptions[1] != "B. 无图" {
		t.Errorf("option without image should be unchanged, got %q", r.QuestionOptions[1])
	}
}

func TestEncoder_PathCacheResolvesSpellings(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "imgs"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := []byte("shared image")
	if err := os.WriteFile(filepath.Join(dir, "imgs", "a.png"), content, 0o644); err != nil {
		t.Fatal(err)
	}
	want := base64.StdEncoding.EncodeToString(content)

	e := NewEncoder(dir)
	spellings := []string{
		"imgs/a.png",
		"./imgs/a.png",
		filepath.Join(dir, "imgs", "a.png"),
	}
	for _, p := range spellings {
		if got := e.encodePath(p); got != want {
			t.Errorf("encodePath(%q) = %q, want base64 content", p, got)
		}
	}
	if len(e.cache) != 1 {
		t.Errorf("expected one cache entry for one file, got %d", len(e.cache))
	}
}

func TestEncoder_InlineContentImages(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "photo.jpg"), []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	e := NewEncoder(dir)

	t.Run("html img tag", func(t *testing.T) {
		out := e.InlineContentImages(`<table><tr><td><img src="photo.jpg"/></td></tr></table>`)
		if !strings.Contains(out, "data:image/jpeg;base64,") {
			t.Errorf("expected data URI, got %q", out)
		}
	})

	t.Run("missing file keeps reference", func(t *testing.T) {
		in := "![x](gone.png)"
		if out := e.InlineContentImages(in); out != in {
			t.Errorf("expected unchanged text, got %q", out)
		}
	})

	t.Run("plain text untouched", func(t *testing.T) {
		if out := e.InlineContentImages("求 $x$ 的值"); out != "求 $x$ 的值" {
			t.Errorf("unexpected rewrite: %q", out)
		}
	})
}

func TestEncodeFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.png"), []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.json")
	if err := questions.SaveRecords(in, []questions.Record{
		{QuestionContent: "q", QuestionImages: []string{"a.png"}},
	}); err != nil {
		t.Fatal(err)
	}

	if err := EncodeFile(in, dir, out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := questions.LoadRecords(out)
	if err != nil {
		t.Fatal(err)
	}
	if records[0].QuestionImages[0] != base64.StdEncoding.EncodeToString([]byte("img")) {
		t.Error("encoded file should carry base64 image content")
	}
}
