package questions

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractFromPath(t *testing.T) {
	t.Run("full curriculum path", func(t *testing.T) {
		path := filepath.Join("/home/datasets/中考真题/广东省", "数学", "八年级", "北师大版", "上册", "第二章 实数", "2 平方根与立方根", "records.json")
		meta := ExtractFromPath(path)

		if meta.Grade != "8" {
			t.Errorf("expected grade 8, got %q", meta.Grade)
		}
		if meta.Volume != "上册" {
			t.Errorf("expected volume 上册, got %q", meta.Volume)
		}
		if meta.Chapter != "第二章 实数" {
			t.Errorf("expected chapter, got %q", meta.Chapter)
		}
		if meta.Section != "2 平方根与立方根" {
			t.Errorf("expected section, got %q", meta.Section)
		}
		if meta.Subject != "数学" {
			t.Errorf("expected subject 数学, got %q", meta.Subject)
		}
	})

	t.Run("english unit and section directories", func(t *testing.T) {
		path := filepath.Join("/data", "英语", "七年级", "下册", "Unit 3 The seasons", "Section A", "records.json")
		meta := ExtractFromPath(path)

		if meta.Grade != "7" {
			t.Errorf("expected grade 7, got %q", meta.Grade)
		}
		if meta.Chapter != "Unit 3 The seasons" {
			t.Errorf("expected unit chapter, got %q", meta.Chapter)
		}
		if meta.Section != "Section A" {
			t.Errorf("expected section A, got %q", meta.Section)
		}
	})

	t.Run("file name is ignored", func(t *testing.T) {
		// The file name itself looks like a section but must not match.
		meta := ExtractFromPath(filepath.Join("/data", "语文", "1 某个章节.json"))
		if meta.Section != "" {
			t.Errorf("expected empty section, got %q", meta.Section)
		}
		if meta.Subject != "语文" {
			t.Errorf("expected subject 语文, got %q", meta.Subject)
		}
	})

	t.Run("unrelated path yields empty metadata", func(t *testing.T) {
		meta := ExtractFromPath("/tmp/some/random/output.json")
		if meta != (PathMeta{}) {
			t.Errorf("expected empty metadata, got %+v", meta)
		}
	})
}

func TestPathMeta_Apply(t *testing.T) {
	records := []Record{
		{QuestionContent: "q1", Grade: "stale", Subject: "stale"},
		{QuestionContent: "q2"},
	}

	meta := PathMeta{Grade: "9", Subject: "物理"}
	meta.Apply(records)

	for i, r := range records {
		if r.Grade != "9" {
			t.Errorf("record %d: expected grade overwritten, got %q", i, r.Grade)
		}
		if r.Subject != "物理" {
			t.Errorf("record %d: expected subject overwritten, got %q", i, r.Subject)
		}
		// Empty metadata fields leave record values alone
		if r.Volume != "" {
			t.Errorf("record %d: volume should stay empty", i)
		}
	}
}

func TestFillPath(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "数学", "九年级", "上册", "第三章 概率初步", "1 感受可能性")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	recordsPath := filepath.Join(nested, "records.json")
	if err := SaveRecords(recordsPath, []Record{{QuestionContent: "求概率"}}); err != nil {
		t.Fatal(err)
	}
	// A non-JSON file to be skipped
	if err := os.WriteFile(filepath.Join(nested, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	filled, err := FillPath(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filled != 1 {
		t.Errorf("expected 1 file filled, got %d", filled)
	}

	records, err := LoadRecords(recordsPath)
	if err != nil {
		t.Fatal(err)
	}
	r := records[0]
	if r.Grade != "9" || r.Subject != "数学" || r.Volume != "上册" {
		t.Errorf("metadata not applied: %+v", r)
	}
	if r.Chapter != "第三章 概率初步" || r.Section != "1 感受可能性" {
		t.Errorf("chapter/section not applied: %+v", r)
	}
}
