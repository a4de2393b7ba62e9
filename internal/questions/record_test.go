package questions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecord_Normalize(t *testing.T) {
	r := Record{SubQuestions: []SubQuestion{{QuestionID: "1"}}}
	r.Normalize()

	if r.QuestionOptions == nil || r.QuestionImages == nil || r.QuestionTables == nil {
		t.Error("expected empty slices, got nil")
	}
	if r.AnalysisImages == nil || r.KnowledgePoints == nil {
		t.Error("expected empty slices, got nil")
	}
	if r.SubQuestions[0].Option == nil {
		t.Error("expected sub-question option slice, got nil")
	}
}

func TestSaveLoadRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "records.json")

	records := []Record{
		{
			QuestionContent: "解方程 $x^2 = 4$",
			QuestionOptions: []string{"A. 2", "B. -2", "C. ±2", "D. 4"},
			QuestionType:    "选择题",
			Answer:          "C",
			SourceYear:      "2024",
			SourceProvince:  "广东",
		},
	}

	if err := SaveRecords(path, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Serialized form uses arrays, not null
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "null") {
		t.Error("serialized records should not contain null")
	}

	loaded, err := LoadRecords(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 record, got %d", len(loaded))
	}
	if loaded[0].QuestionContent != records[0].QuestionContent {
		t.Error("content mismatch after round trip")
	}
	if loaded[0].Answer != "C" {
		t.Error("answer mismatch after round trip")
	}
}

func TestLoadRecords_NotArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte(`{"not": "an array"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadRecords(path); err == nil {
		t.Error("expected error for non-array JSON")
	}
}
