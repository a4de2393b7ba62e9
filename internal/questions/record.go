// Package questions defines the question record model produced by
// extraction, plus the filesystem utilities that operate on record files.
package questions

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Record is one exam question with all of its metadata.
// Composite questions carry their parts in SubQuestions; standalone
// questions leave it empty and put options directly on the record.
type Record struct {
	QuestionID      string        `json:"question_id"`
	Grade           string        `json:"grade"`
	Volume          string        `json:"volume"`
	Chapter         string        `json:"chapter"`
	Section         string        `json:"section"`
	Subject         string        `json:"subject"`
	QuestionContent string        `json:"question_content"`
	QuestionOptions []string      `json:"question_options"`
	QuestionImages  []string      `json:"question_images"`
	QuestionTables  []string      `json:"question_tables"`
	AnalysisImages  []string      `json:"analysis_images"`
	Difficulty      string        `json:"difficulty"`
	QuestionType    string        `json:"question_type"`
	Source          string        `json:"source"`
	KnowledgePoints []string      `json:"knowledge_points"`
	SubQuestions    []SubQuestion `json:"sub_questions"`
	Answer          string        `json:"answer"`
	Resolve         string        `json:"resolve"`
	SourceYear      string        `json:"source_year"`
	SourceProvince  string        `json:"source_province"`
}

// SubQuestion is one part of a composite question.
type SubQuestion struct {
	QuestionID   string   `json:"question_id"`
	Question     string   `json:"question"`
	Image        string   `json:"image"`
	QuestionType string   `json:"question_type"`
	Option       []string `json:"option"`
}

// Normalize replaces nil slices with empty ones so serialized records
// always carry arrays, never null.
func (r *Record) Normalize() {
	if r.QuestionOptions == nil {
		r.QuestionOptions = []string{}
	}
	if r.QuestionImages == nil {
		r.QuestionImages = []string{}
	}
	if r.QuestionTables == nil {
		r.QuestionTables = []string{}
	}
	if r.AnalysisImages == nil {
		r.AnalysisImages = []string{}
	}
	if r.KnowledgePoints == nil {
		r.KnowledgePoints = []string{}
	}
	if r.SubQuestions == nil {
		r.SubQuestions = []SubQuestion{}
	}
	for i := range r.SubQuestions {
		if r.SubQuestions[i].Option == nil {
			r.SubQuestions[i].Option = []string{}
		}
	}
}

// LoadRecords reads a JSON array of records from path.
func LoadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%s must be a JSON array of records: %w", path, err)
	}
	return records, nil
}

// SaveRecords writes records to path as an indented JSON array.
func SaveRecords(path string, records []Record) error {
	for i := range records {
		records[i].Normalize()
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return nil
}
