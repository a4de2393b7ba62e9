package questions

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
)

// PathMeta holds curriculum metadata derived from a record file's
// directory structure (never from the file name itself).
type PathMeta struct {
	Grade   string `json:"grade"`
	Volume  string `json:"volume"`
	Chapter string `json:"chapter"`
	Section string `json:"section"`
	Subject string `json:"subject"`
}

var gradeMap = map[string]string{
	"七年级": "7",
	"八年级": "8",
	"九年级": "9",
}

var subjects = map[string]struct{}{
	"数学": {},
	"语文": {},
	"英语": {},
	"物理": {},
	"化学": {},
	"生物": {},
}

var chapterPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^第.+单元.*`),
	regexp.MustCompile(`^第.+章.*`),     // 第三章 概率初步
	regexp.MustCompile(`(?i)^Unit\s+.+`), // Unit 3 The seasons
}

var sectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+\s*.*`),         // 1 探索勾股定理
	regexp.MustCompile(`(?i)^Section\s+.+`), // Section A / Section 1
}

// ExtractFromPath derives metadata from the directory components of path.
// Later components win when several match the same field.
func ExtractFromPath(path string) PathMeta {
	var meta PathMeta

	dir := filepath.Dir(path)
	for _, part := range strings.Split(dir, string(filepath.Separator)) {
		switch {
		case gradeMap[part] != "":
			meta.Grade = gradeMap[part]
		case part == "上册" || part == "下册":
			meta.Volume = part
		case matchesAny(part, chapterPatterns):
			meta.Chapter = part
		case matchesAny(part, sectionPatterns):
			meta.Section = part
		default:
			if _, ok := subjects[part]; ok {
				meta.Subject = part
			}
		}
	}

	return meta
}

func matchesAny(s string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// Apply overwrites record fields with every non-empty metadata value.
func (m PathMeta) Apply(records []Record) {
	for i := range records {
		if m.Grade != "" {
			records[i].Grade = m.Grade
		}
		if m.Volume != "" {
			records[i].Volume = m.Volume
		}
		if m.Chapter != "" {
			records[i].Chapter = m.Chapter
		}
		if m.Section != "" {
			records[i].Section = m.Section
		}
		if m.Subject != "" {
			records[i].Subject = m.Subject
		}
	}
}

// FillFile rewrites a record file with metadata derived from its path.
func FillFile(path string) error {
	records, err := LoadRecords(path)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	ExtractFromPath(abs).Apply(records)
	return SaveRecords(path, records)
}

// FillPath fills a single record file, or every .json file under a
// directory recursively.
func FillPath(root string) (int, error) {
	if strings.HasSuffix(strings.ToLower(root), ".json") {
		return 1, FillFile(root)
	}

	filled := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(path), ".json") {
			return nil
		}
		if err := FillFile(path); err != nil {
			return err
		}
		filled++
		return nil
	})
	return filled, err
}
