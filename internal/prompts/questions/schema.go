package questions

var subQuestionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"question_id": map[string]any{
			"type":        "string",
			"description": "Sub-question number, e.g. \"(1)\"",
		},
		"question": map[string]any{
			"type":        "string",
			"description": "Sub-question text, preserving LaTeX",
		},
		"image": map[string]any{
			"type":        "string",
			"description": "Image path referenced by this sub-question, empty if none",
		},
		"question_type": map[string]any{
			"type":        "string",
			"description": "Sub-question type, empty if it cannot be judged",
		},
		"option": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Answer choices for this sub-question, empty if none",
		},
	},
	"required":             []string{"question_id", "question", "image", "question_type", "option"},
	"additionalProperties": false,
}

var questionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"question_id": map[string]any{
			"type":        "string",
			"description": "Question number from the paper, or sequential if missing",
		},
		"grade": map[string]any{
			"type":        "string",
			"description": "Grade level such as 七年级, empty if absent",
		},
		"volume": map[string]any{
			"type":        "string",
			"description": "Volume such as 上册 or 下册, empty if absent",
		},
		"chapter": map[string]any{
			"type":        "string",
			"description": "Chapter the question belongs to, empty if absent",
		},
		"section": map[string]any{
			"type":        "string",
			"description": "Section the question belongs to, empty if absent",
		},
		"subject": map[string]any{
			"type":        "string",
			"description": "School subject such as 数学, empty if unknown",
		},
		"question_content": map[string]any{
			"type":        "string",
			"description": "Full question stem with original formatting and LaTeX",
		},
		"question_options": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Answer choices in A/B/C/D order, empty if none",
		},
		"question_images": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Relative image paths referenced by the stem",
		},
		"question_tables": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Markdown tables appearing in the stem, one string per table",
		},
		"analysis_images": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Relative image paths referenced by the analysis",
		},
		"difficulty": map[string]any{
			"type":        "string",
			"description": "Difficulty such as 简单, 中等 or 困难, empty if unknown",
		},
		"question_type": map[string]any{
			"type":        "string",
			"description": "Question type such as 选择题 or 解答题, empty if unknown",
		},
		"source": map[string]any{
			"type":        "string",
			"description": "Exam or workbook name the question comes from, empty if absent",
		},
		"knowledge_points": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Knowledge points the question tests",
		},
		"sub_questions": map[string]any{
			"type":        "array",
			"items":       subQuestionSchema,
			"description": "Numbered parts (1)(2)... in order of appearance, empty if none",
		},
		"answer": map[string]any{
			"type":        "string",
			"description": "Standard answer; letters for multiple choice, text otherwise",
		},
		"resolve": map[string]any{
			"type":        "string",
			"description": "Worked analysis or solution, empty if absent",
		},
		"source_year": map[string]any{
			"type":        "string",
			"description": "Four-digit source year, empty if absent",
		},
		"source_province": map[string]any{
			"type":        "string",
			"description": "Source province, region or paper name, empty if absent",
		},
	},
	"required": []string{
		"question_id", "grade", "volume", "chapter", "section", "subject",
		"question_content", "question_options", "question_images",
		"question_tables", "analysis_images", "difficulty", "question_type",
		"source", "knowledge_points", "sub_questions", "answer", "resolve",
		"source_year", "source_province",
	},
	"additionalProperties": false,
}

// ExtractionSchema is the JSON schema for question extraction output.
var ExtractionSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "question_records",
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questions": map[string]any{
					"type":        "array",
					"items":       questionSchema,
					"description": "One element per question found on the page",
				},
			},
			"required":             []string{"questions"},
			"additionalProperties": false,
		},
	},
}
