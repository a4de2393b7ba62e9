package llmcall

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store reads LLM call records back from the JSONL log.
type Store struct {
	path string
}

// NewStore creates a store over the calls.jsonl log in dir.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, "calls.jsonl")}
}

// QueryFilter specifies filters for listing LLM calls.
type QueryFilter struct {
	DocID     string
	RequestID string
	PromptKey string
	Provider  string
	Model     string
	After     *time.Time
	Before    *time.Time
	Success   *bool
	Limit     int
	Offset    int
}

func (f QueryFilter) matches(c *Call) bool {
	if f.DocID != "" && c.DocID != f.DocID {
		return false
	}
	if f.RequestID != "" && c.RequestID != f.RequestID {
		return false
	}
	if f.PromptKey != "" && c.PromptKey != f.PromptKey {
		return false
	}
	if f.Provider != "" && c.Provider != f.Provider {
		return false
	}
	if f.Model != "" && c.Model != f.Model {
		return false
	}
	if f.After != nil && !c.Timestamp.After(*f.After) {
		return false
	}
	if f.Before != nil && !c.Timestamp.Before(*f.Before) {
		return false
	}
	if f.Success != nil && c.Success != *f.Success {
		return false
	}
	return true
}

// Get retrieves a single LLM call by ID.
func (s *Store) Get(id string) (*Call, error) {
	var found *Call
	err := s.scan(func(c *Call) bool {
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("llm call not found: %s", id)
	}
	return found, nil
}

// List returns calls matching the filter, in log order.
func (s *Store) List(filter QueryFilter) ([]*Call, error) {
	var calls []*Call
	skipped := 0
	err := s.scan(func(c *Call) bool {
		if !filter.matches(c) {
			return true
		}
		if skipped < filter.Offset {
			skipped++
			return true
		}
		calls = append(calls, c)
		return filter.Limit <= 0 || len(calls) < filter.Limit
	})
	if err != nil {
		return nil, err
	}
	return calls, nil
}

// Summary aggregates token usage and cost over matching calls.
type Summary struct {
	Calls        int     `json:"calls"`
	Failures     int     `json:"failures"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// Summarize aggregates usage over calls matching the filter.
func (s *Store) Summarize(filter QueryFilter) (*Summary, error) {
	sum := &Summary{}
	err := s.scan(func(c *Call) bool {
		if !filter.matches(c) {
			return true
		}
		sum.Calls++
		if !c.Success {
			sum.Failures++
		}
		sum.InputTokens += c.InputTokens
		sum.OutputTokens += c.OutputTokens
		sum.CostUSD += c.CostUSD
		return true
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// scan walks the log, invoking fn per record until fn returns false.
// A missing log file is treated as an empty log.
func (s *Store) scan(fn func(*Call) bool) error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open llm call log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var call Call
		if err := json.Unmarshal(line, &call); err != nil {
			// Skip truncated or corrupt lines rather than failing the query
			continue
		}
		if !fn(&call) {
			return nil
		}
	}
	return scanner.Err()
}
