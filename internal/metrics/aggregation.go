package metrics

import (
	"sort"
	"time"
)

// Filter selects metrics for aggregation. Zero fields match everything.
type Filter struct {
	RequestID string
	DocID     string
	Stage     string
	Provider  string
}

func (f Filter) matches(m Metric) bool {
	if f.RequestID != "" && m.RequestID != f.RequestID {
		return false
	}
	if f.DocID != "" && m.DocID != f.DocID {
		return false
	}
	if f.Stage != "" && m.Stage != f.Stage {
		return false
	}
	if f.Provider != "" && m.Provider != f.Provider {
		return false
	}
	return true
}

// Summary provides aggregate cost and usage for matching metrics.
type Summary struct {
	Count          int           `json:"count"`
	TotalCostUSD   float64       `json:"total_cost_usd"`
	TotalTokens    int           `json:"total_tokens"`
	TotalTime      time.Duration `json:"total_time"`
	SuccessCount   int           `json:"success_count"`
	ErrorCount     int           `json:"error_count"`
	AvgCostUSD     float64       `json:"avg_cost_usd"`
	AvgTokens      float64       `json:"avg_tokens"`
	AvgTimeSeconds float64       `json:"avg_time_seconds"`
}

// GetSummary returns a summary of metrics matching the filter.
func (r *Recorder) GetSummary(f Filter) *Summary {
	s := &Summary{}
	for _, m := range r.Metrics() {
		if !f.matches(m) {
			continue
		}
		s.Count++
		s.TotalCostUSD += m.CostUSD
		s.TotalTokens += m.TotalTokens
		s.TotalTime += time.Duration(m.TotalSeconds * float64(time.Second))
		if m.Success {
			s.SuccessCount++
		} else {
			s.ErrorCount++
		}
	}

	if s.Count > 0 {
		s.AvgCostUSD = s.TotalCostUSD / float64(s.Count)
		s.AvgTokens = float64(s.TotalTokens) / float64(s.Count)
		s.AvgTimeSeconds = s.TotalTime.Seconds() / float64(s.Count)
	}
	return s
}

// StageSummary is a per-stage aggregate.
type StageSummary struct {
	Stage   string  `json:"stage"`
	Summary Summary `json:"summary"`
}

// ByStage returns per-stage summaries for metrics matching the filter,
// sorted by stage name.
func (r *Recorder) ByStage(f Filter) []StageSummary {
	byStage := make(map[string]*Summary)
	for _, m := range r.Metrics() {
		if !f.matches(m) {
			continue
		}
		s, ok := byStage[m.Stage]
		if !ok {
			s = &Summary{}
			byStage[m.Stage] = s
		}
		s.Count++
		s.TotalCostUSD += m.CostUSD
		s.TotalTokens += m.TotalTokens
		s.TotalTime += time.Duration(m.TotalSeconds * float64(time.Second))
		if m.Success {
			s.SuccessCount++
		} else {
			s.ErrorCount++
		}
	}

	out := make([]StageSummary, 0, len(byStage))
	for stage, s := range byStage {
		if s.Count > 0 {
			s.AvgCostUSD = s.TotalCostUSD / float64(s.Count)
			s.AvgTokens = float64(s.TotalTokens) / float64(s.Count)
			s.AvgTimeSeconds = s.TotalTime.Seconds() / float64(s.Count)
		}
		out = append(out, StageSummary{Stage: stage, Summary: *s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stage < out[j].Stage })
	return out
}
