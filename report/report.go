// Package report aggregates test case outcomes into a run report, renders it
// and persists it.
package report

import (
	"time"

	"github.com/hairizuan-noorazman/helpdesk-pilot/testcase"
)

// CaseResult is the per-test view of a run.
type CaseResult struct {
	ID              string          `json:"id"`
	Key             string          `json:"key"`
	Status          testcase.Status `json:"status"`
	DurationSeconds float64         `json:"duration_seconds"`
	InputTokens     int64           `json:"input_tokens"`
	OutputTokens    int64           `json:"output_tokens"`
	Cost            float64         `json:"cost"`
	Reason          string          `json:"reason,omitempty"`
	Transcript      string          `json:"transcript,omitempty"`
}

// Summary aggregates a run.
type Summary struct {
	TotalTests    int     `json:"total_tests"`
	Passed        int     `json:"passed"`
	Failed        int     `json:"failed"`
	Skipped       int     `json:"skipped"`
	PassRate      float64 `json:"pass_rate"`
	TotalDuration float64 `json:"total_duration_seconds"`
	InputTokens   int64   `json:"input_tokens"`
	OutputTokens  int64   `json:"output_tokens"`
	Cost          float64 `json:"cost"`
}

// Report is the outcome of one orchestration pass.
type Report struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Cases      []CaseResult `json:"cases"`
	Summary    Summary      `json:"summary"`
}

// Build snapshots test cases into a report.
func Build(runID string, cases []*testcase.TestCase, started, finished time.Time) *Report {
	r := &Report{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: finished,
		Cases:      make([]CaseResult, 0, len(cases)),
	}
	for _, tc := range cases {
		r.Cases = append(r.Cases, CaseResult{
			ID:              tc.ID,
			Key:             tc.Key,
			Status:          tc.Status,
			DurationSeconds: tc.DurationSeconds(),
			InputTokens:     tc.InputTokens,
			OutputTokens:    tc.OutputTokens,
			Cost:            tc.Cost,
			Reason:          tc.Reason,
		})
	}
	r.Summary = Summarize(r.Cases)
	return r
}

// Summarize computes aggregate counts. PassRate is passed over executed
// (passed + failed) tests, zero when nothing executed.
func Summarize(cases []CaseResult) Summary {
	s := Summary{TotalTests: len(cases)}
	for _, c := range cases {
		switch c.Status {
		case testcase.StatusPassed:
			s.Passed++
		case testcase.StatusFailed:
			s.Failed++
		case testcase.StatusSkipped:
			s.Skipped++
		}
		s.TotalDuration += c.DurationSeconds
		s.InputTokens += c.InputTokens
		s.OutputTokens += c.OutputTokens
		s.Cost += c.Cost
	}
	if executed := s.Passed + s.Failed; executed > 0 {
		s.PassRate = float64(s.Passed) / float64(executed)
	}
	return s
}

// AttachTranscripts records transcript locations keyed by the case position
// in the run.
func (r *Report) AttachTranscripts(locations map[int]string) {
	for i := range r.Cases {
		if loc, ok := locations[i]; ok {
			r.Cases[i].Transcript = loc
		}
	}
}

// HasFailures reports whether any test failed.
func (r *Report) HasFailures() bool {
	return r.Summary.Failed > 0
}
