// Package telemetry accumulates model token usage and cost for one test case.
package telemetry

import "sync"

// RateTable prices tokens in USD per million.
type RateTable struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// DefaultRates matches the list price of the default Bedrock model.
var DefaultRates = RateTable{InputPerMillion: 3, OutputPerMillion: 15}

// Cost prices one call.
func (r RateTable) Cost(input, output int64) float64 {
	return float64(input)*r.InputPerMillion/1e6 + float64(output)*r.OutputPerMillion/1e6
}

// Usage is a snapshot of the tracker.
type Usage struct {
	LastInputTokens   int64   `json:"last_input_tokens"`
	LastOutputTokens  int64   `json:"last_output_tokens"`
	TotalInputTokens  int64   `json:"total_input_tokens"`
	TotalOutputTokens int64   `json:"total_output_tokens"`
	TotalCost         float64 `json:"total_cost"`
	Calls             int     `json:"calls"`
}

// Tracker observes model calls. It is reset between test cases so usage
// never leaks across them.
type Tracker struct {
	mu    sync.Mutex
	rates RateTable
	usage Usage
}

// NewTracker creates a tracker with the given rate table.
func NewTracker(rates RateTable) *Tracker {
	return &Tracker{rates: rates}
}

// Record adds one model call.
func (t *Tracker) Record(input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.usage.LastInputTokens = input
	t.usage.LastOutputTokens = output
	t.usage.TotalInputTokens += input
	t.usage.TotalOutputTokens += output
	t.usage.TotalCost += t.rates.Cost(input, output)
	t.usage.Calls++
}

// Reset clears all counters.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.usage = Usage{}
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.usage
}

func (t *Tracker) LastInputTokens() int64   { return t.Snapshot().LastInputTokens }
func (t *Tracker) LastOutputTokens() int64  { return t.Snapshot().LastOutputTokens }
func (t *Tracker) TotalInputTokens() int64  { return t.Snapshot().TotalInputTokens }
func (t *Tracker) TotalOutputTokens() int64 { return t.Snapshot().TotalOutputTokens }
func (t *Tracker) TotalCost() float64       { return t.Snapshot().TotalCost }
