package testcase

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrMissingKey is returned when a test case has no key.
	ErrMissingKey = errors.New("test case key is required")

	// ErrInvalidStatus is returned when status is invalid.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrNotRunning is returned when completing a test case that is not running.
	ErrNotRunning = errors.New("test case is not running")

	// ErrAlreadyStarted is returned when starting or skipping a test case that already left pending.
	ErrAlreadyStarted = errors.New("test case already started")
)

// Status represents the execution status of a test case.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusPassed, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// IsFinal checks if the status is a final status (can't be changed).
func (s Status) IsFinal() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusSkipped
}

// TestCase is one natural-language test. ID, Key, Steps and Enabled come
// from the source; the remaining fields are set once by the orchestrator.
type TestCase struct {
	ID      string `json:"id"`
	Key     string `json:"key"`
	Steps   string `json:"steps"`
	Enabled bool   `json:"enabled"`

	Status       Status        `json:"status"`
	Duration     time.Duration `json:"duration"`
	InputTokens  int64         `json:"input_tokens"`
	OutputTokens int64         `json:"output_tokens"`
	Cost         float64       `json:"cost"`
	Output       string        `json:"output,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// New creates an enabled, pending test case.
func New(id, key, steps string) *TestCase {
	return &TestCase{ID: id, Key: key, Steps: steps, Enabled: true, Status: StatusPending}
}

// Validate checks if the test case has valid required fields.
func (tc *TestCase) Validate() error {
	if strings.TrimSpace(tc.Key) == "" {
		return ErrMissingKey
	}
	if !tc.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// Runnable reports whether the test case should be handed to an agent.
func (tc *TestCase) Runnable() bool {
	return tc.Enabled && strings.TrimSpace(tc.Steps) != ""
}

// DurationSeconds returns the wall-clock duration in seconds.
func (tc *TestCase) DurationSeconds() float64 {
	return tc.Duration.Seconds()
}

// Reset returns the test case to pending and clears everything a previous
// run recorded, so a zero-value or already finished case can run again.
func (tc *TestCase) Reset() {
	tc.Status = StatusPending
	tc.Duration = 0
	tc.InputTokens = 0
	tc.OutputTokens = 0
	tc.Cost = 0
	tc.Output = ""
	tc.Reason = ""
	tc.StartedAt = nil
	tc.CompletedAt = nil
}

// Start sets the started_at timestamp and changes status to running.
func (tc *TestCase) Start() error {
	if tc.Status != StatusPending {
		return ErrAlreadyStarted
	}
	now := time.Now()
	tc.StartedAt = &now
	tc.Status = StatusRunning
	return nil
}

// Complete sets the final status and measures the duration since Start.
func (tc *TestCase) Complete(status Status, output string) error {
	if tc.Status != StatusRunning {
		return ErrNotRunning
	}
	if status != StatusPassed && status != StatusFailed {
		return ErrInvalidStatus
	}
	now := time.Now()
	tc.CompletedAt = &now
	tc.Duration = now.Sub(*tc.StartedAt)
	tc.Status = status
	tc.Output = output
	return nil
}

// Skip marks a pending test case as skipped without running it.
func (tc *TestCase) Skip(reason string) error {
	if tc.Status != StatusPending {
		return ErrAlreadyStarted
	}
	tc.Status = StatusSkipped
	tc.Reason = reason
	return nil
}

// SetUsage records token usage and cost for the run.
func (tc *TestCase) SetUsage(input, output int64, cost float64) {
	tc.InputTokens = input
	tc.OutputTokens = output
	tc.Cost = cost
}
