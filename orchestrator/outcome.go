package orchestrator

import (
	"strings"

	"github.com/hairizuan-noorazman/helpdesk-pilot/testcase"
)

const (
	// PassSentinel marks a passing agent report. Matching is case-sensitive.
	PassSentinel = "TESTCASE_STATUS: PASSED"
	// FailSentinel marks a failing agent report.
	FailSentinel = "TESTCASE_STATUS: FAILED"
)

// Outcome is the verdict derived from an agent's text report.
type Outcome struct {
	Status testcase.Status
	Reason string
}

// ClassifyOutcome maps agent output to a final status. The pass sentinel
// wins; anything else, including blank output, fails.
func ClassifyOutcome(text string) Outcome {
	switch {
	case strings.Contains(text, PassSentinel):
		return Outcome{Status: testcase.StatusPassed}
	case strings.TrimSpace(text) == "":
		return Outcome{Status: testcase.StatusFailed, Reason: "agent returned blank output"}
	case strings.Contains(text, FailSentinel):
		return Outcome{Status: testcase.StatusFailed, Reason: "agent reported failure"}
	default:
		return Outcome{Status: testcase.StatusFailed, Reason: "agent output has no status sentinel"}
	}
}
