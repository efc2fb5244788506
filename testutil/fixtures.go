package testutil

import (
	"testing"
	"time"

	"github.com/hairizuan-noorazman/helpdesk-pilot/telemetry"
	"github.com/hairizuan-noorazman/helpdesk-pilot/testcase"
)

// FinishedCase returns a test case that ran to status with a fixed
// duration and token usage priced at the default rates.
func FinishedCase(t *testing.T, id, key string, status testcase.Status, d time.Duration, in, out int64) *testcase.TestCase {
	t.Helper()
	tc := testcase.New(id, key, "steps for "+key)
	if err := tc.Start(); err != nil {
		t.Fatalf("failed to start fixture %s: %v", key, err)
	}
	if err := tc.Complete(status, "TESTCASE_STATUS: "+string(status)); err != nil {
		t.Fatalf("failed to complete fixture %s: %v", key, err)
	}
	tc.Duration = d
	tc.SetUsage(in, out, telemetry.DefaultRates.Cost(in, out))
	return tc
}

// SkippedCase returns a disabled test case that was skipped.
func SkippedCase(t *testing.T, id, key string) *testcase.TestCase {
	t.Helper()
	tc := testcase.New(id, key, "")
	tc.Enabled = false
	if err := tc.Skip("disabled"); err != nil {
		t.Fatalf("failed to skip fixture %s: %v", key, err)
	}
	return tc
}
